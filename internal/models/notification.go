package models

import "time"

// Notification — уведомление мастера о новой записи.
// Создаётся как побочный эффект бронирования и принадлежит мастеру,
// который его получает.
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
