package models

import "time"

// Appointment представляет собой запись клиента к мастеру.
// Дата всегда выровнена по началу часа. Запись никогда не удаляется
// физически: отмена фиксируется полем CanceledAt.
type Appointment struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	ProviderID int        `json:"provider_id"`
	Date       time.Time  `json:"date"`
	CanceledAt *time.Time `json:"canceled_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DummyAppointment используется для приёма данных новой записи из JSON-запроса.
// Дата приходит строкой в формате RFC3339 и парсится вручную в сервисе.
type DummyAppointment struct {
	Date       string `json:"date" validate:"required"`
	ProviderID int    `json:"provider_id" validate:"required"`
}

// AvatarView описывает аватар мастера в ответах API.
// URL собирается сервисом из базового адреса приложения и пути файла.
type AvatarView struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ProviderView описывает мастера в списке записей клиента.
type ProviderView struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Avatar *AvatarView `json:"avatar,omitempty"`
}

// AppointmentView — элемент списка записей клиента, обогащённый данными мастера.
type AppointmentView struct {
	ID       int          `json:"id"`
	Date     time.Time    `json:"date"`
	Provider ProviderView `json:"provider"`
}

// AppointmentDetail — запись вместе с именами и почтой её сторон.
// Используется при отмене: и для проверки владельца, и как источник
// данных для письма мастеру.
type AppointmentDetail struct {
	Appointment
	ProviderName  string `json:"provider_name"`
	ProviderEmail string `json:"provider_email"`
	ClientName    string `json:"client_name"`
}

// ScheduleItem — элемент дневного расписания мастера.
type ScheduleItem struct {
	ID         int       `json:"id"`
	Date       time.Time `json:"date"`
	ClientName string    `json:"client_name"`
}

// CancellationMessage — полезная нагрузка сообщения об отмене записи,
// публикуемого в RabbitMQ и потребляемого воркером mail-sender.
type CancellationMessage struct {
	AppointmentID int       `json:"appointment_id"`
	Date          time.Time `json:"date"`
	ProviderName  string    `json:"provider_name"`
	ProviderEmail string    `json:"provider_email"`
	ClientName    string    `json:"client_name"`
}
