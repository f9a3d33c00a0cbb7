// Package models содержит доменные структуры системы записи на приём:
// пользователей, файлы-аватары, записи и уведомления, а также DTO для
// приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
// Флаг Provider отличает мастеров, к которым можно записаться,
// от обычных клиентов.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     bool      `json:"provider"`
	AvatarID     *int      `json:"avatar_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Provider bool   `json:"provider"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
