package repository

import "errors"

// Ошибки-маркеры хранилища. Сервисный слой и обработчики различают их
// через errors.Is и превращают в конкретные HTTP-ответы.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already taken")
	ErrProviderNotFound     = errors.New("provider not found")
	ErrSlotTaken            = errors.New("appointment slot is taken")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
