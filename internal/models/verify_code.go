package models

import "time"

// VerifyCode — одноразовый код авторизации. На email живёт максимум одна
// запись, повторная отправка перезаписывает её. Храним только bcrypt-хэш.
type VerifyCode struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}
