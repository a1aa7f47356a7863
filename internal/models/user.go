package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Bio          string    `json:"bio"`
	AvatarID     *string   `json:"avatarId"`
	TelegramID   *int64    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}
