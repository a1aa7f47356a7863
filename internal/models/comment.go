package models

import "time"

type Comment struct {
	ID     int64     `json:"id"`
	PostID int64     `json:"-"`
	UserID int64     `json:"-"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
	User   *User     `json:"user,omitempty"`
}
