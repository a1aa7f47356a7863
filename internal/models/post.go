package models

import "time"

type Post struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AspectRatio float64   `json:"aspectRatio"`
	Views       int64     `json:"views"`
	Downloads   int64     `json:"downloads"`
	CreatedAt   time.Time `json:"createdAt"`
	Pictures    []Picture `json:"pictures"`
	User        *User     `json:"user,omitempty"`
}
