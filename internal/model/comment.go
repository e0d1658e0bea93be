package model

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
