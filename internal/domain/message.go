package domain

import "time"

type Message struct {
	ID        uint      `json:"-"`
	Sender    Username  `json:"sender"`
	Receiver  Username  `json:"receiver"`
	Body      string    `json:"message"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"timestamp"`
}
