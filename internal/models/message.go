package models

import "time"

// Message is one inbox item. A nil SenderID denotes a system message
// (e.g. the daily project digest).
type Message struct {
	ID          int       `json:"id"`
	SenderID    *int      `json:"sender_id"`
	RecipientID int       `json:"recipient_id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
