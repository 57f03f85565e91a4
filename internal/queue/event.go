// Package queue defines message payloads exchanged over the message broker.
package queue

// ContactMessageEvent is published when a visitor submits the contact form.
// It carries the full submission so downstream consumers can log or forward
// it without querying anything else.
type ContactMessageEvent struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}
