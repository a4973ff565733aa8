package models

import "github.com/google/uuid"

// NewSessionID generates a fresh session identifier, used both as
// SessionStats.SessionID and as the seed for Exporter filenames.
func NewSessionID() string {
	return uuid.New().String()
}
