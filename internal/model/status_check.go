package model

import "time"

// StatusCheck is a client heartbeat record stored by POST /api/status.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}
