package model

import "time"

// ContactSubmission represents a message submitted via the contact form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// ReadFilter values accepted by ContactListOptions.Read.
const (
	ReadFilterAll    = "all"
	ReadFilterRead   = "read"
	ReadFilterUnread = "unread"
)

// ContactListOptions carries filter and pagination parameters for listing submissions.
type ContactListOptions struct {
	// Read filters by read flag: "", "all", "read", "unread".
	// Empty string and "all" return all submissions.
	Read   string
	Limit  int
	Offset int
}
