package handler

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field limits in characters.
const (
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 2000
	maxEmailLength   = 254
)

// contactRequest is the JSON body for POST /api/contact and
// POST /api/external-contact.
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// fieldError reports the first invalid field of a request.
type fieldError struct {
	Field  string
	Reason string
}

func (e *fieldError) Error() string { return e.Field + " " + e.Reason }

// normalize trims surrounding whitespace from the single-line fields.
func (c *contactRequest) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Subject = strings.TrimSpace(c.Subject)
}

func (c *contactRequest) validate() *fieldError {
	if err := checkLength("name", c.Name, maxNameLength); err != nil {
		return err
	}
	if c.Email == "" {
		return &fieldError{Field: "email", Reason: "is required"}
	}
	if len(c.Email) > maxEmailLength || !validEmail(c.Email) {
		return &fieldError{Field: "email", Reason: "is not a valid email address"}
	}
	if err := checkLength("subject", c.Subject, maxSubjectLength); err != nil {
		return err
	}
	if strings.TrimSpace(c.Message) == "" {
		return &fieldError{Field: "message", Reason: "is required"}
	}
	if utf8.RuneCountInString(c.Message) > maxMessageLength {
		return &fieldError{Field: "message", Reason: fmt.Sprintf("must be at most %d characters", maxMessageLength)}
	}
	return nil
}

func checkLength(field, v string, max int) *fieldError {
	if v == "" {
		return &fieldError{Field: field, Reason: "is required"}
	}
	if utf8.RuneCountInString(v) > max {
		return &fieldError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// validEmail accepts a bare addr-spec with a dotted domain. Display names
// and angle brackets are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return at > 0 && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
