package domain

import "time"

// AllowedUser is a person entitled to access gated course content.
// Records are created out-of-band (operator CLI), never by the public API.
// A user may authenticate only while Active is true.
type AllowedUser struct {
	UserID    string     `json:"id" dynamodbav:"user_id"`
	Email     string     `json:"email" dynamodbav:"email"` // stored lowercase
	Name      string     `json:"name" dynamodbav:"name"`
	Active    bool       `json:"active" dynamodbav:"active"`
	AddedAt   time.Time  `json:"addedAt" dynamodbav:"added_at"`
	LastLogin *time.Time `json:"lastLogin,omitempty" dynamodbav:"last_login"`
}

// SafeUser is the user payload returned after a successful verification.
type SafeUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
