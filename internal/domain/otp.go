package domain

import "time"

// OtpCode is a single-use short-lived login credential.
// A used or expired code must never authenticate a session; used=true is the
// terminal marker for verified, expired, and attempts-exhausted codes alike.
// ExpiresAt doubles as the DynamoDB TTL attribute so the store eventually
// reaps rows that issuance housekeeping never got to.
type OtpCode struct {
	CodeID    string     `json:"-" dynamodbav:"code_id"`
	Email     string     `json:"email" dynamodbav:"email"`
	Code      string     `json:"-" dynamodbav:"code"` // 6 digits, zero-padded
	Used      bool       `json:"used" dynamodbav:"used"`
	Attempts  int        `json:"attempts" dynamodbav:"attempts"`
	ExpiresAt int64      `json:"expiresAt" dynamodbav:"expires_at"` // TTL (Unix seconds)
	UsedAt    *time.Time `json:"usedAt,omitempty" dynamodbav:"used_at"`
	CreatedAt time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

// Expired reports whether the code's lifetime has passed at t.
func (c *OtpCode) Expired(t time.Time) bool {
	return t.Unix() > c.ExpiresAt
}
