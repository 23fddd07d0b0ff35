package birthday

import (
	"time"
)

// Record is the stored date of birth of one tracked person.
type Record struct {
	Key         string // Opaque identity key, e.g. a Telegram user ID
	DateOfBirth string // Canonical YYYY-MM-DD
	DisplayName string // Actual name, optional
	Alias       string // Game name, optional
	Age         string // Free-form age as entered, optional
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Birthdate parses DateOfBirth.
func (r *Record) Birthdate() (time.Time, error) {
	return ParseDate(r.DateOfBirth)
}

// Clone returns a copy that shares no memory with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
