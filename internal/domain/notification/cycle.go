// internal/domain/notification/cycle.go
package notification

import "time"

// ScanCursor is the calendar day of the most recently completed birthday scan.
// Corresponds to the 'scan_cursors' table.
type ScanCursor struct {
	Name      string    // Scanner name, one row per scanner
	ScanDate  time.Time // Date part only, midnight UTC
	UpdatedAt time.Time
}

// Covers reports whether the cursor already marks day as scanned.
func (c *ScanCursor) Covers(day time.Time) bool {
	return c != nil && !c.ScanDate.IsZero() && c.ScanDate.Equal(day)
}
