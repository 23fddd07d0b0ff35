package birthday

import (
	"sort"
	"time"
)

// Upcoming is one entry of a ranked list of next occurrences.
type Upcoming struct {
	Date   time.Time
	Key    string
	Record *Record
}

// Today truncates now to its calendar day in now's location, expressed as midnight UTC
// so it compares directly with values from ParseDate.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OccurrenceIn returns the anniversary of dob in the given year.
// A Feb 29 birthday falls on Feb 28 in non-leap years.
func OccurrenceIn(dob time.Time, year int) time.Time {
	month, day := dob.Month(), dob.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the first anniversary of dob on or after the day of now.
func NextOccurrence(dob, now time.Time) time.Time {
	today := Today(now)
	candidate := OccurrenceIn(dob, today.Year())
	if candidate.Before(today) {
		candidate = OccurrenceIn(dob, today.Year()+1)
	}
	return candidate
}

// IsAnniversary reports whether the day of now is dob's anniversary.
func IsAnniversary(dob, now time.Time) bool {
	today := Today(now)
	return OccurrenceIn(dob, today.Year()).Equal(today)
}

// Age returns the completed years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// AgeAtNext returns the age reached at the next anniversary.
func AgeAtNext(dob, now time.Time) int {
	return Age(dob, now) + 1
}

// RankUpcoming orders records by their next occurrence, soonest first, ties broken by key,
// and returns at most limit entries. Records with an unreadable date are left out.
func RankUpcoming(records []*Record, now time.Time, limit int) []Upcoming {
	if limit <= 0 {
		return []Upcoming{}
	}
	ranked := make([]Upcoming, 0, len(records))
	for _, r := range records {
		dob, err := r.Birthdate()
		if err != nil {
			continue
		}
		ranked = append(ranked, Upcoming{Date: NextOccurrence(dob, now), Key: r.Key, Record: r})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].Date.Equal(ranked[j].Date) {
			return ranked[i].Date.Before(ranked[j].Date)
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// TurningAge returns the age celebrated at the next occurrence on or after now.
// Unlike AgeAtNext it is exact on the anniversary itself, including Feb 29 birthdays
// celebrated on Feb 28.
func TurningAge(dob, now time.Time) int {
	return NextOccurrence(dob, now).Year() - dob.Year()
}
