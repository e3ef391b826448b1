package document

import (
	"fmt"
	"time"
)

// DateLayout is used for dates taken from the MRZ.
const DateLayout = "2006-01-02"

const mrzDateLayout = "060102"

func BoolToYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func parseMRZDate(s string) (time.Time, error) {
	if len(s) != len(mrzDateLayout) {
		return time.Time{}, fmt.Errorf("invalid date format: %q", s)
	}
	d, err := time.Parse(mrzDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing date: %w", err)
	}
	return d, nil
}

// ParseDateOfBirth parses a YYMMDD birth date. A two-digit year that would
// put the birth in the future belongs to the previous century.
func ParseDateOfBirth(s string) (time.Time, error) {
	d, err := parseMRZDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d.After(time.Now()) {
		d = d.AddDate(-100, 0, 0)
	}
	return d, nil
}

// ParseExpiryDate parses a YYMMDD expiry date. Dates more than 30 years in
// the past are taken to be in the next century.
func ParseExpiryDate(s string) (time.Time, error) {
	d, err := parseMRZDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d.Before(time.Now().AddDate(-30, 0, 0)) {
		d = d.AddDate(100, 0, 0)
	}
	return d, nil
}
