package domain

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// dateLayout is the wire format for dates everywhere: file payload,
// JSON export, CSV export, HTTP query parameters.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time component. The zero value is the
// zero date. Internally normalized to midnight UTC so that Date values
// are comparable with == and usable as map keys.
type Date struct {
	t time.Time
}

// NewDate creates a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Today returns the current date in the local timezone.
func Today() Date {
	year, month, day := time.Now().Date()
	return NewDate(year, month, day)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.t.Month() }

// Day returns the day of the month.
func (d Date) Day() int { return d.t.Day() }

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// Compare returns -1, 0 or +1 ordering d against o.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// UnixMilli returns the Unix timestamp in milliseconds at midnight UTC.
func (d Date) UnixMilli() int64 { return d.t.UnixMilli() }

// Unix returns the Unix timestamp in seconds at midnight UTC.
func (d Date) Unix() int64 { return d.t.Unix() }

// DateFromUnixMilli converts a millisecond Unix timestamp to the UTC
// calendar day it falls on.
func DateFromUnixMilli(ms int64) Date {
	t := time.UnixMilli(ms).UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DateFromUnix converts a second Unix timestamp to the UTC calendar day.
func DateFromUnix(sec int64) Date {
	t := time.Unix(sec, 0).UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EncodeMsgpack encodes the date as its string form, keeping the
// persisted payload independent of Go's time.Time representation.
func (d Date) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(d.String())
}

// DecodeMsgpack decodes a date from its string form.
func (d *Date) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
