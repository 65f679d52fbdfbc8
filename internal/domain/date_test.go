package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, "2024-03-15", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "15-03-2024", "2024/03/15", "2024-13-01", "not a date"} {
		_, err := ParseDate(input)
		assert.Error(t, err, "input %q should not parse", input)
	}
}

func TestDateComparisons(t *testing.T) {
	a := NewDate(2024, time.January, 1)
	b := NewDate(2024, time.January, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2024, time.January, 1)))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDateAddDaysAndDaysUntil(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String()) // leap year
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(NewDate(2024, time.March, 1)))
	assert.Equal(t, -2, NewDate(2024, time.March, 1).DaysUntil(d))
}

func TestDateAsMapKey(t *testing.T) {
	m := map[Date]int{}
	m[NewDate(2024, time.June, 1)] = 1
	m[NewDate(2024, time.June, 1)] = 2
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[NewDate(2024, time.June, 1)])
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2023, time.December, 31)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2023-12-31"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))
}

func TestDateFromUnix(t *testing.T) {
	d := NewDate(2024, time.May, 10)
	assert.True(t, d.Equal(DateFromUnix(d.Unix())))
	assert.True(t, d.Equal(DateFromUnixMilli(d.UnixMilli())))

	// Mid-day timestamps truncate to the day.
	assert.True(t, d.Equal(DateFromUnix(d.Unix()+12*3600)))
}
