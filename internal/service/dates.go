package service

import "time"

const dateLayout = "2006-01-02"

// dayRange turns the closed calendar interval [from, to] into the half-open
// instant range [from 00:00, day after to 00:00) in loc.
func dayRange(from, to time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start := startOfDay(from, loc)
	end := startOfDay(to, loc)
	if end.Before(start) {
		return time.Time{}, time.Time{}, invalid("to", "must not be before from")
	}
	return start, end.AddDate(0, 0, 1), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, invalid(field, "must be a date formatted YYYY-MM-DD")
	}
	return d, nil
}
