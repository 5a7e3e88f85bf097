package gcm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedCalendar is returned for CF calendars the decoder does not
// know about.
var ErrUnsupportedCalendar = errors.New("unsupported calendar")

// Date is a day in the calendar of the dataset it was decoded from. Dates of
// non-Gregorian calendars, such as 360_day February 30, have no time.Time
// equivalent.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Before reports whether d comes before o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// calendar converts between dates and a day count from an arbitrary,
// calendar-specific epoch.
type calendar interface {
	days(y int, m time.Month, d int) int64
	date(days int64) Date
}

func calendarFor(name string) (calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return gregorian{}, nil
	case "noleap", "365_day":
		return newFixed([12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}), nil
	case "all_leap", "366_day":
		return newFixed([12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}), nil
	case "360_day":
		return newFixed([12]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}), nil
	case "julian":
		return julian{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCalendar, name)
}

// gregorian is proleptic Gregorian. The standard calendar only differs from
// it before 1582-10-15, which no GCM experiment reaches.
type gregorian struct{}

func (gregorian) days(y int, m time.Month, d int) int64 {
	return floorDiv(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix(), 86400)
}

func (gregorian) date(days int64) Date {
	t := time.Unix(days*86400, 0).UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// fixed is a calendar whose years all have the same month lengths.
type fixed struct {
	lengths  [12]int
	offsets  [12]int
	yearDays int64
}

func newFixed(lengths [12]int) fixed {
	c := fixed{lengths: lengths}
	for i, n := range lengths {
		c.offsets[i] = int(c.yearDays)
		c.yearDays += int64(n)
	}
	return c
}

func (c fixed) days(y int, m time.Month, d int) int64 {
	return int64(y)*c.yearDays + int64(c.offsets[m-1]) + int64(d-1)
}

func (c fixed) date(days int64) Date {
	y := floorDiv(days, c.yearDays)
	doy := int(days - y*c.yearDays)
	m := 11
	for m > 0 && c.offsets[m] > doy {
		m--
	}
	return Date{Year: int(y), Month: time.Month(m + 1), Day: doy - c.offsets[m] + 1}
}

// julian counts days from 0001-01-01 with a leap day every fourth year.
type julian struct{}

func (julian) leap(y int) bool { return floorDiv(int64(y), 4)*4 == int64(y) }

func (j julian) monthLen(y int, m time.Month) int {
	switch m {
	case time.February:
		if j.leap(y) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

func (j julian) days(y int, m time.Month, d int) int64 {
	n := 365*int64(y-1) + floorDiv(int64(y-1), 4)
	for mm := time.January; mm < m; mm++ {
		n += int64(j.monthLen(y, mm))
	}
	return n + int64(d-1)
}

func (j julian) date(days int64) Date {
	y := int(floorDiv(4*days+3, 1461)) + 1
	for j.days(y, time.January, 1) > days {
		y--
	}
	for j.days(y+1, time.January, 1) <= days {
		y++
	}
	doy := int(days - j.days(y, time.January, 1))
	m := time.January
	for doy >= j.monthLen(y, m) {
		doy -= j.monthLen(y, m)
		m++
	}
	return Date{Year: y, Month: m, Day: doy + 1}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// timeUnits is a parsed CF "<unit> since <reference>" string.
type timeUnits struct {
	daysPerUnit float64
	refDate     Date
	refFraction float64 // fraction of the reference day already elapsed
}

func parseTimeUnits(units string) (timeUnits, error) {
	unit, ref, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return timeUnits{}, fmt.Errorf("time units %q: missing \"since\"", units)
	}
	var tu timeUnits
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "days", "day", "d":
		tu.daysPerUnit = 1
	case "hours", "hour", "hrs", "hr", "h":
		tu.daysPerUnit = 1.0 / 24
	case "minutes", "minute", "mins", "min":
		tu.daysPerUnit = 1.0 / 1440
	case "seconds", "second", "secs", "sec", "s":
		tu.daysPerUnit = 1.0 / 86400
	default:
		return timeUnits{}, fmt.Errorf("time units %q: unknown unit %q", units, unit)
	}

	ref = strings.TrimSpace(ref)
	datePart, clockPart, _ := strings.Cut(strings.Replace(ref, "T", " ", 1), " ")
	ymd := strings.Split(datePart, "-")
	if len(ymd) != 3 {
		return timeUnits{}, fmt.Errorf("time units %q: bad reference date %q", units, datePart)
	}
	var parts [3]int
	for i, s := range ymd {
		n, err := strconv.Atoi(s)
		if err != nil {
			return timeUnits{}, fmt.Errorf("time units %q: %w", units, err)
		}
		parts[i] = n
	}
	tu.refDate = Date{Year: parts[0], Month: time.Month(parts[1]), Day: parts[2]}
	if tu.refDate.Month < time.January || tu.refDate.Month > time.December || tu.refDate.Day < 1 {
		return timeUnits{}, fmt.Errorf("time units %q: bad reference date %q", units, datePart)
	}

	if fields := strings.Fields(clockPart); len(fields) > 0 {
		hms := strings.Split(strings.TrimSuffix(fields[0], "Z"), ":")
		var secs float64
		for i, scale := range []float64{3600, 60, 1} {
			if i >= len(hms) {
				break
			}
			v, err := strconv.ParseFloat(hms[i], 64)
			if err != nil {
				return timeUnits{}, fmt.Errorf("time units %q: %w", units, err)
			}
			secs += v * scale
		}
		tu.refFraction = secs / 86400
	}
	return tu, nil
}

// decodeTimes converts CF time coordinate values to calendar dates.
func decodeTimes(values []float64, units, calendarName string) ([]Date, error) {
	cal, err := calendarFor(calendarName)
	if err != nil {
		return nil, err
	}
	tu, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	ref := cal.days(tu.refDate.Year, tu.refDate.Month, tu.refDate.Day)
	dates := make([]Date, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("time value %d is %v", i, v)
		}
		whole := math.Floor(tu.refFraction + v*tu.daysPerUnit)
		dates[i] = cal.date(ref + int64(whole))
	}
	return dates, nil
}
