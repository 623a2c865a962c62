package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/errors"
)

var (
	timePattern   = regexp.MustCompile(`^\d{1,2}:\d\d$`)
	numberPattern = regexp.MustCompile(`^\d+$`)
)

// Date is a calendar day as entered by a user (D-M-YYYY). It carries no
// timezone; Time() places it in the local zone.
type Date struct {
	Day   int
	Month int
	Year  int
}

// Key renders the date as a normalized entry key without leading zeros.
func (d Date) Key() string {
	return fmt.Sprintf(constants.DateKeyLayout, d.Day, d.Month, d.Year)
}

func (d Date) String() string {
	return d.Key()
}

// Time returns local midnight of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.Local)
}

// DateOf converts a time into a Date using its own location.
func DateOf(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// ParseDate parses a day-month-year string such as "22-8-2022" or "01-02-2022".
// Each component must be a decimal integer and together they must form a real
// calendar day.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, errors.New(errors.KindInvalidDate, errors.MsgInvalidDate)
	}

	var nums [3]int
	for i, part := range parts {
		if !numberPattern.MatchString(part) {
			return Date{}, errors.New(errors.KindInvalidDate, errors.MsgInvalidDate)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, errors.Wrap(errors.KindInvalidDate, errors.MsgInvalidDate, err)
		}
		nums[i] = n
	}

	d := Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return Date{}, errors.New(errors.KindInvalidDate, errors.MsgInvalidDate)
	}

	// time.Date normalizes overflow (30 Feb -> 2 Mar), so a round trip
	// detects days that do not exist in the month.
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Day() != d.Day || int(t.Month()) != d.Month || t.Year() != d.Year {
		return Date{}, errors.New(errors.KindInvalidDate, errors.MsgInvalidDate)
	}

	return d, nil
}

// RequireDate parses an optional raw date, failing with a missing-date error
// when it is absent.
func RequireDate(s *string) (Date, error) {
	if s == nil {
		return Date{}, errors.New(errors.KindDateMissing, errors.MsgDateMissing)
	}
	return ParseDate(*s)
}

// NormalizeDateKey re-renders a valid date string without zero padding so
// that "01-02-2022" and "1-2-2022" address the same entries.
func NormalizeDateKey(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.Key(), nil
}

// Clock is a time of day in minutes resolution. 24:00 is allowed and marks
// the end of the day.
type Clock struct {
	Hour   int
	Minute int
}

var (
	StartOfDay = Clock{Hour: 0, Minute: 0}
	EndOfDay   = Clock{Hour: 24, Minute: 0}
)

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the number of minutes from midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Compare returns -1, 0 or 1 as c is before, equal to or after other.
func (c Clock) Compare(other Clock) int {
	switch {
	case c.Minutes() < other.Minutes():
		return -1
	case c.Minutes() > other.Minutes():
		return 1
	default:
		return 0
	}
}

// ParseTime parses H:MM or HH:MM with hour 0-23 and minute 0-59, or exactly
// 24:00.
func ParseTime(s string) (Clock, error) {
	if !timePattern.MatchString(s) {
		return Clock{}, errors.New(errors.KindInvalidTime, errors.MsgInvalidTime)
	}

	hh, mm, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return Clock{}, errors.Wrap(errors.KindInvalidTime, errors.MsgInvalidTime, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Clock{}, errors.Wrap(errors.KindInvalidTime, errors.MsgInvalidTime, err)
	}

	c := Clock{Hour: hour, Minute: minute}
	if c == EndOfDay {
		return c, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, errors.New(errors.KindInvalidTime, errors.MsgInvalidTime)
	}
	return c, nil
}

// ParseOptionalTime parses a time that may be absent. An absent time yields
// def; it is never an error.
func ParseOptionalTime(s *string, def Clock) (Clock, error) {
	if s == nil {
		return def, nil
	}
	return ParseTime(*s)
}

// CompareTimes compares two valid time strings by hour then minute.
// Invalid input compares as the start of the day.
func CompareTimes(t1, t2 string) int {
	c1, err := ParseTime(t1)
	if err != nil {
		c1 = StartOfDay
	}
	c2, err := ParseTime(t2)
	if err != nil {
		c2 = StartOfDay
	}
	return c1.Compare(c2)
}

// ParseIndex parses a non-negative decimal entry index.
func ParseIndex(s *string) (int, error) {
	if s == nil {
		return 0, errors.New(errors.KindIndexMissing, errors.MsgIndexMissing)
	}
	if !numberPattern.MatchString(*s) {
		return 0, errors.New(errors.KindInvalidIndex, errors.MsgInvalidIndex)
	}
	idx, err := strconv.Atoi(*s)
	if err != nil {
		// Too large to be any valid position.
		return 0, errors.Wrap(errors.KindIndexOutOfRange, errors.MsgIndexOutOfRange, err)
	}
	return idx, nil
}
