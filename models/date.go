package models

import (
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t, stored at UTC midnight so that
// date columns compare consistently across drivers.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return DateOf(t), nil
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// AddDays keeps the result on a calendar boundary.
func AddDays(d datatypes.Date, days int) datatypes.Date {
	return DateOf(time.Time(d).AddDate(0, 0, days))
}
