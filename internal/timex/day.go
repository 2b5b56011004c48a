package timex

import (
	"time"
	_ "time/tzdata"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
)

// LocalDay formats t as a calendar day in the named IANA zone. Unknown zones
// fall back to UTC.
func LocalDay(t time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return t.In(loc).Format(common.DateLayout)
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(common.DateLayout, s)
}

// DayRange returns the inclusive [from, to] window covering the last n days
// ending on today in the given zone.
func DayRange(now time.Time, timezone string, days int) (string, string) {
	if days < 1 {
		days = 1
	}
	to := LocalDay(now, timezone)
	end, _ := ParseDay(to)
	from := end.AddDate(0, 0, -(days - 1)).Format(common.DateLayout)
	return from, to
}
