package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/islandworks/miyako-poi/internal/models"
)

// All opening-hours evaluation happens in island local time.
var jst = time.FixedZone("JST", 9*60*60)

// OpenNow evaluates whether a venue is open at the given instant.
// Returns nil when the answer is unknown: no hours data at all, no entry
// for today, or an entry that parses to neither a marker nor a range.
// Unknown is distinct from closed.
func OpenNow(hours models.OpeningHours, now time.Time) *bool {
	if hours == nil {
		return nil
	}

	local := now.In(jst)
	day := strings.ToLower(local.Weekday().String())
	entry, ok := hours[day]
	if !ok {
		return nil
	}

	switch {
	case entry.AllDay():
		return boolPtr(true)
	case entry.ClosedAllDay():
		return boolPtr(false)
	case entry.HasRange():
		return rangeOpen(entry, local)
	}
	return nil
}

// rangeOpen compares the current clock time against an open/close pair.
// A close time earlier than the open time means the range crosses
// midnight.
func rangeOpen(entry models.DayHours, local time.Time) *bool {
	open, ok1 := parseClock(entry.Open)
	close_, ok2 := parseClock(entry.Close)
	if !ok1 || !ok2 {
		return nil
	}

	// Close times like "25:00" mean past midnight.
	if close_ >= 24*60 {
		close_ -= 24 * 60
	}

	cur := local.Hour()*60 + local.Minute()

	if close_ < open {
		return boolPtr(cur >= open || cur <= close_)
	}
	return boolPtr(cur >= open && cur <= close_)
}

// parseClock converts "H:MM" / "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

func boolPtr(b bool) *bool { return &b }
