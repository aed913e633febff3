package eval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RelTime is a parsed relative-time expression: sign*value*unit applied on
// top of now, rounded down to ref_unit first (unless ref_unit is "now",
// in which case now is used unrounded).
type RelTime struct {
	Sign    int
	Value   float64
	Unit    string
	RefUnit string
}

var relTimeRe = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d+)?)(ms|s|m|h|d|mon)@(ms|s|m|h|d|mon|now)$`)

var unitDurations = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}

// ParseRelTime parses "(+|-)?<value><unit>@<ref_unit>", e.g. "-30m@h" or
// "1d@now". unit and ref_unit are one of ms, s, m, h, d, mon; ref_unit also
// accepts the literal "now". An omitted sign counts as "-", so "1h@h" is
// one hour before the current hour mark.
func ParseRelTime(s string) (RelTime, error) {
	m := relTimeRe.FindStringSubmatch(s)
	if m == nil {
		return RelTime{}, fmt.Errorf("invalid relative time expression %q", s)
	}
	sign := -1
	if m[1] == "+" {
		sign = 1
	}
	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return RelTime{}, fmt.Errorf("invalid relative time value in %q: %w", s, err)
	}
	return RelTime{Sign: sign, Value: value, Unit: m[3], RefUnit: m[4]}, nil
}

// Apply computes the instant described by rt, relative to now.
func (rt RelTime) Apply(now time.Time) time.Time {
	ref := roundToUnit(now, rt.RefUnit)
	delta := rt.delta()
	return ref.Add(time.Duration(float64(rt.Sign) * rt.Value * float64(delta)))
}

func (rt RelTime) delta() time.Duration {
	if rt.Unit == "mon" {
		return 30 * 24 * time.Hour
	}
	return unitDurations[rt.Unit]
}

// roundToUnit truncates t down to the start of its ref_unit bucket. "now"
// applies no rounding; "mon" rounds to the first of the month.
func roundToUnit(t time.Time, unit string) time.Time {
	switch unit {
	case "now":
		return t
	case "ms":
		return t.Truncate(time.Millisecond)
	case "s":
		return t.Truncate(time.Second)
	case "m":
		return t.Truncate(time.Minute)
	case "h":
		return t.Truncate(time.Hour)
	case "d":
		y, mo, d := t.Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	case "mon":
		y, mo, _ := t.Date()
		return time.Date(y, mo, 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// strftimeToLayout converts a restricted subset of the C strftime
// directives used by the function table into a Go reference-time layout.
func strftimeToLayout(format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006",
		"%y", "06",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
		"%z", "-0700",
		"%Z", "MST",
		"%b", "Jan",
		"%B", "January",
		"%a", "Mon",
		"%A", "Monday",
		"%p", "PM",
	)
	return replacer.Replace(format)
}
