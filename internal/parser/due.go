// Package parser turns loose user input into the planner's calendar date
// (YYYY-MM-DD) and wall clock (HH:mm) strings.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/imkarma/planner/internal/store"
)

var relativeDays = regexp.MustCompile(`^\+?(\d+)\s*(d|day|days|w|week|weeks)$`)

// ParseDay turns a date argument into a calendar date string. It accepts
// YYYY-MM-DD, today, tomorrow, a weekday name (next occurrence, never
// today), and offsets like 3d or "2 weeks". "none" or "" clears the date.
func ParseDay(input string, now time.Time) (*string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || input == "none" {
		return nil, nil
	}
	if store.ValidDate(input) {
		return &input, nil
	}

	switch input {
	case "today":
		return day(now), nil
	case "tomorrow", "tmr":
		return day(now.AddDate(0, 0, 1)), nil
	}

	if m := relativeDays.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", input)
		}
		if strings.HasPrefix(m[2], "w") {
			n *= 7
		}
		return day(now.AddDate(0, 0, n)), nil
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if input == name || input == name[:3] {
			ahead := (int(wd) - int(now.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return day(now.AddDate(0, 0, ahead)), nil
		}
	}

	return nil, fmt.Errorf("invalid date %q. Use: YYYY-MM-DD, today, tomorrow, a weekday, or 3d", input)
}

func day(t time.Time) *string {
	s := t.Format("2006-01-02")
	return &s
}

var clockLayouts = []string{"15:04", "15", "3pm", "3:04pm", "3 pm", "3:04 pm"}

// ParseClock turns a time argument into HH:mm. It accepts 24-hour HH:mm and
// H, and 12-hour forms like 7pm or 7:30am. "none" or "" clears the time.
func ParseClock(input string) (*string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || input == "none" {
		return nil, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			s := t.Format("15:04")
			return &s, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q. Use: HH:mm or 7pm", input)
}

// ParseDue splits "fri 7pm" or "2026-10-20 23:00" into a date and an
// optional clock. A lone clock means today.
func ParseDue(input string, now time.Time) (date, clock *string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, nil
	}

	fields := strings.Fields(input)
	// Try the longest date prefix first so "2 weeks 9am" keeps its unit.
	for split := len(fields); split > 0; split-- {
		d, derr := ParseDay(strings.Join(fields[:split], " "), now)
		if derr != nil {
			continue
		}
		if split == len(fields) {
			return d, nil, nil
		}
		c, cerr := ParseClock(strings.Join(fields[split:], " "))
		if cerr != nil {
			return nil, nil, cerr
		}
		return d, c, nil
	}

	if c, cerr := ParseClock(input); cerr == nil {
		return day(now), c, nil
	}
	return nil, nil, fmt.Errorf("invalid due %q. Use: a date, optionally followed by a time", input)
}
