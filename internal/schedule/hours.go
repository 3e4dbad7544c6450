// Package schedule decides whether the store accepts pickup or delivery
// orders at a given wall-clock time.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode is the fulfilment channel an order uses.
type Mode string

const (
	Pickup   Mode = "pickup"
	Delivery Mode = "delivery"
)

// ErrInvalidMode is returned for modes other than pickup and delivery.
var ErrInvalidMode = errors.New("mode must be pickup or delivery")

// ParseMode normalises a mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case Pickup:
		return Pickup, nil
	case Delivery:
		return Delivery, nil
	}
	return "", ErrInvalidMode
}

// DayHours is the schedule for one weekday.
type DayHours struct {
	Open   string `json:"open" yaml:"open"`
	Close  string `json:"close" yaml:"close"`
	Closed bool   `json:"closed" yaml:"closed"`
}

// WeeklyHours maps lowercase English weekday names to their hours.
type WeeklyHours map[string]DayHours

var dayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayKey returns the WeeklyHours key for a weekday.
func DayKey(d time.Weekday) string {
	return dayKeys[d]
}

func isDayKey(key string) bool {
	for _, k := range dayKeys {
		if k == key {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" into minutes after midnight. "24:00" is
// accepted so a day can close at midnight.
func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	if h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return h*60 + m, nil
}

// window returns the open interval in minutes, or ok=false when the day
// cannot be opened (closed flag, bad times, or close not after open).
func (d DayHours) window() (open, close int, ok bool) {
	if d.Closed {
		return 0, 0, false
	}
	o, err := parseClock(d.Open)
	if err != nil || o == 24*60 {
		return 0, 0, false
	}
	c, err := parseClock(d.Close)
	if err != nil || c <= o {
		return 0, 0, false
	}
	return o, c, true
}

// Validate rejects unknown weekday keys and unusable open days.
func (w WeeklyHours) Validate() error {
	for key, day := range w {
		if !isDayKey(key) {
			return fmt.Errorf("unknown weekday %q", key)
		}
		if day.Closed {
			continue
		}
		if _, _, ok := day.window(); !ok {
			return fmt.Errorf("%s: open must be before close (HH:MM)", key)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (w WeeklyHours) Clone() WeeklyHours {
	if w == nil {
		return nil
	}
	out := make(WeeklyHours, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
