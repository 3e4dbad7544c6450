package schedule

import "time"

// Reason explains an availability decision.
type Reason string

const (
	ReasonOpen                 Reason = "open"
	ReasonManualClosed         Reason = "manual_closed"
	ReasonDeliveryManualClosed Reason = "delivery_manual_closed"
	ReasonNoSchedule           Reason = "no_schedule"
	ReasonDayClosed            Reason = "day_closed"
	ReasonOutsideHours         Reason = "outside_hours"
)

// Availability layers the manual overrides on top of the two weekly schedules.
// Precedence: ManualClosed > DeliveryManualClosed > weekly hours.
type Availability struct {
	PickupHours          WeeklyHours
	DeliveryHours        WeeklyHours
	ManualClosed         bool
	DeliveryManualClosed bool
}

// IsOpenForPickup reports whether pickup orders are accepted at now.
func (a Availability) IsOpenForPickup(now time.Time) bool {
	open, _ := a.Check(Pickup, now)
	return open
}

// IsOpenForDelivery reports whether delivery orders are accepted at now.
func (a Availability) IsOpenForDelivery(now time.Time) bool {
	open, _ := a.Check(Delivery, now)
	return open
}

// Check evaluates one mode. now is read as store wall-clock time; callers
// convert it to the store location first.
func (a Availability) Check(mode Mode, now time.Time) (bool, Reason) {
	if a.ManualClosed {
		return false, ReasonManualClosed
	}
	if mode == Delivery && a.DeliveryManualClosed {
		return false, ReasonDeliveryManualClosed
	}

	day, ok := a.hoursFor(mode)[DayKey(now.Weekday())]
	if !ok {
		return false, ReasonNoSchedule
	}
	if day.Closed {
		return false, ReasonDayClosed
	}
	open, close, ok := day.window()
	if !ok {
		return false, ReasonNoSchedule
	}
	m := minuteOfDay(now)
	if m >= open && m < close {
		return true, ReasonOpen
	}
	return false, ReasonOutsideHours
}

// NextOpening returns the earliest moment within a week, starting at now,
// when mode will be open. Manual overrides have no scheduled end, so they
// yield ok=false.
func (a Availability) NextOpening(mode Mode, now time.Time) (time.Time, bool) {
	if a.ManualClosed || (mode == Delivery && a.DeliveryManualClosed) {
		return time.Time{}, false
	}
	hours := a.hoursFor(mode)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := 0; i <= 7; i++ {
		date := midnight.AddDate(0, 0, i)
		day, ok := hours[DayKey(date.Weekday())]
		if !ok {
			continue
		}
		open, close, ok := day.window()
		if !ok {
			continue
		}
		if i == 0 {
			m := minuteOfDay(now)
			if m >= open && m < close {
				return now, true
			}
			if m >= open {
				continue
			}
		}
		return time.Date(date.Year(), date.Month(), date.Day(), open/60, open%60, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

func (a Availability) hoursFor(mode Mode) WeeklyHours {
	if mode == Delivery {
		return a.DeliveryHours
	}
	return a.PickupHours
}
