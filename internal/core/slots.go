package core

import "time"

const (
	maxSlots   = 10
	shownSlots = 8
)

var slotTimes = []struct {
	hour  int
	label string
}{
	{9, "09:00 AM"},
	{11, "11:00 AM"},
	{14, "02:00 PM"},
	{16, "04:00 PM"},
}

// MeetingSlots lists up to ten meeting times over the next businessDays
// weekdays, starting the day after now
func MeetingSlots(now time.Time, businessDays int) []string {
	slots := make([]string, 0, maxSlots)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for counted := 0; counted < businessDays && len(slots) < maxSlots; {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		counted++

		prefix := day.Format("Monday, January 02")
		for _, st := range slotTimes {
			if len(slots) == maxSlots {
				break
			}
			slots = append(slots, prefix+" at "+st.label)
		}
	}

	return slots
}
