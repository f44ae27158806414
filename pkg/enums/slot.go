package enums

import "fmt"

// Slot is the coarse day/night classification of a job.
type Slot string

const (
	SlotDay   Slot = "day"
	SlotNight Slot = "night"
)

var validSlots = []Slot{SlotDay, SlotNight}

// String implements fmt.Stringer.
func (s Slot) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Slot.
func (s Slot) IsValid() bool {
	for _, candidate := range validSlots {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSlot converts raw input into a Slot.
func ParseSlot(value string) (Slot, error) {
	for _, candidate := range validSlots {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid slot %q", value)
}

// SlotForStartHour derives the slot from a job's start hour when no explicit
// slot was stored: hours in [20,24) and [0,8) count as night.
func SlotForStartHour(hour int) Slot {
	if hour >= 20 || hour < 8 {
		return SlotNight
	}
	return SlotDay
}
