package schedule

import (
	"time"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

const (
	dayLayout  = "2006-01-02"
	timeLayout = "15:04"

	minutesPerDay = 24 * 60
)

// Timing is the schedulable part of a job: nominal day, start time of day and
// duration. A job missing any of the three has no resolvable interval and is
// treated as a draft, exempt from conflict checks.
type Timing struct {
	Date          *string
	Start         *string
	DurationHours *float64
}

// TimingOf extracts the Timing from a job record.
func TimingOf(job models.Job) Timing {
	return Timing{
		Date:          job.Date,
		Start:         job.Start,
		DurationHours: job.DurationHours,
	}
}

// Interval is an absolute half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// ResolveInterval computes the absolute interval for a timing. The second
// return is false when the timing is incomplete or malformed (the job is
// unscheduled).
func ResolveInterval(t Timing) (Interval, bool) {
	if t.Date == nil || t.Start == nil || t.DurationHours == nil || *t.DurationHours <= 0 {
		return Interval{}, false
	}
	day, err := time.ParseInLocation(dayLayout, *t.Date, time.UTC)
	if err != nil {
		return Interval{}, false
	}
	tod, err := time.Parse(timeLayout, *t.Start)
	if err != nil {
		return Interval{}, false
	}
	start := day.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute)
	end := start.Add(time.Duration(*t.DurationHours * float64(time.Hour)))
	return Interval{Start: start, End: end}, true
}

// Overlaps reports whether two half-open intervals intersect. Touching
// intervals (end of one equals start of the other) do not overlap, so
// back-to-back scheduling is legal.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// TouchedDays returns the ordered ISO calendar days the interval spans. The
// end instant is exclusive: a job ending exactly at midnight does not touch
// the following day.
func TouchedDays(iv Interval) []string {
	if !iv.Start.Before(iv.End) {
		return nil
	}
	first := iv.Start.Truncate(24 * time.Hour)
	last := iv.End.Add(-time.Nanosecond).Truncate(24 * time.Hour)

	var days []string
	for d := first; !d.After(last); d = d.Add(24 * time.Hour) {
		days = append(days, d.Format(dayLayout))
	}
	return days
}

// DaySegment is the portion of a job's interval falling inside one calendar
// day's 24h window, prepared for board display.
type DaySegment struct {
	Day             string     `json:"day"`
	StartMinute     int        `json:"startMinute"`
	EndMinute       int        `json:"endMinute"`
	StartsPrevDay   bool       `json:"startsPrevDay"`
	EndsNextDay     bool       `json:"endsNextDay"`
	OriginDay       string     `json:"originDay"`
	OriginTime      string     `json:"originTime"`
	DestinationDay  string     `json:"destinationDay"`
	DestinationTime string     `json:"destinationTime"`
	DisplaySlot     enums.Slot `json:"displaySlot"`
}

// SegmentForDay computes the portion of the timing's interval overlapping the
// half-open window [dayISO 00:00, +24h). Returns nil when the job does not
// touch that day or is unscheduled. DisplaySlot is a display rule independent
// of the job's stored slot: segments starting before noon render as day.
func SegmentForDay(t Timing, dayISO string) *DaySegment {
	iv, ok := ResolveInterval(t)
	if !ok {
		return nil
	}
	dayStart, err := time.ParseInLocation(dayLayout, dayISO, time.UTC)
	if err != nil {
		return nil
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	window := Interval{Start: dayStart, End: dayEnd}
	if !Overlaps(iv, window) {
		return nil
	}

	segStart := iv.Start
	if segStart.Before(dayStart) {
		segStart = dayStart
	}
	segEnd := iv.End
	if segEnd.After(dayEnd) {
		segEnd = dayEnd
	}

	startMinute := int(segStart.Sub(dayStart) / time.Minute)
	endMinute := int(segEnd.Sub(dayStart) / time.Minute)

	displaySlot := enums.SlotDay
	if startMinute >= minutesPerDay/2 {
		displaySlot = enums.SlotNight
	}

	return &DaySegment{
		Day:             dayISO,
		StartMinute:     startMinute,
		EndMinute:       endMinute,
		StartsPrevDay:   iv.Start.Before(dayStart),
		EndsNextDay:     iv.End.After(dayEnd),
		OriginDay:       iv.Start.Format(dayLayout),
		OriginTime:      iv.Start.Format(timeLayout),
		DestinationDay:  iv.End.Format(dayLayout),
		DestinationTime: iv.End.Format(timeLayout),
		DisplaySlot:     displaySlot,
	}
}

// SlotOf returns the job's slot, deriving it from the start hour when it was
// never stored explicitly.
func SlotOf(job models.Job) enums.Slot {
	if job.Slot.IsValid() {
		return job.Slot
	}
	if job.Start != nil {
		if tod, err := time.Parse(timeLayout, *job.Start); err == nil {
			return enums.SlotForStartHour(tod.Hour())
		}
	}
	return enums.SlotDay
}
