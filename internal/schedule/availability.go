package schedule

import (
	"strings"
	"time"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// WorksOnDay resolves the weekly-recurrence mask for one calendar day. A nil
// mask means the driver never opted out and works every day; an explicit
// empty mask means the driver works no day at all.
func WorksOnDay(driver *models.Driver, isoDate string) bool {
	if driver == nil {
		return false
	}
	if driver.WeekAvailability == nil {
		return true
	}
	day, err := time.ParseInLocation(dayLayout, NormalizeDay(isoDate), time.UTC)
	if err != nil {
		return false
	}
	weekday := int64(day.Weekday())
	for _, allowed := range *driver.WeekAvailability {
		if allowed == weekday {
			return true
		}
	}
	return false
}

// OnLeave reports whether the driver has an explicit leave entry for the day.
func OnLeave(driver *models.Driver, isoDate string) bool {
	if driver == nil {
		return false
	}
	want := NormalizeDay(isoDate)
	for _, leave := range driver.Leaves {
		if NormalizeDay(leave) == want {
			return true
		}
	}
	return false
}

// AllowedForJob checks night eligibility plus availability and leave on every
// day the job touches, not just the nominal start day. Unscheduled jobs are
// always allowed.
func AllowedForJob(driver *models.Driver, job models.Job) bool {
	return DisallowedDay(driver, job) == nil && !nightMismatch(driver, job)
}

// DisallowedDay returns the first touched day on which the driver cannot
// work, or nil when every touched day is fine. The bool result distinguishes
// a leave day (true) from a weekly-pattern miss (false).
func DisallowedDay(driver *models.Driver, job models.Job) *DayRefusal {
	iv, ok := ResolveInterval(TimingOf(job))
	if !ok {
		return nil
	}
	for _, day := range TouchedDays(iv) {
		if OnLeave(driver, day) {
			return &DayRefusal{Day: day, OnLeave: true}
		}
		if !WorksOnDay(driver, day) {
			return &DayRefusal{Day: day}
		}
	}
	return nil
}

// DayRefusal names the day a driver is unavailable and why.
type DayRefusal struct {
	Day     string
	OnLeave bool
}

func nightMismatch(driver *models.Driver, job models.Job) bool {
	if driver == nil {
		return true
	}
	return SlotOf(job) == enums.SlotNight && !driver.CanNight
}

// NormalizeDay reduces a date-ish string to bare YYYY-MM-DD; clients have
// sent full ISO timestamps here before.
func NormalizeDay(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > len(dayLayout) {
		value = value[:len(dayLayout)]
	}
	return value
}
