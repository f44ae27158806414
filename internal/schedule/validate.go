package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// Rule identifies a scheduling invariant a candidate job violated.
type Rule string

const (
	RuleInvalidDriver          Rule = "INVALID_DRIVER_ID"
	RuleDriverNoNight          Rule = "DRIVER_NO_NIGHT"
	RuleDriverNotAvailable     Rule = "DRIVER_NOT_AVAILABLE"
	RuleDriverOnLeave          Rule = "DRIVER_ON_LEAVE"
	RuleDriverBusy             Rule = "DRIVER_BUSY"
	RuleDriverLimitExceeded    Rule = "DRIVER_LIMIT_EXCEEDED"
	RuleDriverNot2ManEligible  Rule = "DRIVER_NOT_2MAN_ELIGIBLE"
	RuleTractorNotDoubleManned Rule = "TRACTOR_NOT_DOUBLE_MANNED"
	RuleTractorBusy            Rule = "TRACTOR_BUSY"
	RuleTrailerBusy            Rule = "TRAILER_BUSY"
	RuleInvalidTractor         Rule = "INVALID_TRACTOR_ID"
	RuleInvalidTrailer         Rule = "INVALID_TRAILER_ID"
)

// RuleViolation carries the violated rule, the offending request field and a
// human-readable reason suitable for inline display.
type RuleViolation struct {
	Rule    Rule   `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v *RuleViolation) Error() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

func violation(rule Rule, field, format string, args ...any) *RuleViolation {
	return &RuleViolation{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)}
}

// State is the roster the validator checks a candidate against. Jobs holds
// the full active (non-deleted) job list; the maps index active resources by
// id.
type State struct {
	Drivers  map[uuid.UUID]*models.Driver
	Tractors map[uuid.UUID]*models.Tractor
	Trailers map[uuid.UUID]*models.Trailer
	Jobs     []models.Job
}

// MaxCrew is the hard upper bound on drivers per job.
const MaxCrew = 2

// ValidateJob decides whether the candidate assignment is legal given the
// current roster. A nil result means acceptable. Jobs without a resolvable
// interval are drafts and accepted unconditionally; excludeID removes the
// job's own stored row from the double-booking scans when editing.
func ValidateJob(state State, candidate models.Job, excludeID *uuid.UUID) *RuleViolation {
	iv, ok := ResolveInterval(TimingOf(candidate))
	if !ok {
		return nil
	}

	if v := validateCrew(state, candidate); v != nil {
		return v
	}

	for _, driverID := range candidate.DriverIDs {
		driver, found := state.Drivers[driverID]
		if !found {
			return violation(RuleInvalidDriver, "driverIds", "unknown driver %s", driverID)
		}
		if v := validateDriverDays(driver, candidate); v != nil {
			return v
		}
		if v := scanDriverOverlap(state, driver, iv, excludeID); v != nil {
			return v
		}
	}

	if candidate.TractorID != nil {
		if _, found := state.Tractors[*candidate.TractorID]; !found {
			return violation(RuleInvalidTractor, "tractorId", "unknown tractor %s", *candidate.TractorID)
		}
		if v := scanResourceOverlap(state, iv, excludeID, func(j models.Job) bool {
			return j.TractorID != nil && *j.TractorID == *candidate.TractorID
		}, RuleTractorBusy, "tractorId", "tractor"); v != nil {
			return v
		}
	}

	if candidate.TrailerID != nil {
		if _, found := state.Trailers[*candidate.TrailerID]; !found {
			return violation(RuleInvalidTrailer, "trailerId", "unknown trailer %s", *candidate.TrailerID)
		}
		if v := scanResourceOverlap(state, iv, excludeID, func(j models.Job) bool {
			return j.TrailerID != nil && *j.TrailerID == *candidate.TrailerID
		}, RuleTrailerBusy, "trailerId", "trailer"); v != nil {
			return v
		}
	}

	return nil
}

// validateCrew enforces the crew-size invariant and the two-person-crew
// policy. With no tractor assigned yet, two drivers are provisionally allowed;
// the check re-runs once a tractor joins the job.
func validateCrew(state State, candidate models.Job) *RuleViolation {
	crew := len(candidate.DriverIDs)
	if crew > MaxCrew {
		return violation(RuleDriverLimitExceeded, "driverIds", "a job can carry at most %d drivers", MaxCrew)
	}
	if crew < MaxCrew {
		return nil
	}

	if candidate.TractorID != nil {
		tractor, found := state.Tractors[*candidate.TractorID]
		if !found {
			return violation(RuleInvalidTractor, "tractorId", "unknown tractor %s", *candidate.TractorID)
		}
		if !tractor.DoubleManned {
			return violation(RuleTractorNotDoubleManned, "tractorId", "tractor %s cannot carry a two-person crew", tractor.Code)
		}
	}

	for _, driverID := range candidate.DriverIDs {
		driver, found := state.Drivers[driverID]
		if !found {
			return violation(RuleInvalidDriver, "driverIds", "unknown driver %s", driverID)
		}
		if !driver.DoubleMannedEligible {
			return violation(RuleDriverNot2ManEligible, "driverIds", "driver %s is not eligible for a two-person crew", driver.Name)
		}
	}

	return nil
}

func validateDriverDays(driver *models.Driver, candidate models.Job) *RuleViolation {
	if SlotOf(candidate) == enums.SlotNight && !driver.CanNight {
		return violation(RuleDriverNoNight, "driverIds", "driver %s cannot work night shifts", driver.Name)
	}
	if refusal := DisallowedDay(driver, candidate); refusal != nil {
		if refusal.OnLeave {
			return violation(RuleDriverOnLeave, "driverIds", "driver %s is on leave on %s", driver.Name, refusal.Day)
		}
		return violation(RuleDriverNotAvailable, "driverIds", "driver %s does not work on %s", driver.Name, refusal.Day)
	}
	return nil
}

func scanDriverOverlap(state State, driver *models.Driver, iv Interval, excludeID *uuid.UUID) *RuleViolation {
	for _, other := range state.Jobs {
		if excludeID != nil && other.ID == *excludeID {
			continue
		}
		if !other.DriverIDs.Contains(driver.ID) {
			continue
		}
		otherIv, ok := ResolveInterval(TimingOf(other))
		if !ok {
			continue
		}
		if Overlaps(iv, otherIv) {
			return violation(RuleDriverBusy, "driverIds",
				"driver %s is already busy %s to %s",
				driver.Name, otherIv.Start.Format("2006-01-02 15:04"), otherIv.End.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func scanResourceOverlap(state State, iv Interval, excludeID *uuid.UUID, matches func(models.Job) bool, rule Rule, field, label string) *RuleViolation {
	for _, other := range state.Jobs {
		if excludeID != nil && other.ID == *excludeID {
			continue
		}
		if !matches(other) {
			continue
		}
		otherIv, ok := ResolveInterval(TimingOf(other))
		if !ok {
			continue
		}
		if Overlaps(iv, otherIv) {
			return violation(rule, field,
				"%s is already booked %s to %s",
				label, otherIv.Start.Format("2006-01-02 15:04"), otherIv.End.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
