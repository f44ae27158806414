package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
)

func testState(drivers []*models.Driver, tractors []*models.Tractor, trailers []*models.Trailer, jobs []models.Job) State {
	s := State{
		Drivers:  map[uuid.UUID]*models.Driver{},
		Tractors: map[uuid.UUID]*models.Tractor{},
		Trailers: map[uuid.UUID]*models.Trailer{},
		Jobs:     jobs,
	}
	for _, d := range drivers {
		s.Drivers[d.ID] = d
	}
	for _, tr := range tractors {
		s.Tractors[tr.ID] = tr
	}
	for _, tl := range trailers {
		s.Trailers[tl.ID] = tl
	}
	return s
}

func scheduledJob(date, start string, hours float64) models.Job {
	return models.Job{
		ID:            uuid.New(),
		Date:          strPtr(date),
		Start:         strPtr(start),
		DurationHours: f64Ptr(hours),
	}
}

func TestValidateJobDraftExempt(t *testing.T) {
	ghost := uuid.New()
	draft := models.Job{DriverIDs: dbtypes.UUIDArray{ghost, ghost, ghost}}
	if v := ValidateJob(testState(nil, nil, nil, nil), draft, nil); v != nil {
		t.Fatalf("draft jobs are exempt from validation, got %v", v)
	}
}

func TestValidateJobDoubleBookedDriver(t *testing.T) {
	driver := &models.Driver{ID: uuid.New(), Name: "Deva", CanNight: true}

	existing := scheduledJob("2025-01-10", "08:00", 4)
	existing.DriverIDs = dbtypes.UUIDArray{driver.ID}

	state := testState([]*models.Driver{driver}, nil, nil, []models.Job{existing})

	overlapping := scheduledJob("2025-01-10", "10:00", 2)
	overlapping.DriverIDs = dbtypes.UUIDArray{driver.ID}
	v := ValidateJob(state, overlapping, nil)
	if v == nil || v.Rule != RuleDriverBusy {
		t.Fatalf("expected DRIVER_BUSY, got %v", v)
	}

	touching := scheduledJob("2025-01-10", "12:00", 2)
	touching.DriverIDs = dbtypes.UUIDArray{driver.ID}
	if v := ValidateJob(state, touching, nil); v != nil {
		t.Fatalf("back-to-back jobs are legal, got %v", v)
	}
}

func TestValidateJobExcludeSelfWhenEditing(t *testing.T) {
	driver := &models.Driver{ID: uuid.New(), Name: "Evi", CanNight: true}
	existing := scheduledJob("2025-01-10", "08:00", 4)
	existing.DriverIDs = dbtypes.UUIDArray{driver.ID}

	state := testState([]*models.Driver{driver}, nil, nil, []models.Job{existing})

	edited := existing
	edited.DurationHours = f64Ptr(5)
	if v := ValidateJob(state, edited, &existing.ID); v != nil {
		t.Fatalf("editing a job must not collide with its own stored row, got %v", v)
	}
	if v := ValidateJob(state, edited, nil); v == nil || v.Rule != RuleDriverBusy {
		t.Fatalf("without exclusion the stored row collides, got %v", v)
	}
}

func TestValidateJobUnknownDriver(t *testing.T) {
	job := scheduledJob("2025-01-10", "08:00", 4)
	job.DriverIDs = dbtypes.UUIDArray{uuid.New()}
	v := ValidateJob(testState(nil, nil, nil, nil), job, nil)
	if v == nil || v.Rule != RuleInvalidDriver {
		t.Fatalf("expected INVALID_DRIVER_ID, got %v", v)
	}
}

func TestValidateJobCrewSizeCap(t *testing.T) {
	d1 := &models.Driver{ID: uuid.New(), Name: "A", DoubleMannedEligible: true}
	d2 := &models.Driver{ID: uuid.New(), Name: "B", DoubleMannedEligible: true}
	d3 := &models.Driver{ID: uuid.New(), Name: "C", DoubleMannedEligible: true}

	job := scheduledJob("2025-01-10", "08:00", 4)
	job.DriverIDs = dbtypes.UUIDArray{d1.ID, d2.ID, d3.ID}

	v := ValidateJob(testState([]*models.Driver{d1, d2, d3}, nil, nil, nil), job, nil)
	if v == nil || v.Rule != RuleDriverLimitExceeded {
		t.Fatalf("expected DRIVER_LIMIT_EXCEEDED, got %v", v)
	}
}

func TestValidateJobTractorNotDoubleManned(t *testing.T) {
	d1 := &models.Driver{ID: uuid.New(), Name: "A", DoubleMannedEligible: true}
	d2 := &models.Driver{ID: uuid.New(), Name: "B", DoubleMannedEligible: true}
	solo := &models.Tractor{ID: uuid.New(), Code: "T-1", DoubleManned: false}

	single := scheduledJob("2025-01-10", "08:00", 4)
	single.TractorID = &solo.ID
	single.DriverIDs = dbtypes.UUIDArray{d1.ID}
	state := testState([]*models.Driver{d1, d2}, []*models.Tractor{solo}, nil, nil)
	if v := ValidateJob(state, single, nil); v != nil {
		t.Fatalf("single driver on a solo tractor is fine, got %v", v)
	}

	double := single
	double.DriverIDs = dbtypes.UUIDArray{d1.ID, d2.ID}
	v := ValidateJob(state, double, nil)
	if v == nil || v.Rule != RuleTractorNotDoubleManned {
		t.Fatalf("expected TRACTOR_NOT_DOUBLE_MANNED, got %v", v)
	}
}

func TestValidateJobTwoManEligibility(t *testing.T) {
	eligible := &models.Driver{ID: uuid.New(), Name: "A", DoubleMannedEligible: true}
	ineligible := &models.Driver{ID: uuid.New(), Name: "B", DoubleMannedEligible: false}
	cab := &models.Tractor{ID: uuid.New(), Code: "T-2", DoubleManned: true}

	job := scheduledJob("2025-01-10", "08:00", 4)
	job.TractorID = &cab.ID
	job.DriverIDs = dbtypes.UUIDArray{eligible.ID, ineligible.ID}

	state := testState([]*models.Driver{eligible, ineligible}, []*models.Tractor{cab}, nil, nil)
	v := ValidateJob(state, job, nil)
	if v == nil || v.Rule != RuleDriverNot2ManEligible {
		t.Fatalf("expected DRIVER_NOT_2MAN_ELIGIBLE, got %v", v)
	}
}

func TestValidateJobTwoDriversNoTractorProvisionallyAllowed(t *testing.T) {
	d1 := &models.Driver{ID: uuid.New(), Name: "A", DoubleMannedEligible: true}
	d2 := &models.Driver{ID: uuid.New(), Name: "B", DoubleMannedEligible: true}

	job := scheduledJob("2025-01-10", "08:00", 4)
	job.DriverIDs = dbtypes.UUIDArray{d1.ID, d2.ID}

	if v := ValidateJob(testState([]*models.Driver{d1, d2}, nil, nil, nil), job, nil); v != nil {
		t.Fatalf("two drivers without a tractor are provisionally legal, got %v", v)
	}
}

func TestValidateJobTractorAndTrailerOverlap(t *testing.T) {
	tractor := &models.Tractor{ID: uuid.New(), Code: "T-3"}
	trailer := &models.Trailer{ID: uuid.New(), Code: "R-1"}

	existing := scheduledJob("2025-01-10", "08:00", 4)
	existing.TractorID = &tractor.ID
	existing.TrailerID = &trailer.ID

	state := testState(nil, []*models.Tractor{tractor}, []*models.Trailer{trailer}, []models.Job{existing})

	sameTractor := scheduledJob("2025-01-10", "10:00", 2)
	sameTractor.TractorID = &tractor.ID
	if v := ValidateJob(state, sameTractor, nil); v == nil || v.Rule != RuleTractorBusy {
		t.Fatalf("expected TRACTOR_BUSY, got %v", v)
	}

	sameTrailer := scheduledJob("2025-01-10", "10:00", 2)
	sameTrailer.TrailerID = &trailer.ID
	if v := ValidateJob(state, sameTrailer, nil); v == nil || v.Rule != RuleTrailerBusy {
		t.Fatalf("expected TRAILER_BUSY, got %v", v)
	}

	afterward := scheduledJob("2025-01-10", "12:00", 2)
	afterward.TractorID = &tractor.ID
	afterward.TrailerID = &trailer.ID
	if v := ValidateJob(state, afterward, nil); v != nil {
		t.Fatalf("touching bookings are legal, got %v", v)
	}
}

func TestValidateJobOvernightLeave(t *testing.T) {
	driver := &models.Driver{
		ID:       uuid.New(),
		Name:     "Noa",
		CanNight: true,
		Leaves:   pq.StringArray{"2025-01-11"},
	}

	job := scheduledJob("2025-01-10", "22:00", 6)
	job.DriverIDs = dbtypes.UUIDArray{driver.ID}

	v := ValidateJob(testState([]*models.Driver{driver}, nil, nil, nil), job, nil)
	if v == nil || v.Rule != RuleDriverOnLeave {
		t.Fatalf("expected DRIVER_ON_LEAVE on the spill-over day, got %v", v)
	}
}
