package schedule

import (
	"testing"
	"time"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func timing(date, start string, hours float64) Timing {
	return Timing{Date: strPtr(date), Start: strPtr(start), DurationHours: f64Ptr(hours)}
}

func TestResolveIntervalComplete(t *testing.T) {
	iv, ok := ResolveInterval(timing("2025-01-10", "08:00", 4))
	if !ok {
		t.Fatal("expected interval to resolve")
	}
	wantStart := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	if !iv.Start.Equal(wantStart) {
		t.Fatalf("start %v, want %v", iv.Start, wantStart)
	}
	if !iv.End.Equal(wantStart.Add(4 * time.Hour)) {
		t.Fatalf("end %v, want %v", iv.End, wantStart.Add(4*time.Hour))
	}
}

func TestResolveIntervalIncomplete(t *testing.T) {
	tests := []struct {
		name string
		in   Timing
	}{
		{"no date", Timing{Start: strPtr("08:00"), DurationHours: f64Ptr(4)}},
		{"no start", Timing{Date: strPtr("2025-01-10"), DurationHours: f64Ptr(4)}},
		{"no duration", Timing{Date: strPtr("2025-01-10"), Start: strPtr("08:00")}},
		{"zero duration", timing("2025-01-10", "08:00", 0)},
		{"negative duration", timing("2025-01-10", "08:00", -2)},
		{"bad date", timing("10/01/2025", "08:00", 4)},
		{"bad time", timing("2025-01-10", "8am", 4)},
	}
	for _, tt := range tests {
		if _, ok := ResolveInterval(tt.in); ok {
			t.Fatalf("%s: expected unresolved interval", tt.name)
		}
	}
}

func TestOverlapsStrictHalfOpen(t *testing.T) {
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	a := Interval{Start: base, End: base.Add(4 * time.Hour)}

	touching := Interval{Start: a.End, End: a.End.Add(2 * time.Hour)}
	if Overlaps(a, touching) || Overlaps(touching, a) {
		t.Fatal("touching intervals must not overlap")
	}

	crossing := Interval{Start: base.Add(2 * time.Hour), End: base.Add(6 * time.Hour)}
	if !Overlaps(a, crossing) || !Overlaps(crossing, a) {
		t.Fatal("crossing intervals must overlap symmetrically")
	}

	contained := Interval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	if !Overlaps(a, contained) {
		t.Fatal("contained interval must overlap")
	}
}

func TestTouchedDaysOvernight(t *testing.T) {
	iv, _ := ResolveInterval(timing("2025-01-10", "22:00", 6))
	days := TouchedDays(iv)
	if len(days) != 2 || days[0] != "2025-01-10" || days[1] != "2025-01-11" {
		t.Fatalf("unexpected touched days %v", days)
	}
}

func TestTouchedDaysEndAtMidnightExclusive(t *testing.T) {
	iv, _ := ResolveInterval(timing("2025-01-10", "20:00", 4))
	days := TouchedDays(iv)
	if len(days) != 1 || days[0] != "2025-01-10" {
		t.Fatalf("job ending exactly at midnight should touch one day, got %v", days)
	}
}

func TestSegmentForDayOvernight(t *testing.T) {
	tm := timing("2025-01-10", "22:00", 6)

	first := SegmentForDay(tm, "2025-01-10")
	if first == nil {
		t.Fatal("expected a segment on the origin day")
	}
	if first.StartMinute != 22*60 || first.EndMinute != 24*60 {
		t.Fatalf("origin segment minutes %d-%d", first.StartMinute, first.EndMinute)
	}
	if first.StartsPrevDay || !first.EndsNextDay {
		t.Fatalf("origin segment flags %+v", first)
	}
	if first.DisplaySlot != enums.SlotNight {
		t.Fatalf("origin segment display slot %s", first.DisplaySlot)
	}

	second := SegmentForDay(tm, "2025-01-11")
	if second == nil {
		t.Fatal("expected a segment on the spill-over day")
	}
	if second.StartMinute != 0 || second.EndMinute != 4*60 {
		t.Fatalf("spill segment minutes %d-%d", second.StartMinute, second.EndMinute)
	}
	if !second.StartsPrevDay || second.EndsNextDay {
		t.Fatalf("spill segment flags %+v", second)
	}
	if second.DisplaySlot != enums.SlotDay {
		t.Fatalf("spill segment display slot %s (display rule, not stored slot)", second.DisplaySlot)
	}
	if second.OriginDay != "2025-01-10" || second.OriginTime != "22:00" {
		t.Fatalf("spill segment origin %s %s", second.OriginDay, second.OriginTime)
	}
	if second.DestinationDay != "2025-01-11" || second.DestinationTime != "04:00" {
		t.Fatalf("spill segment destination %s %s", second.DestinationDay, second.DestinationTime)
	}
}

func TestSegmentForDayOutsideWindow(t *testing.T) {
	if seg := SegmentForDay(timing("2025-01-10", "08:00", 4), "2025-01-11"); seg != nil {
		t.Fatalf("expected nil segment, got %+v", seg)
	}
	if seg := SegmentForDay(Timing{}, "2025-01-11"); seg != nil {
		t.Fatal("unscheduled job must yield no segment")
	}
}

func TestSlotOfDerivation(t *testing.T) {
	night := models.Job{Start: strPtr("22:00")}
	if SlotOf(night) != enums.SlotNight {
		t.Fatal("22:00 start should derive night")
	}
	earlyNight := models.Job{Start: strPtr("07:30")}
	if SlotOf(earlyNight) != enums.SlotNight {
		t.Fatal("07:30 start should derive night")
	}
	day := models.Job{Start: strPtr("08:00")}
	if SlotOf(day) != enums.SlotDay {
		t.Fatal("08:00 start should derive day")
	}
	explicit := models.Job{Start: strPtr("22:00"), Slot: enums.SlotDay}
	if SlotOf(explicit) != enums.SlotDay {
		t.Fatal("explicit slot must win over derivation")
	}
}
