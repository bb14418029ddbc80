package reports

import (
	"testing"
	"time"
)

func TestNewReportingPeriod_WindowBounds(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	p := NewReportingPeriod(asOf, 30)

	if !p.End.Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v, want 2026-08-28", p.End)
	}
	if !p.Start.Equal(time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v, want 2026-07-29", p.Start)
	}
	if p.Days != 30 {
		t.Fatalf("days = %d, want 30", p.Days)
	}
}

func TestNewReportingPeriod_TruncatesToUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+6:30", 6*3600+1800)
	asOf := time.Date(2026, 8, 29, 1, 0, 0, 0, loc) // 2026-08-28 18:30 UTC
	p := NewReportingPeriod(asOf, 7)

	if !p.End.Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v, want the UTC calendar date 2026-08-28", p.End)
	}
}

func TestPrevious_AdjacentEqualLengthNoOverlap(t *testing.T) {
	for _, days := range []int{7, 30, 90, 365} {
		asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
		current := NewReportingPeriod(asOf, days)
		previous := current.Previous()

		if !previous.End.Equal(current.Start.AddDate(0, 0, -1)) {
			t.Fatalf("days=%d: previous end %v, want day before current start %v", days, previous.End, current.Start)
		}
		if previous.End.Sub(previous.Start) != current.End.Sub(current.Start) {
			t.Fatalf("days=%d: previous span %v != current span %v", days, previous.End.Sub(previous.Start), current.End.Sub(current.Start))
		}
		if !previous.End.Before(current.Start) {
			t.Fatalf("days=%d: windows overlap (previous end %v, current start %v)", days, previous.End, current.Start)
		}
		if previous.Days != days {
			t.Fatalf("days=%d: previous days = %d", days, previous.Days)
		}
	}
}
