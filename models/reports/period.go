package reports

import "time"

// ReportingPeriod is a contiguous [Start, End] date window of length Days.
// asOf is passed in explicitly (never read from the wall clock here) so the
// same report is reproducible for a fixed date.
type ReportingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// NewReportingPeriod builds the current window [asOf - days, asOf],
// truncated to calendar dates in UTC.
func NewReportingPeriod(asOf time.Time, days int) ReportingPeriod {
	end := truncateToDate(asOf)
	return ReportingPeriod{
		Start: end.AddDate(0, 0, -days),
		End:   end,
		Days:  days,
	}
}

// Previous returns the equal-length window immediately preceding p.
// Invariant: Previous().End is the day before p.Start, so the two windows
// never overlap.
func (p ReportingPeriod) Previous() ReportingPeriod {
	end := p.Start.AddDate(0, 0, -1)
	return ReportingPeriod{
		Start: end.AddDate(0, 0, -p.Days),
		End:   end,
		Days:  p.Days,
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
