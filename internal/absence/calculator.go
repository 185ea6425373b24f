// Package absence implements the Home Office absence arithmetic behind the
// citizenship eligibility rules: at most 90 days outside the UK in the 12
// months before applying, at most 450 days in the 5 years before applying,
// and physical presence in the UK on the day exactly 5 years plus 1 day
// before the application date. Only whole days abroad count: the departure
// and return days themselves are not absences.
package absence

import (
	"errors"
	"time"
)

// ErrEndBeforeStart is returned when a trip's return date precedes its
// departure date.
var ErrEndBeforeStart = errors.New("trip end date cannot be before start date")

// Trip represents a period outside the UK.
type Trip struct {
	Start time.Time // date the user left the UK
	End   time.Time // date the user returned to the UK
	Note  string
}

// NewTrip builds a validated trip with both dates normalized to midnight
// UTC. A trip may start and end on the same day.
func NewTrip(start, end time.Time, note string) (Trip, error) {
	start, end = Date(start), Date(end)
	if end.Before(start) {
		return Trip{}, ErrEndBeforeStart
	}
	return Trip{Start: start, End: end, Note: note}, nil
}

// FullAbsenceDays returns the number of whole days abroad for this trip,
// i.e. the days in [start+1, end-1]. Same-day and overnight trips count
// zero.
func (t Trip) FullAbsenceDays() int {
	absStart := t.Start.AddDate(0, 0, 1)
	absEnd := t.End.AddDate(0, 0, -1)
	if absEnd.Before(absStart) {
		return 0
	}
	return daysBetween(absStart, absEnd) + 1
}

// Policy holds the absence limits an application is checked against. The
// standard naturalisation limits are 90 days over 12 months and 450 days
// over 5 years; the Home Office applies discretion slightly above those.
type Policy struct {
	MaxTwelveMonthDays int `json:"max_twelve_month_days" yaml:"max_twelve_month_days"`
	MaxFiveYearDays    int `json:"max_five_year_days" yaml:"max_five_year_days"`
	SearchYears        int `json:"search_years" yaml:"search_years"`
}

// DefaultPolicy returns the standard naturalisation limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxTwelveMonthDays: 90,
		MaxFiveYearDays:    450,
		SearchYears:        10,
	}
}

// CountAbsentDays counts full absence days within the inclusive window
// [winStart, winEnd]. Each trip contributes the overlap of its own
// [start+1, end-1] range with the window.
func CountAbsentDays(trips []Trip, winStart, winEnd time.Time) int {
	if winEnd.Before(winStart) {
		return 0
	}

	total := 0
	for _, trip := range trips {
		absStart := trip.Start.AddDate(0, 0, 1)
		absEnd := trip.End.AddDate(0, 0, -1)
		if absEnd.Before(absStart) {
			continue // no full absence days
		}

		oStart, oEnd, ok := overlap(winStart, winEnd, absStart, absEnd)
		if ok {
			total += daysBetween(oStart, oEnd) + 1
		}
	}
	return total
}

// overlap returns the inclusive intersection of two date ranges.
func overlap(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time, bool) {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// IsFullAbsenceDay reports whether d is a whole day abroad for any trip.
func IsFullAbsenceDay(trips []Trip, d time.Time) bool {
	for _, trip := range trips {
		absStart := trip.Start.AddDate(0, 0, 1)
		absEnd := trip.End.AddDate(0, 0, -1)
		if !d.Before(absStart) && !d.After(absEnd) {
			return true
		}
	}
	return false
}

// CandidateCheck is the outcome of testing one application date against a
// policy.
type CandidateCheck struct {
	CandidateDate         time.Time `json:"candidate_date"`
	Days12Months          int       `json:"days_12_months"`
	Days5Years            int       `json:"days_5_years"`
	PresenceDate          time.Time `json:"presence_date_5y"`
	PresentOnPresenceDate bool      `json:"present_on_presence_date"`
	Meets12MonthRule      bool      `json:"meets_12m_rule"`
	Meets5YearRule        bool      `json:"meets_5y_rule"`
	FullyEligible         bool      `json:"fully_eligible"`
}

// CheckCandidate evaluates one candidate application date.
//
// Guide AN (October 2025) example: an application received on 05/01/2022
// requires presence in the UK on 06/01/2017, i.e. the presence test date is
// candidate minus 5 years plus 1 day.
func CheckCandidate(trips []Trip, candidate time.Time, p Policy) CandidateCheck {
	candidate = Date(candidate)

	// 12-month window: [candidate - 1y, candidate - 1 day]
	start12m := AddYears(candidate, -1)
	end12m := candidate.AddDate(0, 0, -1)

	// 5-year window: [candidate - 5y, candidate - 1 day]
	start5y := AddYears(candidate, -5)
	end5y := candidate.AddDate(0, 0, -1)

	days12m := CountAbsentDays(trips, start12m, end12m)
	days5y := CountAbsentDays(trips, start5y, end5y)

	presenceDate := start5y.AddDate(0, 0, 1)
	present := !IsFullAbsenceDay(trips, presenceDate)

	meets12m := days12m <= p.MaxTwelveMonthDays
	meets5y := days5y <= p.MaxFiveYearDays

	return CandidateCheck{
		CandidateDate:         candidate,
		Days12Months:          days12m,
		Days5Years:            days5y,
		PresenceDate:          presenceDate,
		PresentOnPresenceDate: present,
		Meets12MonthRule:      meets12m,
		Meets5YearRule:        meets5y,
		FullyEligible:         meets12m && meets5y && present,
	}
}

// FindEarliestApplicationDate scans forward day by day from today, up to
// today plus the policy's search horizon, and returns the first fully
// eligible candidate. ok is false when no date within the horizon
// qualifies.
func FindEarliestApplicationDate(trips []Trip, today time.Time, p Policy) (CandidateCheck, bool) {
	today = Date(today)
	maxDate := AddYears(today, p.SearchYears)

	for current := today; !current.After(maxDate); current = current.AddDate(0, 0, 1) {
		result := CheckCandidate(trips, current, p)
		if result.FullyEligible {
			return result, true
		}
	}

	return CandidateCheck{}, false
}
