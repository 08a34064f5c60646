/*
period.go - Reporting period filters

PURPOSE:
  A Period selects the slice of the ledger a report runs over. The same
  filter drives the finance view, the dashboard and salary import, so the
  boundary rules live here once.

BOUNDARY RULES:
  - Month and half-month windows compare the record's calendar day: the
    timestamp is normalized to the start of its day before comparison.
    An order at 23:59:59.999 on the 15th is first-half; one at 00:00:00
    on the 16th is second-half.
  - Today and custom ranges compare the raw timestamp. A custom range
    spans from 00:00:00 on From's day through the last instant of To's day.
    Either bound may be open (zero time): only the bounds that are set
    constrain the range, and a fully open range matches everything.
  - Salaries carry a month key, not a timestamp. Month-shaped periods
    match by key equality; range-shaped periods test whether the first
    day of the salary month falls inside the range.

SEE ALSO:
  - aggregate.go: Applies a Period to orders, expenses and salaries
*/
package crm

import "time"

// =============================================================================
// PERIOD
// =============================================================================

type PeriodKind string

const (
	PeriodAll        PeriodKind = "all"
	PeriodToday      PeriodKind = "today"
	PeriodMonth      PeriodKind = "month"
	PeriodFirstHalf  PeriodKind = "first_half"
	PeriodSecondHalf PeriodKind = "second_half"
	PeriodCustom     PeriodKind = "custom"
)

type Period struct {
	Kind PeriodKind

	// Month selects the calendar month for PeriodMonth. The half-month
	// kinds always apply to the month containing "now".
	Month MonthKey

	// From/To bound PeriodCustom, interpreted as whole days. A zero
	// value leaves that side open.
	From time.Time
	To   time.Time
}

func AllTime() Period                 { return Period{Kind: PeriodAll} }
func Today() Period                   { return Period{Kind: PeriodToday} }
func Month(m MonthKey) Period         { return Period{Kind: PeriodMonth, Month: m} }
func FirstHalf() Period               { return Period{Kind: PeriodFirstHalf} }
func SecondHalf() Period              { return Period{Kind: PeriodSecondHalf} }
func Custom(from, to time.Time) Period { return Period{Kind: PeriodCustom, From: from, To: to} }

// ParsePeriodKind validates a kind from the outside world.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch PeriodKind(s) {
	case PeriodAll, PeriodToday, PeriodMonth, PeriodFirstHalf, PeriodSecondHalf, PeriodCustom:
		return PeriodKind(s), nil
	}
	return "", &ValidationError{Field: "period", Message: "unknown period kind: " + s}
}

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonthDay returns midnight on the last day of t's month.
func EndOfMonthDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
}

// =============================================================================
// MATCHING
// =============================================================================

// Matches reports whether a record dated at falls inside the period.
// The half-month kinds are relative to now's month.
func (p Period) Matches(at, now time.Time) bool {
	switch p.Kind {
	case PeriodAll:
		return true

	case PeriodToday:
		start := StartOfDay(now)
		end := start.AddDate(0, 0, 1)
		return !at.Before(start) && at.Before(end)

	case PeriodMonth:
		if !p.Month.Valid() {
			return false
		}
		day := StartOfDay(at)
		start := p.Month.Date()
		end := start.AddDate(0, 1, 0)
		return !day.Before(start) && day.Before(end)

	case PeriodFirstHalf:
		day := StartOfDay(at)
		start := StartOfMonth(now)
		mid := start.AddDate(0, 0, 15) // first day of the second half
		return !day.Before(start) && day.Before(mid)

	case PeriodSecondHalf:
		day := StartOfDay(at)
		start := StartOfMonth(now).AddDate(0, 0, 15)
		end := StartOfMonth(now).AddDate(0, 1, 0)
		return !day.Before(start) && day.Before(end)

	case PeriodCustom:
		if !p.From.IsZero() && at.Before(StartOfDay(p.From)) {
			return false
		}
		if !p.To.IsZero() && !at.Before(StartOfDay(p.To).AddDate(0, 0, 1)) {
			return false
		}
		return true
	}
	return false
}

// MatchesMonth reports whether a month-keyed record (a salary) falls
// inside the period. Month-shaped kinds match by key; range-shaped kinds
// test the first day of the month.
func (p Period) MatchesMonth(m MonthKey, now time.Time) bool {
	switch p.Kind {
	case PeriodAll:
		return true
	case PeriodMonth:
		return m == p.Month
	case PeriodFirstHalf, PeriodSecondHalf:
		return m == MonthOf(now)
	case PeriodToday, PeriodCustom:
		d := m.Date()
		if d.IsZero() {
			return false
		}
		return p.Matches(d, now)
	}
	return false
}

// FilterOrders returns the orders whose OrderDate the period matches,
// preserving input order.
func (p Period) FilterOrders(orders []Order, now time.Time) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if p.Matches(o.OrderDate, now) {
			out = append(out, o)
		}
	}
	return out
}

// FilterExpenses returns the expenses whose Date the period matches.
func (p Period) FilterExpenses(expenses []Expense, now time.Time) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if p.Matches(e.Date, now) {
			out = append(out, e)
		}
	}
	return out
}

// FilterSalaries returns the salaries whose Month the period matches.
func (p Period) FilterSalaries(salaries []Salary, now time.Time) []Salary {
	out := make([]Salary, 0, len(salaries))
	for _, s := range salaries {
		if p.MatchesMonth(s.Month, now) {
			out = append(out, s)
		}
	}
	return out
}
