/*
archive.go - Immutable monthly snapshots

PURPOSE:
  Closing a month freezes its financial picture: totals, cash reserve,
  the month's manual overrides and record counts. Once written an archive
  is never modified or deleted; re-closing the same month is rejected.

  Archives snapshot the month by OrderDate, the business date. An order
  entered in March for work dated February belongs to February's archive.

SEE ALSO:
  - aggregate.go: Produces the totals being frozen
  - service: CloseMonth drives this and owns the conflict check
*/
package crm

import (
	"sort"
	"time"
)

type MonthlyArchive struct {
	Month    MonthKey
	ClosedAt time.Time

	Totals FinancialTotals

	// Overrides is the override set that was live for this month when it
	// closed, kept for audit. The Totals above already reflect it.
	Overrides Overrides
}

// BuildArchive freezes one calendar month from raw records. The caller is
// responsible for the already-closed check.
func BuildArchive(month MonthKey, in AggregateInput, closedAt time.Time) MonthlyArchive {
	in.Period = Month(month)
	in.Now = closedAt
	return MonthlyArchive{
		Month:     month,
		ClosedAt:  closedAt,
		Totals:    Aggregate(in),
		Overrides: in.Overrides,
	}
}

// SortArchives orders archives newest month first. Month keys sort
// lexicographically because of the YYYY-MM form.
func SortArchives(archives []MonthlyArchive) {
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Month > archives[j].Month
	})
}

// FindArchive returns the archive for a month, or nil.
func FindArchive(archives []MonthlyArchive, month MonthKey) *MonthlyArchive {
	for i := range archives {
		if archives[i].Month == month {
			return &archives[i]
		}
	}
	return nil
}
