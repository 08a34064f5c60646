/*
commission.go - Per-manager revenue and commission

PURPOSE:
  Managers are paid a percentage of the revenue they bring in. Two related
  computations live here:

  - ManagerStats: the manager-facing dashboard numbers. Revenue is the
    manager's OWN SHARE of each order (a split order contributes only this
    manager's row), gross across paid and unpaid. Order counts collapse
    duplicate groups. Commission applies to gross revenue.

  - ImportRevenue: the payroll figure. Same per-share rule, but PAID orders
    only, over an explicit date range. The service turns it into a salary
    record via the manager's percentage.

SEE ALSO:
  - resolver.go: Group counting rules
  - service: ImportSalary uses ImportRevenue
*/
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

type ManagerStatsResult struct {
	Manager string

	// Revenue figures are the manager's own shares, gross.
	TotalRevenue  decimal.Decimal
	PaidRevenue   decimal.Decimal
	UnpaidRevenue decimal.Decimal

	// Order counts are logical: a duplicate group counts once.
	TotalOrders  int
	PaidOrders   int
	UnpaidOrders int

	// Commission = TotalRevenue * Percentage / 100.
	Percentage decimal.Decimal
	Commission decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ManagerStats computes dashboard stats for one manager over a period.
func ManagerStats(orders []Order, manager string, p Period, now time.Time, percentage decimal.Decimal) ManagerStatsResult {
	r := ManagerStatsResult{Manager: manager, Percentage: percentage}

	mine := make([]Order, 0, len(orders))
	for _, o := range p.FilterOrders(orders, now) {
		if o.Manager == manager {
			mine = append(mine, o)
		}
	}

	// Revenue per share: each physical row contributes its own price.
	for _, o := range mine {
		r.TotalRevenue = r.TotalRevenue.Add(o.Price)
		if o.IsPaid {
			r.PaidRevenue = r.PaidRevenue.Add(o.Price)
		} else {
			r.UnpaidRevenue = r.UnpaidRevenue.Add(o.Price)
		}
	}

	// Counts collapse groups. Within one manager's orders a group almost
	// always has a single member, but the rule holds regardless.
	for _, lo := range Resolve(mine) {
		r.TotalOrders++
		if lo.Paid {
			r.PaidOrders++
		} else {
			r.UnpaidOrders++
		}
	}

	r.Commission = r.TotalRevenue.Mul(percentage).Div(hundred)
	return r
}

// ImportRevenue computes the paid, per-share revenue a manager produced in
// [from, to] (whole days, inclusive). This is the payroll base.
func ImportRevenue(orders []Order, manager string, from, to time.Time) decimal.Decimal {
	p := Custom(from, to)
	now := to
	total := decimal.Zero
	for _, o := range p.FilterOrders(orders, now) {
		if o.Manager != manager || !o.IsPaid {
			continue
		}
		total = total.Add(o.Price)
	}
	return total
}
