/*
analytics.go - Dashboard breakdowns

PURPOSE:
  The director dashboard view: logical order counts, paid conversion,
  average check and revenue broken down by category, manager and source.
  All figures run on resolved logical orders so split orders never double
  count, and revenue here is gross unless named otherwise.
*/
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

type BreakdownEntry struct {
	Orders  int
	Revenue decimal.Decimal
}

type Analytics struct {
	TotalOrders  int
	PaidOrders   int
	UnpaidOrders int

	// PaidConversion is PaidOrders / TotalOrders as a percentage,
	// zero when there are no orders.
	PaidConversion decimal.Decimal

	GrossRevenue decimal.Decimal
	PaidRevenue  decimal.Decimal

	// AverageCheck is gross revenue over logical orders.
	AverageCheck decimal.Decimal

	ByCategory map[string]BreakdownEntry
	ByManager  map[string]BreakdownEntry
	BySource   map[string]BreakdownEntry
}

// Analyze computes dashboard figures for one period.
func Analyze(orders []Order, p Period, now time.Time) Analytics {
	a := Analytics{
		ByCategory: make(map[string]BreakdownEntry),
		ByManager:  make(map[string]BreakdownEntry),
		BySource:   make(map[string]BreakdownEntry),
	}

	for _, lo := range Resolve(p.FilterOrders(orders, now)) {
		a.TotalOrders++
		a.GrossRevenue = a.GrossRevenue.Add(lo.Price)
		if lo.Paid {
			a.PaidOrders++
			a.PaidRevenue = a.PaidRevenue.Add(lo.Price)
		} else {
			a.UnpaidOrders++
		}

		o := lo.Representative
		bump(a.ByCategory, o.Category, lo.Price)
		bump(a.ByManager, o.Manager, lo.Price)
		bump(a.BySource, o.Source, lo.Price)
	}

	if a.TotalOrders > 0 {
		n := decimal.NewFromInt(int64(a.TotalOrders))
		a.PaidConversion = decimal.NewFromInt(int64(a.PaidOrders)).Mul(hundred).Div(n)
		a.AverageCheck = a.GrossRevenue.Div(n)
	}
	return a
}

func bump(m map[string]BreakdownEntry, key string, price decimal.Decimal) {
	if key == "" {
		return
	}
	e := m[key]
	e.Orders++
	e.Revenue = e.Revenue.Add(price)
	m[key] = e
}
