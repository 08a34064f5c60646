/*
aggregate.go - Period-scoped financial totals

PURPOSE:
  One pure function computes every number the finance view and the monthly
  archive show: revenue, expenses, salaries, cash reserve and net profit,
  each split across the four payment channels.

PIPELINE:
  1. Period-filter orders (by OrderDate), expenses (by Date) and salaries
     (by month key).
  2. Resolve duplicate groups, THEN drop unpaid logical orders. The order
     matters: a group with any unpaid share is excluded whole, and a paid
     group contributes its full summed price exactly once.
  3. Bucket paid revenue by payment method, expenses and salaries by
     payment source. Salaries count whether paid out or not.
  4. Apply per-channel manual overrides: an override REPLACES the computed
     channel sum, it does not add to it.
  5. Net profit per channel = revenue - expenses - salaries - cash reserve.
  6. Grand totals are sums across the four channels, so the reserve flows
     into the total net profit.

SEE ALSO:
  - resolver.go: Step 2
  - period.go: Step 1
  - archive.go: Snapshots these totals at month close
*/
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERRIDES
// =============================================================================

// ChannelOverrides holds optional manual replacements per channel.
// Nil means "use the computed value".
type ChannelOverrides struct {
	Card         *decimal.Decimal
	Terminal     *decimal.Decimal
	BankTransfer *decimal.Decimal
	Cash         *decimal.Decimal
}

func (o ChannelOverrides) get(m PaymentMethod) *decimal.Decimal {
	switch m {
	case PayCard:
		return o.Card
	case PayTerminal:
		return o.Terminal
	case PayBankTransfer:
		return o.BankTransfer
	case PayCash:
		return o.Cash
	}
	return nil
}

// Set installs an override for one channel. A nil value clears it.
func (o *ChannelOverrides) Set(m PaymentMethod, v *decimal.Decimal) {
	switch m {
	case PayCard:
		o.Card = v
	case PayTerminal:
		o.Terminal = v
	case PayBankTransfer:
		o.BankTransfer = v
	case PayCash:
		o.Cash = v
	}
}

// Apply replaces computed channel sums with overridden ones.
func (o ChannelOverrides) Apply(computed ChannelAmounts) ChannelAmounts {
	out := computed
	for _, m := range PaymentMethods {
		if v := o.get(m); v != nil {
			out.Set(m, *v)
		}
	}
	return out
}

// IsEmpty reports whether no channel is overridden.
func (o ChannelOverrides) IsEmpty() bool {
	return o.Card == nil && o.Terminal == nil && o.BankTransfer == nil && o.Cash == nil
}

// Overrides bundles the three override kinds a month can carry.
type Overrides struct {
	Revenue  ChannelOverrides
	Expenses ChannelOverrides
	Salaries ChannelOverrides
}

type OverrideKind string

const (
	OverrideRevenue  OverrideKind = "revenue"
	OverrideExpenses OverrideKind = "expenses"
	OverrideSalaries OverrideKind = "salaries"
)

func ParseOverrideKind(s string) (OverrideKind, error) {
	switch OverrideKind(s) {
	case OverrideRevenue, OverrideExpenses, OverrideSalaries:
		return OverrideKind(s), nil
	}
	return "", &ValidationError{Field: "kind", Message: "unknown override kind: " + s}
}

// IsEmpty reports whether no override is set at all.
func (o Overrides) IsEmpty() bool {
	return o.Revenue.IsEmpty() && o.Expenses.IsEmpty() && o.Salaries.IsEmpty()
}

// =============================================================================
// AGGREGATION
// =============================================================================

type AggregateInput struct {
	Orders   []Order
	Expenses []Expense
	Salaries []Salary

	Period Period
	Now    time.Time

	Overrides   Overrides
	CashReserve ChannelAmounts
}

// FinancialTotals is the full result: every channel-split figure plus the
// cross-channel grand totals and record counts carried into archives.
type FinancialTotals struct {
	Revenue     ChannelAmounts
	Expenses    ChannelAmounts
	Salaries    ChannelAmounts
	CashReserve ChannelAmounts
	NetProfit   ChannelAmounts

	TotalRevenue   decimal.Decimal
	TotalExpenses  decimal.Decimal
	TotalSalaries  decimal.Decimal
	TotalNetProfit decimal.Decimal

	OrderCount   int // logical orders, paid only
	ExpenseCount int
	SalaryCount  int
}

// Aggregate computes period totals from raw records. Pure: callers pass
// state in, nothing is read or written anywhere.
func Aggregate(in AggregateInput) FinancialTotals {
	var t FinancialTotals

	// Orders: filter by period, resolve groups, keep fully-paid logical
	// orders only.
	resolved := Resolve(in.Period.FilterOrders(in.Orders, in.Now))
	for _, lo := range resolved {
		if !lo.Paid {
			continue
		}
		t.Revenue.Add(lo.Representative.PaymentMethod, lo.Price)
		t.OrderCount++
	}

	for _, e := range in.Period.FilterExpenses(in.Expenses, in.Now) {
		t.Expenses.Add(e.PaymentSource, e.Amount)
		t.ExpenseCount++
	}

	for _, s := range in.Period.FilterSalaries(in.Salaries, in.Now) {
		t.Salaries.Add(s.PaymentSource, s.Amount)
		t.SalaryCount++
	}

	t.Revenue = in.Overrides.Revenue.Apply(t.Revenue)
	t.Expenses = in.Overrides.Expenses.Apply(t.Expenses)
	t.Salaries = in.Overrides.Salaries.Apply(t.Salaries)
	t.CashReserve = in.CashReserve

	t.NetProfit = t.Revenue.Sub(t.Expenses).Sub(t.Salaries).Sub(t.CashReserve)

	t.TotalRevenue = t.Revenue.Total()
	t.TotalExpenses = t.Expenses.Total()
	t.TotalSalaries = t.Salaries.Total()
	t.TotalNetProfit = t.NetProfit.Total()
	return t
}
