/*
Package crm provides the core reconciliation engine for the sticker shop.

PURPOSE:
  This package contains the pure domain types and algorithms that turn the
  raw order ledger into every derived view the shop runs on: the client
  registry, duplicate-group resolution, period-scoped financial totals,
  manager commissions, and immutable monthly archives.

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: A ledger entry; the single source of truth for everything derived
  - PaymentMethod: Closed enum of the four money channels
  - ChannelAmounts: A money value split across the four channels
  - Expense/Salary: The two non-order record kinds that feed the aggregator
  - Typed IDs: OrderID, ClientID, ExpenseID, SalaryID

DESIGN PRINCIPLES:
  1. Derived data is never stored as truth: clients and totals are computed
  2. Precision: decimal.Decimal for all money, no floats in the core
  3. Closed channel set: aggregation over ChannelAmounts is exhaustive by
     construction, unknown payment methods are rejected at the boundary

SEE ALSO:
  - resolver.go: Collapses duplicate groups into logical orders
  - registry.go: Rebuilds the client registry from the ledger
  - aggregate.go: Period-scoped financial totals
*/
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrderID string
type ClientID string
type ExpenseID string
type SalaryID string
type GroupID string

// MonthKey is a calendar month in "YYYY-MM" form. Salaries, archives and
// overrides are keyed by month, not by timestamp.
type MonthKey string

// MonthOf returns the MonthKey for the month containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// Date returns the first day of the month, midnight local time.
// Returns the zero time for a malformed key.
func (m MonthKey) Date() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m MonthKey) Valid() bool {
	_, err := time.Parse("2006-01", string(m))
	return err == nil
}

// =============================================================================
// PAYMENT METHOD - Closed channel set
// =============================================================================

type PaymentMethod string

const (
	PayCard         PaymentMethod = "card"
	PayTerminal     PaymentMethod = "terminal"
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayCash         PaymentMethod = "cash"
)

// PaymentMethods lists every channel in canonical order. Aggregation and
// presentation iterate this slice so nothing falls through a switch.
var PaymentMethods = []PaymentMethod{PayCard, PayTerminal, PayBankTransfer, PayCash}

// ParsePaymentMethod validates a channel name from the outside world.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PayCard, PayTerminal, PayBankTransfer, PayCash:
		return PaymentMethod(s), nil
	}
	return "", &ValidationError{Field: "payment_method", Message: "unknown payment method: " + s}
}

// =============================================================================
// CHANNEL AMOUNTS - One money value per payment channel
// =============================================================================

type ChannelAmounts struct {
	Card         decimal.Decimal
	Terminal     decimal.Decimal
	BankTransfer decimal.Decimal
	Cash         decimal.Decimal
}

func (c ChannelAmounts) Get(m PaymentMethod) decimal.Decimal {
	switch m {
	case PayCard:
		return c.Card
	case PayTerminal:
		return c.Terminal
	case PayBankTransfer:
		return c.BankTransfer
	case PayCash:
		return c.Cash
	}
	return decimal.Zero
}

func (c *ChannelAmounts) Add(m PaymentMethod, v decimal.Decimal) {
	switch m {
	case PayCard:
		c.Card = c.Card.Add(v)
	case PayTerminal:
		c.Terminal = c.Terminal.Add(v)
	case PayBankTransfer:
		c.BankTransfer = c.BankTransfer.Add(v)
	case PayCash:
		c.Cash = c.Cash.Add(v)
	}
}

func (c *ChannelAmounts) Set(m PaymentMethod, v decimal.Decimal) {
	switch m {
	case PayCard:
		c.Card = v
	case PayTerminal:
		c.Terminal = v
	case PayBankTransfer:
		c.BankTransfer = v
	case PayCash:
		c.Cash = v
	}
}

// Total sums across all four channels.
func (c ChannelAmounts) Total() decimal.Decimal {
	return c.Card.Add(c.Terminal).Add(c.BankTransfer).Add(c.Cash)
}

// Sub returns c - b per channel.
func (c ChannelAmounts) Sub(b ChannelAmounts) ChannelAmounts {
	return ChannelAmounts{
		Card:         c.Card.Sub(b.Card),
		Terminal:     c.Terminal.Sub(b.Terminal),
		BankTransfer: c.BankTransfer.Sub(b.BankTransfer),
		Cash:         c.Cash.Sub(b.Cash),
	}
}

// =============================================================================
// ORDER - The ledger entry everything else is derived from
// =============================================================================

type Order struct {
	ID            OrderID
	Title         string
	Description   string
	Price         decimal.Decimal
	Category      string
	PaymentMethod PaymentMethod
	IsPaid        bool

	// OrderDate is the business date: period filters, archives and
	// commissions key off it. CreatedAt is only used for the
	// today/yesterday feed grouping.
	OrderDate time.Time
	CreatedAt time.Time

	ClientName  string
	ClientPhone string
	Manager     string
	Source      string

	// DuplicateGroupID links the shares of a split order. Empty for
	// standalone orders. Members of one group are one logical order.
	DuplicateGroupID GroupID
}

// InGroup reports whether the order belongs to a duplicate group.
func (o Order) InGroup() bool { return o.DuplicateGroupID != "" }

// =============================================================================
// EXPENSE / SALARY
// =============================================================================

type Expense struct {
	ID            ExpenseID
	Date          time.Time
	Category      string
	Amount        decimal.Decimal
	PaymentSource PaymentMethod
}

// Salary is a payroll record. At most one record may exist per
// (Month, Manager) pair.
type Salary struct {
	ID            SalaryID
	Month         MonthKey
	Manager       string
	Amount        decimal.Decimal
	IsPaid        bool
	PaidDate      *time.Time
	PaymentSource PaymentMethod
}

// =============================================================================
// CLIENT - Derived registry entry, never edited directly
// =============================================================================

type Client struct {
	ID            ClientID
	Name          string
	Phone         string
	Manager       string
	Source        string
	OrderIDs      []OrderID
	CreatedAt     time.Time // earliest contributing OrderDate
	LastOrderDate time.Time
	TotalOrders   int             // logical orders, groups count once
	TotalRevenue  decimal.Decimal // gross: paid and unpaid alike
}

// =============================================================================
// SETTINGS - Managers, order sources, role
// =============================================================================

type Manager struct {
	Name             string
	SalaryPercentage decimal.Decimal // commission, in (0, 100]
}

type OrderSource struct {
	Name string
}

type UserRole string

const (
	RoleDirector UserRole = "director"
	RoleManager  UserRole = "manager"
)
