/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Monetary values travel as strings ("1500.00") to keep decimal precision.
  Request DTOs parse them through decimal.NewFromString.

VALIDATION:
  Request structs carry validator tags for shape checks (required fields,
  formats). Business rules stay in the service; the tags only reject
  obviously malformed payloads early.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vozduh/sticker-crm/crm"
	"github.com/vozduh/sticker-crm/service"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Price            string `json:"price"`
	Category         string `json:"category"`
	PaymentMethod    string `json:"payment_method"`
	IsPaid           bool   `json:"is_paid"`
	OrderDate        string `json:"order_date"`
	CreatedAt        string `json:"created_at"`
	ClientName       string `json:"client_name,omitempty"`
	ClientPhone      string `json:"client_phone,omitempty"`
	Manager          string `json:"manager,omitempty"`
	Source           string `json:"source,omitempty"`
	DuplicateGroupID string `json:"duplicate_group_id,omitempty"`
}

// CreateOrderRequest is the request to create (or edit) an order.
type CreateOrderRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Price         string `json:"price" validate:"required"`
	Category      string `json:"category" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	IsPaid        bool   `json:"is_paid"`
	OrderDate     string `json:"order_date" validate:"required"`
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	Manager       string `json:"manager"`
	Source        string `json:"source"`
}

// ShareRequest is one manager's part of a split order.
type ShareRequest struct {
	Manager string `json:"manager" validate:"required"`
	Price   string `json:"price" validate:"required"`
}

// CreateSplitOrderRequest creates one order split between managers.
type CreateSplitOrderRequest struct {
	Title         string         `json:"title" validate:"required"`
	Description   string         `json:"description"`
	Category      string         `json:"category" validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
	IsPaid        bool           `json:"is_paid"`
	OrderDate     string         `json:"order_date" validate:"required"`
	ClientName    string         `json:"client_name"`
	ClientPhone   string         `json:"client_phone"`
	Source        string         `json:"source"`
	Shares        []ShareRequest `json:"shares" validate:"required,min=2,dive"`
}

// OrderFeedDTO groups orders by entry day.
type OrderFeedDTO struct {
	Today     []OrderDTO `json:"today"`
	Yesterday []OrderDTO `json:"yesterday"`
	Earlier   []OrderDTO `json:"earlier"`
}

// ClientDTO represents a derived registry entry.
type ClientDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Manager       string   `json:"manager,omitempty"`
	Source        string   `json:"source,omitempty"`
	OrderIDs      []string `json:"order_ids"`
	CreatedAt     string   `json:"created_at"`
	LastOrderDate string   `json:"last_order_date"`
	TotalOrders   int      `json:"total_orders"`
	TotalRevenue  string   `json:"total_revenue"`
}

// ClientMatchDTO is the order-entry lookup result.
type ClientMatchDTO struct {
	Client ClientDTO `json:"client"`
	Kind   string    `json:"kind"` // both | name | phone
}

// ExpenseDTO represents an expense record.
type ExpenseDTO struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	PaymentSource string `json:"payment_source"`
}

// CreateExpenseRequest is the request to record an expense.
type CreateExpenseRequest struct {
	Date          string `json:"date" validate:"required"`
	Category      string `json:"category" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	PaymentSource string `json:"payment_source" validate:"required"`
}

// SalaryDTO represents a payroll record.
type SalaryDTO struct {
	ID            string  `json:"id"`
	Month         string  `json:"month"`
	Manager       string  `json:"manager"`
	Amount        string  `json:"amount"`
	IsPaid        bool    `json:"is_paid"`
	PaidDate      *string `json:"paid_date,omitempty"`
	PaymentSource string  `json:"payment_source"`
}

// CreateSalaryRequest is the request to record a salary.
type CreateSalaryRequest struct {
	Month         string `json:"month" validate:"required"`
	Manager       string `json:"manager" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	PaymentSource string `json:"payment_source" validate:"required"`
}

// ImportSalaryRequest computes a salary from a manager's paid revenue.
type ImportSalaryRequest struct {
	Manager       string `json:"manager" validate:"required"`
	From          string `json:"from" validate:"required"`
	To            string `json:"to" validate:"required"`
	PaymentSource string `json:"payment_source" validate:"required"`
}

// ChannelAmountsDTO is a money value split across the four channels.
type ChannelAmountsDTO struct {
	Card         string `json:"card"`
	Terminal     string `json:"terminal"`
	BankTransfer string `json:"bank_transfer"`
	Cash         string `json:"cash"`
}

// TotalsDTO is the finance view for one period.
type TotalsDTO struct {
	Revenue     ChannelAmountsDTO `json:"revenue"`
	Expenses    ChannelAmountsDTO `json:"expenses"`
	Salaries    ChannelAmountsDTO `json:"salaries"`
	CashReserve ChannelAmountsDTO `json:"cash_reserve"`
	NetProfit   ChannelAmountsDTO `json:"net_profit"`

	TotalRevenue   string `json:"total_revenue"`
	TotalExpenses  string `json:"total_expenses"`
	TotalSalaries  string `json:"total_salaries"`
	TotalNetProfit string `json:"total_net_profit"`

	OrderCount   int `json:"order_count"`
	ExpenseCount int `json:"expense_count"`
	SalaryCount  int `json:"salary_count"`
}

// SetOverrideRequest installs or clears one manual override cell.
type SetOverrideRequest struct {
	Month   string  `json:"month" validate:"required"`
	Kind    string  `json:"kind" validate:"required"`    // revenue | expenses | salaries
	Channel string  `json:"channel" validate:"required"` // card | terminal | bank_transfer | cash
	Value   *string `json:"value"`                       // null clears the override
}

// SetCashReserveRequest sets the reserve for one channel.
type SetCashReserveRequest struct {
	Channel string `json:"channel" validate:"required"`
	Value   string `json:"value" validate:"required"`
}

// ArchiveDTO is one frozen month.
type ArchiveDTO struct {
	Month    string    `json:"month"`
	ClosedAt string    `json:"closed_at"`
	Totals   TotalsDTO `json:"totals"`
}

// CloseMonthRequest closes one month.
type CloseMonthRequest struct {
	Month string `json:"month" validate:"required"`
}

// ManagerDTO represents a manager with commission rate.
type ManagerDTO struct {
	Name             string `json:"name"`
	SalaryPercentage string `json:"salary_percentage"`
}

// CreateManagerRequest adds a manager.
type CreateManagerRequest struct {
	Name             string `json:"name" validate:"required"`
	SalaryPercentage string `json:"salary_percentage" validate:"required"`
}

// UpdateManagerRequest changes a manager's commission rate.
type UpdateManagerRequest struct {
	SalaryPercentage string `json:"salary_percentage" validate:"required"`
}

// CreateSourceRequest adds an order source.
type CreateSourceRequest struct {
	Name string `json:"name" validate:"required"`
}

// SetRoleRequest changes the stored UI role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=director manager"`
}

// ManagerStatsDTO is the manager dashboard.
type ManagerStatsDTO struct {
	Manager       string `json:"manager"`
	TotalRevenue  string `json:"total_revenue"`
	PaidRevenue   string `json:"paid_revenue"`
	UnpaidRevenue string `json:"unpaid_revenue"`
	TotalOrders   int    `json:"total_orders"`
	PaidOrders    int    `json:"paid_orders"`
	UnpaidOrders  int    `json:"unpaid_orders"`
	Percentage    string `json:"percentage"`
	Commission    string `json:"commission"`
}

// BreakdownEntryDTO is one bucket of a dashboard breakdown.
type BreakdownEntryDTO struct {
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}

// AnalyticsDTO is the director dashboard.
type AnalyticsDTO struct {
	TotalOrders    int                          `json:"total_orders"`
	PaidOrders     int                          `json:"paid_orders"`
	UnpaidOrders   int                          `json:"unpaid_orders"`
	PaidConversion string                       `json:"paid_conversion"`
	GrossRevenue   string                       `json:"gross_revenue"`
	PaidRevenue    string                       `json:"paid_revenue"`
	AverageCheck   string                       `json:"average_check"`
	ByCategory     map[string]BreakdownEntryDTO `json:"by_category"`
	ByManager      map[string]BreakdownEntryDTO `json:"by_manager"`
	BySource       map[string]BreakdownEntryDTO `json:"by_source"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toOrderDTO(o crm.Order) OrderDTO {
	return OrderDTO{
		ID:               string(o.ID),
		Title:            o.Title,
		Description:      o.Description,
		Price:            o.Price.String(),
		Category:         o.Category,
		PaymentMethod:    string(o.PaymentMethod),
		IsPaid:           o.IsPaid,
		OrderDate:        o.OrderDate.Format(time.RFC3339),
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		ClientName:       o.ClientName,
		ClientPhone:      o.ClientPhone,
		Manager:          o.Manager,
		Source:           o.Source,
		DuplicateGroupID: string(o.DuplicateGroupID),
	}
}

func toOrderDTOs(orders []crm.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	return dtos
}

func toClientDTO(c crm.Client) ClientDTO {
	ids := make([]string, len(c.OrderIDs))
	for i, id := range c.OrderIDs {
		ids[i] = string(id)
	}
	return ClientDTO{
		ID:            string(c.ID),
		Name:          c.Name,
		Phone:         c.Phone,
		Manager:       c.Manager,
		Source:        c.Source,
		OrderIDs:      ids,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		LastOrderDate: c.LastOrderDate.Format(time.RFC3339),
		TotalOrders:   c.TotalOrders,
		TotalRevenue:  c.TotalRevenue.String(),
	}
}

func toExpenseDTO(e crm.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            string(e.ID),
		Date:          e.Date.Format(time.RFC3339),
		Category:      e.Category,
		Amount:        e.Amount.String(),
		PaymentSource: string(e.PaymentSource),
	}
}

func toSalaryDTO(s crm.Salary) SalaryDTO {
	dto := SalaryDTO{
		ID:            string(s.ID),
		Month:         string(s.Month),
		Manager:       s.Manager,
		Amount:        s.Amount.String(),
		IsPaid:        s.IsPaid,
		PaymentSource: string(s.PaymentSource),
	}
	if s.PaidDate != nil {
		d := s.PaidDate.Format(time.RFC3339)
		dto.PaidDate = &d
	}
	return dto
}

func toChannelAmountsDTO(c crm.ChannelAmounts) ChannelAmountsDTO {
	return ChannelAmountsDTO{
		Card:         c.Card.String(),
		Terminal:     c.Terminal.String(),
		BankTransfer: c.BankTransfer.String(),
		Cash:         c.Cash.String(),
	}
}

func toTotalsDTO(t crm.FinancialTotals) TotalsDTO {
	return TotalsDTO{
		Revenue:        toChannelAmountsDTO(t.Revenue),
		Expenses:       toChannelAmountsDTO(t.Expenses),
		Salaries:       toChannelAmountsDTO(t.Salaries),
		CashReserve:    toChannelAmountsDTO(t.CashReserve),
		NetProfit:      toChannelAmountsDTO(t.NetProfit),
		TotalRevenue:   t.TotalRevenue.String(),
		TotalExpenses:  t.TotalExpenses.String(),
		TotalSalaries:  t.TotalSalaries.String(),
		TotalNetProfit: t.TotalNetProfit.String(),
		OrderCount:     t.OrderCount,
		ExpenseCount:   t.ExpenseCount,
		SalaryCount:    t.SalaryCount,
	}
}

func toArchiveDTO(a crm.MonthlyArchive) ArchiveDTO {
	return ArchiveDTO{
		Month:    string(a.Month),
		ClosedAt: a.ClosedAt.Format(time.RFC3339),
		Totals:   toTotalsDTO(a.Totals),
	}
}

func toFeedDTO(f service.OrderFeed) OrderFeedDTO {
	return OrderFeedDTO{
		Today:     toOrderDTOs(f.Today),
		Yesterday: toOrderDTOs(f.Yesterday),
		Earlier:   toOrderDTOs(f.Earlier),
	}
}

func toAnalyticsDTO(a crm.Analytics) AnalyticsDTO {
	conv := func(m map[string]crm.BreakdownEntry) map[string]BreakdownEntryDTO {
		out := make(map[string]BreakdownEntryDTO, len(m))
		for k, v := range m {
			out[k] = BreakdownEntryDTO{Orders: v.Orders, Revenue: v.Revenue.String()}
		}
		return out
	}
	return AnalyticsDTO{
		TotalOrders:    a.TotalOrders,
		PaidOrders:     a.PaidOrders,
		UnpaidOrders:   a.UnpaidOrders,
		PaidConversion: a.PaidConversion.StringFixed(2),
		GrossRevenue:   a.GrossRevenue.String(),
		PaidRevenue:    a.PaidRevenue.String(),
		AverageCheck:   a.AverageCheck.StringFixed(2),
		ByCategory:     conv(a.ByCategory),
		ByManager:      conv(a.ByManager),
		BySource:       conv(a.BySource),
	}
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &crm.ValidationError{Field: field, Message: "want a decimal number"}
	}
	return d, nil
}
