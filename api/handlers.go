/*
handlers.go - HTTP API handlers for the sticker CRM

PURPOSE:
  Exposes the CRM service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the service layer.

ENDPOINTS:
  Orders:
    GET    /api/orders                   List all ledger entries
    GET    /api/orders/feed              Today/yesterday/earlier feed
    POST   /api/orders                   Create order
    POST   /api/orders/split             Create split order
    PUT    /api/orders/{id}              Edit order
    DELETE /api/orders/{id}              Delete order
    POST   /api/orders/{id}/toggle-paid  Flip paid (whole group)

  Clients:
    GET    /api/clients                  Derived registry
    GET    /api/clients/match            Fuzzy lookup by name/phone

  Finance:
    GET    /api/expenses, POST /api/expenses, DELETE /api/expenses/{id}
    GET    /api/salaries, POST /api/salaries, POST /api/salaries/import
    DELETE /api/salaries/{id}, POST /api/salaries/{id}/toggle-paid
    GET    /api/finance/totals           Period totals
    POST   /api/finance/overrides        Set/clear one override cell
    GET    /api/finance/overrides/{month}
    GET    /api/finance/cash-reserve, PUT /api/finance/cash-reserve

  Archives:
    GET    /api/archives                 Closed months, newest first
    POST   /api/archives                 Close a month
    GET    /api/archives/{month}

  Settings:
    GET/POST /api/managers, PUT/DELETE /api/managers/{name}
    GET      /api/managers/{name}/stats
    GET/POST /api/sources, DELETE /api/sources/{name}
    GET/PUT  /api/role

  Dashboard:
    GET    /api/dashboard                Director analytics

PERIOD QUERY:
  Period-scoped endpoints accept ?period=all|today|month|first_half|
  second_half|custom with ?month=YYYY-MM or ?from/?to=YYYY-MM-DD as the
  kind requires. Missing period means all time. For custom, either bound
  may be omitted for an open-ended range.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Conflict (closed month, duplicate salary, last manager)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vozduh/sticker-crm/crm"
	"github.com/vozduh/sticker-crm/service"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *service.Service
	validate *validator.Validate
}

// NewHandler creates a new handler over the service.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Service:  svc,
		validate: validator.New(),
	}
}

// decode parses the JSON body into dst and runs struct-tag validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// writeServiceError maps engine error categories to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case crm.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case crm.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case crm.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// parseDate accepts RFC3339 or a bare date.
func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &crm.ValidationError{Field: field, Message: "want RFC3339 or YYYY-MM-DD"}
	}
	return t, nil
}

// parsePeriod builds a Period from query parameters.
func parsePeriod(r *http.Request) (crm.Period, error) {
	kindStr := r.URL.Query().Get("period")
	if kindStr == "" {
		return crm.AllTime(), nil
	}
	kind, err := crm.ParsePeriodKind(kindStr)
	if err != nil {
		return crm.Period{}, err
	}

	switch kind {
	case crm.PeriodMonth:
		m := crm.MonthKey(r.URL.Query().Get("month"))
		if !m.Valid() {
			return crm.Period{}, &crm.ValidationError{Field: "month", Message: "want YYYY-MM"}
		}
		return crm.Month(m), nil
	case crm.PeriodCustom:
		// Either bound may be omitted for an open-ended range.
		var from, to time.Time
		if s := r.URL.Query().Get("from"); s != "" {
			var err error
			if from, err = parseDate("from", s); err != nil {
				return crm.Period{}, err
			}
		}
		if s := r.URL.Query().Get("to"); s != "" {
			var err error
			if to, err = parseDate("to", s); err != nil {
				return crm.Period{}, err
			}
		}
		return crm.Custom(from, to), nil
	}
	return crm.Period{Kind: kind}, nil
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns every ledger entry.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOrderDTOs(h.Service.Orders(r.Context())))
}

// GetOrderFeed returns the today/yesterday/earlier view.
func (h *Handler) GetOrderFeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toFeedDTO(h.Service.Feed(r.Context())))
}

func (h *Handler) orderInput(w http.ResponseWriter, req CreateOrderRequest) (service.OrderInput, bool) {
	price, err := parseMoney("price", req.Price)
	if err != nil {
		writeServiceError(w, err)
		return service.OrderInput{}, false
	}
	date, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		writeServiceError(w, err)
		return service.OrderInput{}, false
	}
	return service.OrderInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         price,
		Category:      req.Category,
		PaymentMethod: crm.PaymentMethod(req.PaymentMethod),
		IsPaid:        req.IsPaid,
		OrderDate:     date,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		Manager:       req.Manager,
		Source:        req.Source,
	}, true
}

// CreateOrder creates a standalone order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, ok := h.orderInput(w, req)
	if !ok {
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

// CreateSplitOrder creates one order split between managers.
func (h *Handler) CreateSplitOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateSplitOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	shares := make([]service.Share, 0, len(req.Shares))
	for _, sh := range req.Shares {
		price, err := parseMoney("shares.price", sh.Price)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		shares = append(shares, service.Share{Manager: sh.Manager, Price: price})
	}

	orders, err := h.Service.CreateSplitOrder(r.Context(), service.SplitOrderInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PaymentMethod: crm.PaymentMethod(req.PaymentMethod),
		IsPaid:        req.IsPaid,
		OrderDate:     date,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		Source:        req.Source,
		Shares:        shares,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTOs(orders))
}

// UpdateOrder replaces an order's editable fields.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, ok := h.orderInput(w, req)
	if !ok {
		return
	}
	o, err := h.Service.EditOrder(r.Context(), crm.OrderID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// DeleteOrder removes a ledger entry.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteOrder(r.Context(), crm.OrderID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePaid flips payment status for the order's whole group.
func (h *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.TogglePaid(r.Context(), crm.OrderID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns the derived registry.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients := h.Service.Clients(r.Context())
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MatchClient is the fuzzy order-entry lookup.
// GET /api/clients/match?name=...&phone=...
func (h *Handler) MatchClient(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	phone := r.URL.Query().Get("phone")
	m := h.Service.MatchClient(r.Context(), name, phone)
	if m == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, ClientMatchDTO{Client: toClientDTO(m.Client), Kind: string(m.Kind)})
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := h.Service.Expenses(r.Context())
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	e, err := h.Service.AddExpense(r.Context(), service.ExpenseInput{
		Date:          date,
		Category:      req.Category,
		Amount:        amount,
		PaymentSource: crm.PaymentMethod(req.PaymentSource),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteExpense(r.Context(), crm.ExpenseID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALARY HANDLERS
// =============================================================================

func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	salaries := h.Service.Salaries(r.Context())
	dtos := make([]SalaryDTO, len(salaries))
	for i, s := range salaries {
		dtos[i] = toSalaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	var req CreateSalaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s, err := h.Service.AddSalary(r.Context(), service.SalaryInput{
		Month:         crm.MonthKey(req.Month),
		Manager:       req.Manager,
		Amount:        amount,
		PaymentSource: crm.PaymentMethod(req.PaymentSource),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalaryDTO(s))
}

// ImportSalary records a salary computed from paid revenue.
func (h *Handler) ImportSalary(w http.ResponseWriter, r *http.Request) {
	var req ImportSalaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s, err := h.Service.ImportSalary(r.Context(), req.Manager, from, to, crm.PaymentMethod(req.PaymentSource))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalaryDTO(s))
}

func (h *Handler) DeleteSalary(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSalary(r.Context(), crm.SalaryID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleSalaryPaid(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.ToggleSalaryPaid(r.Context(), crm.SalaryID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(s))
}

// =============================================================================
// FINANCE HANDLERS
// =============================================================================

// GetTotals returns the finance view for the requested period.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTotalsDTO(h.Service.Totals(r.Context(), p)))
}

// SetOverride installs or clears one manual cell.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req SetOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	var value *decimal.Decimal
	if req.Value != nil {
		v, err := parseMoney("value", *req.Value)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		value = &v
	}
	err := h.Service.SetOverride(r.Context(), crm.MonthKey(req.Month),
		crm.OverrideKind(req.Kind), crm.PaymentMethod(req.Channel), value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOverrides returns the raw override set for one month.
func (h *Handler) GetOverrides(w http.ResponseWriter, r *http.Request) {
	month := crm.MonthKey(chi.URLParam(r, "month"))
	if !month.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid month", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.OverridesFor(r.Context(), month))
}

func (h *Handler) GetCashReserve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toChannelAmountsDTO(h.Service.CashReserve(r.Context())))
}

func (h *Handler) SetCashReserve(w http.ResponseWriter, r *http.Request) {
	var req SetCashReserveRequest
	if !h.decode(w, r, &req) {
		return
	}
	value, err := parseMoney("value", req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	reserve, err := h.Service.SetCashReserve(r.Context(), crm.PaymentMethod(req.Channel), value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelAmountsDTO(reserve))
}

// =============================================================================
// ARCHIVE HANDLERS
// =============================================================================

func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	archives := h.Service.Archives(r.Context())
	dtos := make([]ArchiveDTO, len(archives))
	for i, a := range archives {
		dtos[i] = toArchiveDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CloseMonth freezes one month. 409 when already closed.
func (h *Handler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	var req CloseMonthRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.Service.CloseMonth(r.Context(), crm.MonthKey(req.Month))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toArchiveDTO(a))
}

func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Archive(r.Context(), crm.MonthKey(chi.URLParam(r, "month")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArchiveDTO(a))
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	managers := h.Service.Managers(r.Context())
	dtos := make([]ManagerDTO, len(managers))
	for i, m := range managers {
		dtos[i] = ManagerDTO{Name: m.Name, SalaryPercentage: m.SalaryPercentage.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateManager(w http.ResponseWriter, r *http.Request) {
	var req CreateManagerRequest
	if !h.decode(w, r, &req) {
		return
	}
	pct, err := parseMoney("salary_percentage", req.SalaryPercentage)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	m, err := h.Service.AddManager(r.Context(), req.Name, pct)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ManagerDTO{Name: m.Name, SalaryPercentage: m.SalaryPercentage.String()})
}

func (h *Handler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	var req UpdateManagerRequest
	if !h.decode(w, r, &req) {
		return
	}
	pct, err := parseMoney("salary_percentage", req.SalaryPercentage)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	m, err := h.Service.SetManagerPercentage(r.Context(), chi.URLParam(r, "name"), pct)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ManagerDTO{Name: m.Name, SalaryPercentage: m.SalaryPercentage.String()})
}

func (h *Handler) DeleteManager(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteManager(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetManagerStats returns one manager's dashboard for a period.
func (h *Handler) GetManagerStats(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := h.Service.ManagerStats(r.Context(), chi.URLParam(r, "name"), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ManagerStatsDTO{
		Manager:       stats.Manager,
		TotalRevenue:  stats.TotalRevenue.String(),
		PaidRevenue:   stats.PaidRevenue.String(),
		UnpaidRevenue: stats.UnpaidRevenue.String(),
		TotalOrders:   stats.TotalOrders,
		PaidOrders:    stats.PaidOrders,
		UnpaidOrders:  stats.UnpaidOrders,
		Percentage:    stats.Percentage.String(),
		Commission:    stats.Commission.String(),
	})
}

func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.Service.Sources(r.Context())
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if !h.decode(w, r, &req) {
		return
	}
	src, err := h.Service.AddSource(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, src.Name)
}

func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSource(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"role": string(h.Service.UserRole(r.Context()))})
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Service.SetUserRole(r.Context(), crm.UserRole(req.Role)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns the director analytics for a period.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsDTO(h.Service.Analytics(r.Context(), p)))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
