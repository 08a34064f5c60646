package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vozduh/sticker-crm/crm/store"
	"github.com/vozduh/sticker-crm/service"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	svc, err := service.New(context.Background(), store.NewMemory(), log)
	require.NoError(t, err)
	return NewRouter(NewHandler(svc))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

func orderPayload() map[string]any {
	return map[string]any{
		"title":          "stickers",
		"price":          "1500.50",
		"category":       "stickers",
		"payment_method": "card",
		"is_paid":        true,
		"order_date":     "2025-03-10",
		"client_name":    "Anna",
		"client_phone":   "111",
		"manager":        "Софа",
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func TestCreateOrder_Created(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var o OrderDTO
	decodeBody(t, w, &o)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "1500.5", o.Price)
	assert.True(t, o.IsPaid)
	assert.Empty(t, o.DuplicateGroupID)
}

func TestCreateOrder_MissingTitleIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	payload := orderPayload()
	delete(payload, "title")
	w := doJSON(t, router, http.MethodPost, "/api/orders", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_MalformedPriceIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	payload := orderPayload()
	payload["price"] = "lots"
	w := doJSON(t, router, http.MethodPost, "/api/orders", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	var created OrderDTO
	decodeBody(t, w, &created)

	// Listed.
	w = doJSON(t, router, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []OrderDTO
	decodeBody(t, w, &orders)
	require.Len(t, orders, 1)

	// Edited.
	payload := orderPayload()
	payload["title"] = "holographic stickers"
	w = doJSON(t, router, http.MethodPut, "/api/orders/"+created.ID, payload)
	require.Equal(t, http.StatusOK, w.Code)
	var edited OrderDTO
	decodeBody(t, w, &edited)
	assert.Equal(t, "holographic stickers", edited.Title)
	assert.Equal(t, created.ID, edited.ID)

	// Deleted.
	w = doJSON(t, router, http.MethodDelete, "/api/orders/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSplitOrder_ToggleFlipsGroup(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders/split", map[string]any{
		"title":          "big batch",
		"category":       "stickers",
		"payment_method": "card",
		"is_paid":        false,
		"order_date":     "2025-03-10",
		"client_name":    "Anna",
		"client_phone":   "111",
		"shares": []map[string]any{
			{"manager": "Софа", "price": "600"},
			{"manager": "Лена", "price": "400"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var shares []OrderDTO
	decodeBody(t, w, &shares)
	require.Len(t, shares, 2)
	assert.Equal(t, shares[0].DuplicateGroupID, shares[1].DuplicateGroupID)

	// Toggling one share pays both.
	w = doJSON(t, router, http.MethodPost, "/api/orders/"+shares[0].ID+"/toggle-paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flipped []OrderDTO
	decodeBody(t, w, &flipped)
	require.Len(t, flipped, 2)
	for _, o := range flipped {
		assert.True(t, o.IsPaid)
	}
}

func TestSplitOrder_SingleShareIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders/split", map[string]any{
		"title":          "batch",
		"category":       "stickers",
		"payment_method": "card",
		"order_date":     "2025-03-10",
		"shares": []map[string]any{
			{"manager": "Софа", "price": "600"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// CLIENTS
// =============================================================================

func TestClients_DerivedFromOrders(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var clients []ClientDTO
	decodeBody(t, w, &clients)
	require.Len(t, clients, 1)
	assert.Equal(t, "Anna", clients[0].Name)
	assert.Equal(t, "1500.5", clients[0].TotalRevenue)
}

func TestMatchClient(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/clients/match?name=ANNA&phone=999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m ClientMatchDTO
	decodeBody(t, w, &m)
	assert.Equal(t, "name", m.Kind)
	assert.Equal(t, "Anna", m.Client.Name)
}

// =============================================================================
// FINANCE
// =============================================================================

func TestTotals_MonthPeriod(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=month&month=2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var totals TotalsDTO
	decodeBody(t, w, &totals)
	assert.Equal(t, "1500.5", totals.Revenue.Card)
	assert.Equal(t, 1, totals.OrderCount)
}

func TestTotals_CustomPeriodOpenBounds(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	// Only a lower bound: the March order is still in range.
	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=custom&from=2025-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var totals TotalsDTO
	decodeBody(t, w, &totals)
	assert.Equal(t, 1, totals.OrderCount)

	// No bounds at all: behaves like all time.
	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=custom", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &totals)
	assert.Equal(t, 1, totals.OrderCount)

	// A lower bound past the order excludes it.
	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=custom&from=2025-04-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &totals)
	assert.Equal(t, 0, totals.OrderCount)
}

func TestTotals_BadPeriodIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/finance/totals?period=month&month=march", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverride_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	value := "9000"
	w := doJSON(t, router, http.MethodPost, "/api/finance/overrides", map[string]any{
		"month":   "2025-03",
		"kind":    "revenue",
		"channel": "card",
		"value":   &value,
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/finance/totals?period=month&month=2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var totals TotalsDTO
	decodeBody(t, w, &totals)
	assert.Equal(t, "9000", totals.Revenue.Card)
}

func TestCashReserve_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/api/finance/cash-reserve", map[string]any{
		"channel": "cash",
		"value":   "250",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/finance/cash-reserve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reserve ChannelAmountsDTO
	decodeBody(t, w, &reserve)
	assert.Equal(t, "250", reserve.Cash)
	assert.Equal(t, "0", reserve.Card)
}

// =============================================================================
// SALARIES
// =============================================================================

func TestSalary_DuplicateIsConflict(t *testing.T) {
	router := newTestRouter(t)

	payload := map[string]any{
		"month":          "2025-03",
		"manager":        "Софа",
		"amount":         "500",
		"payment_source": "cash",
	}
	w := doJSON(t, router, http.MethodPost, "/api/salaries", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/salaries", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestImportSalary_EndToEnd(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/salaries/import", map[string]any{
		"manager":        "Софа",
		"from":           "2025-03-01",
		"to":             "2025-03-31",
		"payment_source": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sal SalaryDTO
	decodeBody(t, w, &sal)
	// 22% of 1500.50.
	assert.Equal(t, "330.11", sal.Amount)
	assert.Equal(t, "2025-03", sal.Month)
	assert.False(t, sal.IsPaid)
}

func TestToggleSalaryPaid(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/salaries", map[string]any{
		"month":          "2025-03",
		"manager":        "Софа",
		"amount":         "500",
		"payment_source": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var sal SalaryDTO
	decodeBody(t, w, &sal)

	w = doJSON(t, router, http.MethodPost, "/api/salaries/"+sal.ID+"/toggle-paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var paid SalaryDTO
	decodeBody(t, w, &paid)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidDate)
	_, err := time.Parse(time.RFC3339, *paid.PaidDate)
	assert.NoError(t, err)
}

// =============================================================================
// ARCHIVES
// =============================================================================

func TestCloseMonth_SecondCloseIsConflict(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/archives", map[string]any{"month": "2025-03"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/archives", map[string]any{"month": "2025-03"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The archive is retrievable.
	w = doJSON(t, router, http.MethodGet, "/api/archives/2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var arch ArchiveDTO
	decodeBody(t, w, &arch)
	assert.Equal(t, "2025-03", arch.Month)

	w = doJSON(t, router, http.MethodGet, "/api/archives/2024-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestManagers_DefaultsAndGuards(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/managers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var managers []ManagerDTO
	decodeBody(t, w, &managers)
	require.Len(t, managers, 2, "fresh install seeds two managers")

	// Delete down to one, then the guard kicks in.
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/managers/%s", managers[0].Name), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/managers/%s", managers[1].Name), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestManagers_PercentageValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/managers", map[string]any{
		"name":              "Ира",
		"salary_percentage": "150",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/managers", map[string]any{
		"name":              "Ира",
		"salary_percentage": "25",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRole_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/role", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var role map[string]string
	decodeBody(t, w, &role)
	assert.Equal(t, "manager", role["role"], "fresh install defaults to manager")

	w = doJSON(t, router, http.MethodPut, "/api/role", map[string]any{"role": "director"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/role", nil)
	decodeBody(t, w, &role)
	assert.Equal(t, "director", role["role"])

	w = doJSON(t, router, http.MethodPut, "/api/role", map[string]any{"role": "intern"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestDashboard(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/orders", orderPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/dashboard?period=month&month=2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var a AnalyticsDTO
	decodeBody(t, w, &a)
	assert.Equal(t, 1, a.TotalOrders)
	assert.Equal(t, 1, a.PaidOrders)
	assert.Equal(t, "1500.5", a.GrossRevenue)
	assert.Contains(t, a.ByManager, "Софа")
}
