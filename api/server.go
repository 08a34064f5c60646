/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/orders/*      Order ledger
  /api/clients/*     Derived registry and fuzzy match
  /api/expenses/*    Expense records
  /api/salaries/*    Payroll records
  /api/finance/*     Totals, overrides, cash reserve
  /api/archives/*    Month close and history
  /api/managers/*    Manager settings and stats
  /api/sources/*     Order source settings
  /api/role          Stored UI role
  /api/dashboard     Director analytics

SECURITY NOTE:
  No authentication middleware. Single-desk deployment on a trusted host.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/feed", h.GetOrderFeed)
			r.Post("/", h.CreateOrder)
			r.Post("/split", h.CreateSplitOrder)
			r.Put("/{id}", h.UpdateOrder)
			r.Delete("/{id}", h.DeleteOrder)
			r.Post("/{id}/toggle-paid", h.TogglePaid)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Get("/match", h.MatchClient)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/salaries", func(r chi.Router) {
			r.Get("/", h.ListSalaries)
			r.Post("/", h.CreateSalary)
			r.Post("/import", h.ImportSalary)
			r.Delete("/{id}", h.DeleteSalary)
			r.Post("/{id}/toggle-paid", h.ToggleSalaryPaid)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Get("/totals", h.GetTotals)
			r.Post("/overrides", h.SetOverride)
			r.Get("/overrides/{month}", h.GetOverrides)
			r.Get("/cash-reserve", h.GetCashReserve)
			r.Put("/cash-reserve", h.SetCashReserve)
		})

		r.Route("/archives", func(r chi.Router) {
			r.Get("/", h.ListArchives)
			r.Post("/", h.CloseMonth)
			r.Get("/{month}", h.GetArchive)
		})

		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.ListManagers)
			r.Post("/", h.CreateManager)
			r.Put("/{name}", h.UpdateManager)
			r.Delete("/{name}", h.DeleteManager)
			r.Get("/{name}/stats", h.GetManagerStats)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.ListSources)
			r.Post("/", h.CreateSource)
			r.Delete("/{name}", h.DeleteSource)
		})

		r.Get("/role", h.GetRole)
		r.Put("/role", h.SetRole)

		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
