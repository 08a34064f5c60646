/*
store.go - Persistence interface

PURPOSE:
  The engine holds all state in memory; a Store is only a durability
  backstop. Each collection is saved as a whole (full replace), which keeps
  the contract tiny and matches how the service mutates: load everything
  once at startup, write a collection after each change.

  Save failures are not authoritative. The service logs them and keeps the
  in-memory state; a degraded store must never block the desk.

IMPLEMENTATIONS:
  - crm/store: In-memory, used by tests and demos
  - store/sqlite: SQLite, used in production

SEE ALSO:
  - service: The only caller
*/
package crm

import "context"

// State is everything a Store persists, loaded in one shot at startup.
type State struct {
	Orders   []Order
	Clients  []Client
	Expenses []Expense
	Salaries []Salary

	Managers []Manager
	Sources  []OrderSource

	Archives  []MonthlyArchive
	Overrides map[MonthKey]Overrides

	CashReserve ChannelAmounts
	UserRole    UserRole
}

// Store persists engine state. Every Save replaces the whole collection.
type Store interface {
	Load(ctx context.Context) (*State, error)

	SaveOrders(ctx context.Context, orders []Order) error
	SaveClients(ctx context.Context, clients []Client) error
	SaveExpenses(ctx context.Context, expenses []Expense) error
	SaveSalaries(ctx context.Context, salaries []Salary) error
	SaveManagers(ctx context.Context, managers []Manager) error
	SaveSources(ctx context.Context, sources []OrderSource) error
	SaveArchives(ctx context.Context, archives []MonthlyArchive) error
	SaveOverrides(ctx context.Context, month MonthKey, o Overrides) error
	SaveCashReserve(ctx context.Context, reserve ChannelAmounts) error
	SaveUserRole(ctx context.Context, role UserRole) error

	Close() error
}
