/*
Package service is the application layer of the sticker CRM.

PURPOSE:
  The service owns the live state (the order ledger plus everything derived
  or configured around it), applies every mutation, and keeps the derived
  client registry in sync. The HTTP layer is a thin shell over this package.

STATE MODEL:
  All state lives in memory and is authoritative. The Store is a durability
  backstop: state is loaded once at startup, and each mutation writes the
  touched collections back. A failed save is logged and swallowed; the desk
  keeps working on memory.

REBUILD RULE:
  The client registry is derived data. Every mutation of the order ledger
  ends with an explicit rebuild of the registry before the call returns.
  There is no path that edits clients directly.

SEE ALSO:
  - crm: The pure engine this package drives
  - api: HTTP surface
*/
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vozduh/sticker-crm/crm"
)

var defaultCommission = decimal.NewFromInt(22)

// defaultManagers and defaultSources seed a fresh installation.
var defaultManagers = []crm.Manager{
	{Name: "Софа", SalaryPercentage: defaultCommission},
	{Name: "Лена", SalaryPercentage: defaultCommission},
}

var defaultSources = []crm.OrderSource{
	{Name: "По совету знакомых"},
	{Name: "Инстаграм"},
	{Name: "Вконтакте"},
	{Name: "Наши друзья"},
	{Name: "Знакомые"},
	{Name: "Повторный клиент"},
}

type Service struct {
	mu    sync.RWMutex
	store crm.Store
	log   *logrus.Logger

	state crm.State

	// Test seams.
	now   func() time.Time
	newID func() string
}

// New loads persisted state and seeds defaults on first run.
func New(ctx context.Context, store crm.Store, log *logrus.Logger) (*Service, error) {
	if log == nil {
		log = logrus.New()
	}
	st, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store: store,
		log:   log,
		state: *st,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	if s.state.Overrides == nil {
		s.state.Overrides = make(map[crm.MonthKey]crm.Overrides)
	}
	if len(s.state.Managers) == 0 {
		s.state.Managers = append([]crm.Manager(nil), defaultManagers...)
	}
	if len(s.state.Sources) == 0 {
		s.state.Sources = append([]crm.OrderSource(nil), defaultSources...)
	}
	if s.state.UserRole == "" {
		s.state.UserRole = crm.RoleManager
	}

	// The registry is derived; recompute rather than trust what was stored.
	s.state.Clients = crm.RebuildClients(s.state.Orders)
	return s, nil
}

// =============================================================================
// PERSISTENCE HELPERS
// =============================================================================

// persist logs a failed save and moves on. Memory stays authoritative.
func (s *Service) persist(what string, err error) {
	if err != nil {
		s.log.WithError(err).WithField("collection", what).Error("save failed, keeping in-memory state")
	}
}

// rebuildLocked recomputes the client registry from the ledger and writes
// both collections back. Callers hold the write lock.
func (s *Service) rebuildLocked(ctx context.Context) {
	s.state.Clients = crm.RebuildClients(s.state.Orders)
	s.persist("orders", s.store.SaveOrders(ctx, s.state.Orders))
	s.persist("clients", s.store.SaveClients(ctx, s.state.Clients))
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) Orders(_ context.Context) []crm.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.Order(nil), s.state.Orders...)
}

func (s *Service) Order(_ context.Context, id crm.OrderID) (crm.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.state.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return crm.Order{}, crm.ErrOrderNotFound
}

func (s *Service) Clients(_ context.Context) []crm.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.Client(nil), s.state.Clients...)
}

// MatchClient is the order-entry lookup: loose match by name or phone.
func (s *Service) MatchClient(_ context.Context, name, phone string) *crm.ClientMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return crm.FindMatch(name, phone, s.state.Clients)
}

func (s *Service) Expenses(_ context.Context) []crm.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.Expense(nil), s.state.Expenses...)
}

func (s *Service) Salaries(_ context.Context) []crm.Salary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.Salary(nil), s.state.Salaries...)
}

// Analytics computes the dashboard view for a period.
func (s *Service) Analytics(_ context.Context, p crm.Period) crm.Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return crm.Analyze(s.state.Orders, p, s.now())
}
