// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/vozduh/sticker-crm/crm"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state crm.State
}

func NewMemory() *Memory {
	return &Memory{
		state: crm.State{Overrides: make(map[crm.MonthKey]crm.Overrides)},
	}
}

// Load returns a deep copy of everything saved so far.
func (m *Memory) Load(_ context.Context) (*crm.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := crm.State{
		Orders:      append([]crm.Order(nil), m.state.Orders...),
		Clients:     append([]crm.Client(nil), m.state.Clients...),
		Expenses:    append([]crm.Expense(nil), m.state.Expenses...),
		Salaries:    append([]crm.Salary(nil), m.state.Salaries...),
		Managers:    append([]crm.Manager(nil), m.state.Managers...),
		Sources:     append([]crm.OrderSource(nil), m.state.Sources...),
		Archives:    append([]crm.MonthlyArchive(nil), m.state.Archives...),
		Overrides:   make(map[crm.MonthKey]crm.Overrides, len(m.state.Overrides)),
		CashReserve: m.state.CashReserve,
		UserRole:    m.state.UserRole,
	}
	for k, v := range m.state.Overrides {
		s.Overrides[k] = v
	}
	return &s, nil
}

func (m *Memory) SaveOrders(_ context.Context, orders []crm.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Orders = append([]crm.Order(nil), orders...)
	return nil
}

func (m *Memory) SaveClients(_ context.Context, clients []crm.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Clients = append([]crm.Client(nil), clients...)
	return nil
}

func (m *Memory) SaveExpenses(_ context.Context, expenses []crm.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Expenses = append([]crm.Expense(nil), expenses...)
	return nil
}

func (m *Memory) SaveSalaries(_ context.Context, salaries []crm.Salary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Salaries = append([]crm.Salary(nil), salaries...)
	return nil
}

func (m *Memory) SaveManagers(_ context.Context, managers []crm.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Managers = append([]crm.Manager(nil), managers...)
	return nil
}

func (m *Memory) SaveSources(_ context.Context, sources []crm.OrderSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Sources = append([]crm.OrderSource(nil), sources...)
	return nil
}

func (m *Memory) SaveArchives(_ context.Context, archives []crm.MonthlyArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Archives = append([]crm.MonthlyArchive(nil), archives...)
	return nil
}

func (m *Memory) SaveOverrides(_ context.Context, month crm.MonthKey, o crm.Overrides) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.IsEmpty() {
		delete(m.state.Overrides, month)
		return nil
	}
	m.state.Overrides[month] = o
	return nil
}

func (m *Memory) SaveCashReserve(_ context.Context, reserve crm.ChannelAmounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CashReserve = reserve
	return nil
}

func (m *Memory) SaveUserRole(_ context.Context, role crm.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.UserRole = role
	return nil
}

func (m *Memory) Close() error { return nil }

var _ crm.Store = (*Memory)(nil)
