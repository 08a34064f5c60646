/*
settings.go - Managers, order sources and role

PURPOSE:
  The small configuration surface behind the settings screen. Two guard
  rails matter: names are unique, and the last manager or order source can
  never be deleted, because every order form needs at least one of each.
*/
package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vozduh/sticker-crm/crm"
)

func validPercentage(p decimal.Decimal) bool {
	return p.IsPositive() && !p.GreaterThan(decimal.NewFromInt(100))
}

// =============================================================================
// MANAGERS
// =============================================================================

func (s *Service) Managers(_ context.Context) []crm.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.Manager(nil), s.state.Managers...)
}

func (s *Service) AddManager(ctx context.Context, name string, percentage decimal.Decimal) (crm.Manager, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return crm.Manager{}, &crm.ValidationError{Field: "name", Message: "required"}
	}
	if !validPercentage(percentage) {
		return crm.Manager{}, &crm.ValidationError{Field: "salary_percentage", Message: "want 1 to 100"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.state.Managers {
		if m.Name == name {
			return crm.Manager{}, crm.ErrDuplicateName
		}
	}
	m := crm.Manager{Name: name, SalaryPercentage: percentage}
	s.state.Managers = append(s.state.Managers, m)
	s.persist("managers", s.store.SaveManagers(ctx, s.state.Managers))
	return m, nil
}

// SetManagerPercentage updates a manager's commission rate.
func (s *Service) SetManagerPercentage(ctx context.Context, name string, percentage decimal.Decimal) (crm.Manager, error) {
	if !validPercentage(percentage) {
		return crm.Manager{}, &crm.ValidationError{Field: "salary_percentage", Message: "want 1 to 100"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Managers {
		if s.state.Managers[i].Name == name {
			s.state.Managers[i].SalaryPercentage = percentage
			s.persist("managers", s.store.SaveManagers(ctx, s.state.Managers))
			return s.state.Managers[i], nil
		}
	}
	return crm.Manager{}, crm.ErrManagerNotFound
}

func (s *Service) DeleteManager(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Managers) <= 1 {
		return crm.ErrLastManager
	}
	for i := range s.state.Managers {
		if s.state.Managers[i].Name == name {
			s.state.Managers = append(s.state.Managers[:i], s.state.Managers[i+1:]...)
			s.persist("managers", s.store.SaveManagers(ctx, s.state.Managers))
			return nil
		}
	}
	return crm.ErrManagerNotFound
}

// =============================================================================
// ORDER SOURCES
// =============================================================================

func (s *Service) Sources(_ context.Context) []crm.OrderSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.OrderSource(nil), s.state.Sources...)
}

func (s *Service) AddSource(ctx context.Context, name string) (crm.OrderSource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return crm.OrderSource{}, &crm.ValidationError{Field: "name", Message: "required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.state.Sources {
		if src.Name == name {
			return crm.OrderSource{}, crm.ErrDuplicateName
		}
	}
	src := crm.OrderSource{Name: name}
	s.state.Sources = append(s.state.Sources, src)
	s.persist("sources", s.store.SaveSources(ctx, s.state.Sources))
	return src, nil
}

func (s *Service) DeleteSource(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Sources) <= 1 {
		return crm.ErrLastSource
	}
	for i := range s.state.Sources {
		if s.state.Sources[i].Name == name {
			s.state.Sources = append(s.state.Sources[:i], s.state.Sources[i+1:]...)
			s.persist("sources", s.store.SaveSources(ctx, s.state.Sources))
			return nil
		}
	}
	return crm.ErrSourceNotFound
}

// =============================================================================
// ROLE
// =============================================================================

func (s *Service) UserRole(_ context.Context) crm.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserRole
}

func (s *Service) SetUserRole(ctx context.Context, role crm.UserRole) error {
	if role != crm.RoleDirector && role != crm.RoleManager {
		return &crm.ValidationError{Field: "role", Message: "want director or manager"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserRole = role
	s.persist("user_role", s.store.SaveUserRole(ctx, role))
	return nil
}
