/*
finance.go - Expenses, salaries, overrides and totals

PURPOSE:
  The money side of the service. Expenses and salaries are plain records;
  overrides and the cash reserve are the two manual knobs the director has
  over the computed numbers. Totals() is the one read path the finance view
  uses, delegating the arithmetic to the pure aggregator.

OVERRIDE SCOPE:
  Overrides are kept per month. A period resolves to the month it views:
  an explicit month key for the month kind, the current month for the half
  and today kinds, the range start's month for custom. The all-time view
  applies no overrides.
*/
package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vozduh/sticker-crm/crm"
)

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseInput struct {
	Date          time.Time
	Category      string
	Amount        decimal.Decimal
	PaymentSource crm.PaymentMethod
}

func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (crm.Expense, error) {
	if !in.Amount.IsPositive() {
		return crm.Expense{}, &crm.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return crm.Expense{}, &crm.ValidationError{Field: "category", Message: "required"}
	}
	if _, err := crm.ParsePaymentMethod(string(in.PaymentSource)); err != nil {
		return crm.Expense{}, err
	}
	if in.Date.IsZero() {
		return crm.Expense{}, &crm.ValidationError{Field: "date", Message: "required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := crm.Expense{
		ID:            crm.ExpenseID(s.newID()),
		Date:          in.Date,
		Category:      in.Category,
		Amount:        in.Amount,
		PaymentSource: in.PaymentSource,
	}
	s.state.Expenses = append(s.state.Expenses, e)
	s.persist("expenses", s.store.SaveExpenses(ctx, s.state.Expenses))
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id crm.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Expenses {
		if s.state.Expenses[i].ID == id {
			s.state.Expenses = append(s.state.Expenses[:i], s.state.Expenses[i+1:]...)
			s.persist("expenses", s.store.SaveExpenses(ctx, s.state.Expenses))
			return nil
		}
	}
	return crm.ErrExpenseNotFound
}

// =============================================================================
// SALARIES
// =============================================================================

type SalaryInput struct {
	Month         crm.MonthKey
	Manager       string
	Amount        decimal.Decimal
	PaymentSource crm.PaymentMethod
}

func (s *Service) AddSalary(ctx context.Context, in SalaryInput) (crm.Salary, error) {
	if !in.Amount.IsPositive() {
		return crm.Salary{}, &crm.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if strings.TrimSpace(in.Manager) == "" {
		return crm.Salary{}, &crm.ValidationError{Field: "manager", Message: "required"}
	}
	if !in.Month.Valid() {
		return crm.Salary{}, &crm.ValidationError{Field: "month", Message: "want YYYY-MM"}
	}
	if _, err := crm.ParsePaymentMethod(string(in.PaymentSource)); err != nil {
		return crm.Salary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSalaryLocked(ctx, in)
}

func (s *Service) addSalaryLocked(ctx context.Context, in SalaryInput) (crm.Salary, error) {
	for _, sal := range s.state.Salaries {
		if sal.Month == in.Month && sal.Manager == in.Manager {
			return crm.Salary{}, &crm.DuplicateSalaryError{Month: in.Month, Manager: in.Manager}
		}
	}

	sal := crm.Salary{
		ID:            crm.SalaryID(s.newID()),
		Month:         in.Month,
		Manager:       in.Manager,
		Amount:        in.Amount,
		PaymentSource: in.PaymentSource,
	}
	s.state.Salaries = append(s.state.Salaries, sal)
	s.persist("salaries", s.store.SaveSalaries(ctx, s.state.Salaries))
	return sal, nil
}

func (s *Service) DeleteSalary(ctx context.Context, id crm.SalaryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Salaries {
		if s.state.Salaries[i].ID == id {
			s.state.Salaries = append(s.state.Salaries[:i], s.state.Salaries[i+1:]...)
			s.persist("salaries", s.store.SaveSalaries(ctx, s.state.Salaries))
			return nil
		}
	}
	return crm.ErrSalaryNotFound
}

// ToggleSalaryPaid flips the paid flag, stamping or clearing the payout date.
func (s *Service) ToggleSalaryPaid(ctx context.Context, id crm.SalaryID) (crm.Salary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Salaries {
		if s.state.Salaries[i].ID != id {
			continue
		}
		sal := &s.state.Salaries[i]
		sal.IsPaid = !sal.IsPaid
		if sal.IsPaid {
			t := s.now()
			sal.PaidDate = &t
		} else {
			sal.PaidDate = nil
		}
		s.persist("salaries", s.store.SaveSalaries(ctx, s.state.Salaries))
		return *sal, nil
	}
	return crm.Salary{}, crm.ErrSalaryNotFound
}

// ImportSalary computes a manager's payroll from their paid revenue over
// [from, to] and records it as an unpaid salary for from's month.
func (s *Service) ImportSalary(ctx context.Context, manager string, from, to time.Time, source crm.PaymentMethod) (crm.Salary, error) {
	if _, err := crm.ParsePaymentMethod(string(source)); err != nil {
		return crm.Salary{}, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return crm.Salary{}, &crm.ValidationError{Field: "period", Message: "want a valid date range"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var mgr *crm.Manager
	for i := range s.state.Managers {
		if s.state.Managers[i].Name == manager {
			mgr = &s.state.Managers[i]
			break
		}
	}
	if mgr == nil {
		return crm.Salary{}, crm.ErrManagerNotFound
	}

	revenue := crm.ImportRevenue(s.state.Orders, manager, from, to)
	amount := revenue.Mul(mgr.SalaryPercentage).Div(decimal.NewFromInt(100))
	if !amount.IsPositive() {
		return crm.Salary{}, &crm.ValidationError{Field: "period", Message: "no paid revenue in range"}
	}

	sal, err := s.addSalaryLocked(ctx, SalaryInput{
		Month:         crm.MonthOf(from),
		Manager:       manager,
		Amount:        amount,
		PaymentSource: source,
	})
	if err != nil {
		return crm.Salary{}, err
	}
	s.log.WithFields(logrus.Fields{"manager": manager, "amount": amount}).Info("salary imported")
	return sal, nil
}

// =============================================================================
// OVERRIDES AND CASH RESERVE
// =============================================================================

// SetOverride installs or clears (value nil) one manual cell for a month.
func (s *Service) SetOverride(ctx context.Context, month crm.MonthKey, kind crm.OverrideKind, channel crm.PaymentMethod, value *decimal.Decimal) error {
	if !month.Valid() {
		return &crm.ValidationError{Field: "month", Message: "want YYYY-MM"}
	}
	if _, err := crm.ParseOverrideKind(string(kind)); err != nil {
		return err
	}
	if _, err := crm.ParsePaymentMethod(string(channel)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.state.Overrides[month]
	switch kind {
	case crm.OverrideRevenue:
		o.Revenue.Set(channel, value)
	case crm.OverrideExpenses:
		o.Expenses.Set(channel, value)
	case crm.OverrideSalaries:
		o.Salaries.Set(channel, value)
	}
	if o.IsEmpty() {
		delete(s.state.Overrides, month)
	} else {
		s.state.Overrides[month] = o
	}
	s.persist("overrides", s.store.SaveOverrides(ctx, month, o))
	return nil
}

func (s *Service) OverridesFor(_ context.Context, month crm.MonthKey) crm.Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Overrides[month]
}

func (s *Service) SetCashReserve(ctx context.Context, channel crm.PaymentMethod, value decimal.Decimal) (crm.ChannelAmounts, error) {
	if _, err := crm.ParsePaymentMethod(string(channel)); err != nil {
		return crm.ChannelAmounts{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CashReserve.Set(channel, value)
	s.persist("cash_reserve", s.store.SaveCashReserve(ctx, s.state.CashReserve))
	return s.state.CashReserve, nil
}

func (s *Service) CashReserve(_ context.Context) crm.ChannelAmounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CashReserve
}

// =============================================================================
// TOTALS
// =============================================================================

// overrideMonth maps a period to the month whose overrides apply.
func overrideMonth(p crm.Period, now time.Time) (crm.MonthKey, bool) {
	switch p.Kind {
	case crm.PeriodMonth:
		return p.Month, true
	case crm.PeriodFirstHalf, crm.PeriodSecondHalf, crm.PeriodToday:
		return crm.MonthOf(now), true
	case crm.PeriodCustom:
		return crm.MonthOf(p.From), true
	}
	return "", false
}

// Totals computes the finance view for a period, with the resolved month's
// overrides and the current cash reserve applied.
func (s *Service) Totals(_ context.Context, p crm.Period) crm.FinancialTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var ov crm.Overrides
	if month, ok := overrideMonth(p, now); ok {
		ov = s.state.Overrides[month]
	}
	return crm.Aggregate(crm.AggregateInput{
		Orders:      s.state.Orders,
		Expenses:    s.state.Expenses,
		Salaries:    s.state.Salaries,
		Period:      p,
		Now:         now,
		Overrides:   ov,
		CashReserve: s.state.CashReserve,
	})
}

// ManagerStats computes the manager dashboard for a period.
func (s *Service) ManagerStats(_ context.Context, manager string, p crm.Period) (crm.ManagerStatsResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.state.Managers {
		if m.Name == manager {
			return crm.ManagerStats(s.state.Orders, manager, p, s.now(), m.SalaryPercentage), nil
		}
	}
	return crm.ManagerStatsResult{}, crm.ErrManagerNotFound
}
