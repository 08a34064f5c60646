/*
archive.go - Month close

PURPOSE:
  Closing a month freezes its numbers into an immutable archive. The only
  state rule lives here: one archive per month, ever.
*/
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vozduh/sticker-crm/crm"
)

// CloseMonth archives the given month. The month's orders are selected by
// their business date, not entry date, and the frozen totals carry the
// month's overrides and the current cash reserve.
func (s *Service) CloseMonth(ctx context.Context, month crm.MonthKey) (crm.MonthlyArchive, error) {
	if !month.Valid() {
		return crm.MonthlyArchive{}, &crm.ValidationError{Field: "month", Message: "want YYYY-MM"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if crm.FindArchive(s.state.Archives, month) != nil {
		return crm.MonthlyArchive{}, &crm.MonthClosedError{Month: month}
	}

	arch := crm.BuildArchive(month, crm.AggregateInput{
		Orders:      s.state.Orders,
		Expenses:    s.state.Expenses,
		Salaries:    s.state.Salaries,
		Overrides:   s.state.Overrides[month],
		CashReserve: s.state.CashReserve,
	}, s.now())

	s.state.Archives = append(s.state.Archives, arch)
	crm.SortArchives(s.state.Archives)
	s.persist("archives", s.store.SaveArchives(ctx, s.state.Archives))

	s.log.WithFields(logrus.Fields{
		"month":      month,
		"net_profit": arch.Totals.TotalNetProfit,
		"orders":     arch.Totals.OrderCount,
	}).Info("month closed")
	return arch, nil
}

// Archives returns every closed month, newest first.
func (s *Service) Archives(_ context.Context) []crm.MonthlyArchive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crm.MonthlyArchive(nil), s.state.Archives...)
}

// Archive returns one closed month.
func (s *Service) Archive(_ context.Context, month crm.MonthKey) (crm.MonthlyArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a := crm.FindArchive(s.state.Archives, month); a != nil {
		return *a, nil
	}
	return crm.MonthlyArchive{}, crm.ErrArchiveNotFound
}
