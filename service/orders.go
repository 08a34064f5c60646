/*
orders.go - Order ledger mutations

PURPOSE:
  Create, split, edit, delete and paid-toggle operations on the ledger.
  Every one of them ends with a registry rebuild; the client list the
  caller sees next is already consistent with the ledger.

SPLIT ORDERS:
  A split order is entered once and stored as one ledger row per manager
  share, all tagged with a fresh duplicate-group ID. From then on the
  resolver treats the rows as one logical order: one count, summed price,
  paid only when every share is paid, toggled as a unit.
*/
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vozduh/sticker-crm/crm"
)

// =============================================================================
// INPUTS
// =============================================================================

type OrderInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	Category      string
	PaymentMethod crm.PaymentMethod
	IsPaid        bool
	OrderDate     time.Time
	ClientName    string
	ClientPhone   string
	Manager       string
	Source        string
}

// Share is one manager's part of a split order.
type Share struct {
	Manager string
	Price   decimal.Decimal
}

type SplitOrderInput struct {
	Title         string
	Description   string
	Category      string
	PaymentMethod crm.PaymentMethod
	IsPaid        bool
	OrderDate     time.Time
	ClientName    string
	ClientPhone   string
	Source        string
	Shares        []Share
}

func (in OrderInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &crm.ValidationError{Field: "title", Message: "required"}
	}
	if !in.Price.IsPositive() {
		return &crm.ValidationError{Field: "price", Message: "must be positive"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &crm.ValidationError{Field: "category", Message: "required"}
	}
	if _, err := crm.ParsePaymentMethod(string(in.PaymentMethod)); err != nil {
		return err
	}
	if in.OrderDate.IsZero() {
		return &crm.ValidationError{Field: "order_date", Message: "required"}
	}
	return nil
}

func (in SplitOrderInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &crm.ValidationError{Field: "title", Message: "required"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &crm.ValidationError{Field: "category", Message: "required"}
	}
	if _, err := crm.ParsePaymentMethod(string(in.PaymentMethod)); err != nil {
		return err
	}
	if in.OrderDate.IsZero() {
		return &crm.ValidationError{Field: "order_date", Message: "required"}
	}
	if len(in.Shares) < 2 {
		return &crm.ValidationError{Field: "shares", Message: "split order needs at least two shares"}
	}
	for _, sh := range in.Shares {
		if strings.TrimSpace(sh.Manager) == "" {
			return &crm.ValidationError{Field: "shares", Message: "every share needs a manager"}
		}
		if !sh.Price.IsPositive() {
			return &crm.ValidationError{Field: "shares", Message: "every share price must be positive"}
		}
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (crm.Order, error) {
	if err := in.validate(); err != nil {
		return crm.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := crm.Order{
		ID:            crm.OrderID(s.newID()),
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		IsPaid:        in.IsPaid,
		OrderDate:     in.OrderDate,
		CreatedAt:     s.now(),
		ClientName:    in.ClientName,
		ClientPhone:   in.ClientPhone,
		Manager:       in.Manager,
		Source:        in.Source,
	}
	s.state.Orders = append(s.state.Orders, o)
	s.rebuildLocked(ctx)

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "title": o.Title}).Info("order created")
	return o, nil
}

// CreateSplitOrder writes one ledger row per share under a fresh group ID.
func (s *Service) CreateSplitOrder(ctx context.Context, in SplitOrderInput) ([]crm.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group := crm.GroupID(s.newID())
	created := make([]crm.Order, 0, len(in.Shares))
	now := s.now()
	for _, sh := range in.Shares {
		o := crm.Order{
			ID:               crm.OrderID(s.newID()),
			Title:            in.Title,
			Description:      in.Description,
			Price:            sh.Price,
			Category:         in.Category,
			PaymentMethod:    in.PaymentMethod,
			IsPaid:           in.IsPaid,
			OrderDate:        in.OrderDate,
			CreatedAt:        now,
			ClientName:       in.ClientName,
			ClientPhone:      in.ClientPhone,
			Manager:          sh.Manager,
			Source:           in.Source,
			DuplicateGroupID: group,
		}
		created = append(created, o)
		s.state.Orders = append(s.state.Orders, o)
	}
	s.rebuildLocked(ctx)

	s.log.WithFields(logrus.Fields{"group_id": group, "shares": len(in.Shares)}).Info("split order created")
	return created, nil
}

// EditOrder replaces an order's editable fields. ID, CreatedAt and group
// membership are preserved.
func (s *Service) EditOrder(ctx context.Context, id crm.OrderID, in OrderInput) (crm.Order, error) {
	if err := in.validate(); err != nil {
		return crm.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Orders {
		if s.state.Orders[i].ID != id {
			continue
		}
		o := &s.state.Orders[i]
		o.Title = in.Title
		o.Description = in.Description
		o.Price = in.Price
		o.Category = in.Category
		o.PaymentMethod = in.PaymentMethod
		o.IsPaid = in.IsPaid
		o.OrderDate = in.OrderDate
		o.ClientName = in.ClientName
		o.ClientPhone = in.ClientPhone
		o.Manager = in.Manager
		o.Source = in.Source
		updated := *o
		s.rebuildLocked(ctx)
		return updated, nil
	}
	return crm.Order{}, crm.ErrOrderNotFound
}

func (s *Service) DeleteOrder(ctx context.Context, id crm.OrderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Orders {
		if s.state.Orders[i].ID == id {
			s.state.Orders = append(s.state.Orders[:i], s.state.Orders[i+1:]...)
			s.rebuildLocked(ctx)
			return nil
		}
	}
	return crm.ErrOrderNotFound
}

// TogglePaid flips payment status. For a split order the whole group flips
// together, to the negation of the toggled member's current status.
func (s *Service) TogglePaid(ctx context.Context, id crm.OrderID) ([]crm.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := crm.GroupMembers(s.state.Orders, id)
	if len(members) == 0 {
		return nil, crm.ErrOrderNotFound
	}

	var target crm.Order
	for _, m := range members {
		if m.ID == id {
			target = m
		}
	}
	next := !target.IsPaid

	ids := make(map[crm.OrderID]bool, len(members))
	for _, m := range members {
		ids[m.ID] = true
	}
	flipped := make([]crm.Order, 0, len(members))
	for i := range s.state.Orders {
		if ids[s.state.Orders[i].ID] {
			s.state.Orders[i].IsPaid = next
			flipped = append(flipped, s.state.Orders[i])
		}
	}
	s.rebuildLocked(ctx)
	return flipped, nil
}

// =============================================================================
// FEED GROUPING
// =============================================================================

// OrderFeed groups orders by entry day for the list view: today, yesterday,
// everything older. Grouping keys off CreatedAt, not the business date.
type OrderFeed struct {
	Today     []crm.Order
	Yesterday []crm.Order
	Earlier   []crm.Order
}

func (s *Service) Feed(_ context.Context) OrderFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	today := crm.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	var f OrderFeed
	for _, o := range s.state.Orders {
		day := crm.StartOfDay(o.CreatedAt)
		switch {
		case day.Equal(today):
			f.Today = append(f.Today, o)
		case day.Equal(yesterday):
			f.Yesterday = append(f.Yesterday, o)
		default:
			f.Earlier = append(f.Earlier, o)
		}
	}
	// Newest first within each bucket.
	for _, bucket := range [][]crm.Order{f.Today, f.Yesterday, f.Earlier} {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].CreatedAt.After(bucket[j].CreatedAt)
		})
	}
	return f
}
