package crm_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vozduh/sticker-crm/crm"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, dd, hh, mm, ss, ms int) time.Time {
	return time.Date(y, m, dd, hh, mm, ss, ms*int(time.Millisecond), time.UTC)
}

func order(id string, price float64, paid bool, method crm.PaymentMethod, date time.Time) crm.Order {
	return crm.Order{
		ID:            crm.OrderID(id),
		Title:         "stickers",
		Price:         d(price),
		Category:      "stickers",
		PaymentMethod: method,
		IsPaid:        paid,
		OrderDate:     date,
		CreatedAt:     date,
	}
}

func grouped(id string, group string, price float64, paid bool, method crm.PaymentMethod, date time.Time) crm.Order {
	o := order(id, price, paid, method, date)
	o.DuplicateGroupID = crm.GroupID(group)
	return o
}

func withClient(o crm.Order, name, phone string) crm.Order {
	o.ClientName = name
	o.ClientPhone = phone
	return o
}

// =============================================================================
// RESOLVER TESTS
// =============================================================================

func TestResolve_StandaloneOrdersPassThrough(t *testing.T) {
	// GIVEN: Two ungrouped orders
	orders := []crm.Order{
		order("o1", 100, true, crm.PayCard, day(2025, time.March, 1)),
		order("o2", 250, false, crm.PayCash, day(2025, time.March, 2)),
	}

	// WHEN: Resolving
	logical := crm.Resolve(orders)

	// THEN: One logical order each, untouched
	if len(logical) != 2 {
		t.Fatalf("expected 2 logical orders, got %d", len(logical))
	}
	if !logical[0].Price.Equal(d(100)) || !logical[0].Paid {
		t.Errorf("o1 resolved wrong: price=%v paid=%v", logical[0].Price, logical[0].Paid)
	}
	if logical[1].Paid {
		t.Errorf("o2 should be unpaid")
	}
	if logical[0].Size() != 1 {
		t.Errorf("standalone order should have size 1, got %d", logical[0].Size())
	}
}

func TestResolve_GroupSumsPricesAndAndsPaid(t *testing.T) {
	// GIVEN: A split order: 600 paid + 400 unpaid in group g1
	orders := []crm.Order{
		grouped("o1", "g1", 600, true, crm.PayCard, day(2025, time.March, 1)),
		order("o2", 50, true, crm.PayCash, day(2025, time.March, 1)),
		grouped("o3", "g1", 400, false, crm.PayCard, day(2025, time.March, 1)),
	}

	// WHEN: Resolving
	logical := crm.Resolve(orders)

	// THEN: The group occupies the first member's position, price summed,
	// paid false because one member is unpaid
	if len(logical) != 2 {
		t.Fatalf("expected 2 logical orders, got %d", len(logical))
	}
	g := logical[0]
	if !g.Price.Equal(d(1000)) {
		t.Errorf("group price: expected 1000, got %v", g.Price)
	}
	if g.Paid {
		t.Errorf("group with an unpaid member must be unpaid")
	}
	if g.Size() != 2 {
		t.Errorf("group size: expected 2, got %d", g.Size())
	}
}

func TestResolve_RepresentativeIsLowestID(t *testing.T) {
	// GIVEN: Group members arrive in reverse ID order
	orders := []crm.Order{
		grouped("o9", "g1", 300, true, crm.PayCard, day(2025, time.March, 5)),
		grouped("o1", "g1", 700, true, crm.PayCard, day(2025, time.March, 5)),
	}

	// WHEN: Resolving
	logical := crm.Resolve(orders)

	// THEN: Representative is the lowest ID regardless of input order
	if len(logical) != 1 {
		t.Fatalf("expected 1 logical order, got %d", len(logical))
	}
	if logical[0].Representative.ID != "o1" {
		t.Errorf("representative: expected o1, got %s", logical[0].Representative.ID)
	}
}

func TestResolve_SingleMemberGroupBehavesLikeStandalone(t *testing.T) {
	// GIVEN: A group with exactly one member
	orders := []crm.Order{
		grouped("o1", "g1", 500, true, crm.PayTerminal, day(2025, time.March, 1)),
	}

	logical := crm.Resolve(orders)

	if len(logical) != 1 {
		t.Fatalf("expected 1 logical order, got %d", len(logical))
	}
	if !logical[0].Price.Equal(d(500)) || !logical[0].Paid || logical[0].Size() != 1 {
		t.Errorf("single-member group resolved wrong: %+v", logical[0])
	}
}

func TestGroupMembers_WholeGroupForSplitOrders(t *testing.T) {
	orders := []crm.Order{
		grouped("o1", "g1", 600, true, crm.PayCard, day(2025, time.March, 1)),
		grouped("o2", "g1", 400, false, crm.PayCard, day(2025, time.March, 1)),
		order("o3", 100, true, crm.PayCash, day(2025, time.March, 2)),
	}

	members := crm.GroupMembers(orders, "o2")
	if len(members) != 2 {
		t.Fatalf("expected whole group (2 members), got %d", len(members))
	}

	solo := crm.GroupMembers(orders, "o3")
	if len(solo) != 1 || solo[0].ID != "o3" {
		t.Errorf("standalone member lookup wrong: %+v", solo)
	}

	if got := crm.GroupMembers(orders, "missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}
