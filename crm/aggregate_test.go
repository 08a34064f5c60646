package crm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vozduh/sticker-crm/crm"
)

func march() crm.Period { return crm.Month("2025-03") }

// =============================================================================
// AGGREGATION PIPELINE TESTS
// =============================================================================

func TestAggregate_HalfPaidGroupExcludedWhole(t *testing.T) {
	// GIVEN: A split order with one paid and one unpaid share, plus a
	// standalone paid cash order
	in := crm.AggregateInput{
		Orders: []crm.Order{
			grouped("o1", "g1", 600, true, crm.PayCard, day(2025, time.March, 3)),
			grouped("o2", "g1", 400, false, crm.PayCard, day(2025, time.March, 3)),
			order("o3", 100, true, crm.PayCash, day(2025, time.March, 4)),
		},
		Period: march(),
		Now:    day(2025, time.March, 20),
	}

	// WHEN: Aggregating
	totals := crm.Aggregate(in)

	// THEN: The half-paid group contributes nothing; only the cash order
	// counts. Resolution happens before the paid filter.
	assert.True(t, totals.Revenue.Card.IsZero(), "card revenue %v", totals.Revenue.Card)
	assert.True(t, totals.Revenue.Cash.Equal(d(100)))
	assert.True(t, totals.TotalRevenue.Equal(d(100)))
	assert.Equal(t, 1, totals.OrderCount)
}

func TestAggregate_FullyPaidGroupCountsOnceWithSummedPrice(t *testing.T) {
	in := crm.AggregateInput{
		Orders: []crm.Order{
			grouped("o1", "g1", 600, true, crm.PayCard, day(2025, time.March, 3)),
			grouped("o2", "g1", 400, true, crm.PayCard, day(2025, time.March, 3)),
		},
		Period: march(),
		Now:    day(2025, time.March, 20),
	}

	totals := crm.Aggregate(in)

	assert.True(t, totals.Revenue.Card.Equal(d(1000)), "card revenue %v", totals.Revenue.Card)
	assert.Equal(t, 1, totals.OrderCount, "a group is one logical order")
}

func TestAggregate_ExpensesAndSalariesBucketByPaymentSource(t *testing.T) {
	in := crm.AggregateInput{
		Expenses: []crm.Expense{
			{ID: "e1", Date: day(2025, time.March, 2), Category: "vinyl", Amount: d(300), PaymentSource: crm.PayCard},
			{ID: "e2", Date: day(2025, time.March, 9), Category: "rent", Amount: d(200), PaymentSource: crm.PayCash},
		},
		Salaries: []crm.Salary{
			{ID: "s1", Month: "2025-03", Manager: "A", Amount: d(150), PaymentSource: crm.PayCard, IsPaid: false},
			{ID: "s2", Month: "2025-03", Manager: "B", Amount: d(250), PaymentSource: crm.PayCash, IsPaid: true},
			{ID: "s3", Month: "2025-02", Manager: "A", Amount: d(999), PaymentSource: crm.PayCash},
		},
		Period: march(),
		Now:    day(2025, time.March, 20),
	}

	totals := crm.Aggregate(in)

	assert.True(t, totals.Expenses.Card.Equal(d(300)))
	assert.True(t, totals.Expenses.Cash.Equal(d(200)))
	assert.Equal(t, 2, totals.ExpenseCount)

	// Unpaid salaries count the same as paid ones; February's does not.
	assert.True(t, totals.Salaries.Card.Equal(d(150)))
	assert.True(t, totals.Salaries.Cash.Equal(d(250)))
	assert.Equal(t, 2, totals.SalaryCount)
}

func TestAggregate_OverrideReplacesComputedChannelSum(t *testing.T) {
	ov := d(5000)
	in := crm.AggregateInput{
		Orders: []crm.Order{
			order("o1", 100, true, crm.PayCard, day(2025, time.March, 3)),
			order("o2", 100, true, crm.PayCash, day(2025, time.March, 3)),
		},
		Period: march(),
		Now:    day(2025, time.March, 20),
		Overrides: crm.Overrides{
			Revenue: crm.ChannelOverrides{Card: &ov},
		},
	}

	totals := crm.Aggregate(in)

	// The override replaces, it does not add.
	assert.True(t, totals.Revenue.Card.Equal(d(5000)), "card %v", totals.Revenue.Card)
	assert.True(t, totals.Revenue.Cash.Equal(d(100)), "untouched channel stays computed")
	assert.True(t, totals.TotalRevenue.Equal(d(5100)))
}

func TestAggregate_NetProfitSubtractsReservePerChannel(t *testing.T) {
	in := crm.AggregateInput{
		Orders: []crm.Order{
			order("o1", 1000, true, crm.PayCard, day(2025, time.March, 3)),
			order("o2", 500, true, crm.PayCash, day(2025, time.March, 4)),
		},
		Expenses: []crm.Expense{
			{ID: "e1", Date: day(2025, time.March, 5), Category: "vinyl", Amount: d(200), PaymentSource: crm.PayCard},
		},
		Salaries: []crm.Salary{
			{ID: "s1", Month: "2025-03", Manager: "A", Amount: d(100), PaymentSource: crm.PayCash},
		},
		Period:      march(),
		Now:         day(2025, time.March, 20),
		CashReserve: crm.ChannelAmounts{Card: d(50), Cash: d(30)},
	}

	totals := crm.Aggregate(in)

	// card: 1000 - 200 - 0 - 50 = 750; cash: 500 - 0 - 100 - 30 = 370
	assert.True(t, totals.NetProfit.Card.Equal(d(750)), "card net %v", totals.NetProfit.Card)
	assert.True(t, totals.NetProfit.Cash.Equal(d(370)), "cash net %v", totals.NetProfit.Cash)

	// The grand total is the sum across channels, so the reserve flows
	// into it: 750 + 370 + 0 + 0.
	assert.True(t, totals.TotalNetProfit.Equal(d(1120)), "total net %v", totals.TotalNetProfit)
}

func TestAggregate_RegistryIsGrossWhereRevenueIsPaidOnly(t *testing.T) {
	// One ledger, two views: the registry counts unpaid orders in client
	// revenue, the aggregator does not.
	orders := []crm.Order{
		withClient(order("o1", 100, true, crm.PayCard, day(2025, time.March, 3)), "Anna", "111"),
		withClient(order("o2", 250, false, crm.PayCard, day(2025, time.March, 4)), "Anna", "111"),
	}

	clients := crm.RebuildClients(orders)
	totals := crm.Aggregate(crm.AggregateInput{
		Orders: orders,
		Period: march(),
		Now:    day(2025, time.March, 20),
	})

	if assert.Len(t, clients, 1) {
		assert.True(t, clients[0].TotalRevenue.Equal(d(350)), "registry gross %v", clients[0].TotalRevenue)
	}
	assert.True(t, totals.TotalRevenue.Equal(d(100)), "aggregator paid-only %v", totals.TotalRevenue)
	assert.False(t, clients[0].TotalRevenue.Equal(totals.TotalRevenue), "the two sums must diverge on an unpaid order")
}

func TestAggregate_PureFunction(t *testing.T) {
	in := crm.AggregateInput{
		Orders: []crm.Order{
			grouped("o1", "g1", 600, true, crm.PayCard, day(2025, time.March, 3)),
			grouped("o2", "g1", 400, true, crm.PayCard, day(2025, time.March, 3)),
		},
		Period: march(),
		Now:    day(2025, time.March, 20),
	}

	first := crm.Aggregate(in)
	second := crm.Aggregate(in)
	assert.Equal(t, first, second)
	// Inputs are untouched.
	assert.True(t, in.Orders[0].Price.Equal(d(600)))
}

// =============================================================================
// ARCHIVE TESTS
// =============================================================================

func TestBuildArchive_SelectsMonthByOrderDate(t *testing.T) {
	// An order entered in March but dated February belongs to February.
	feb := crm.Order{
		ID: "o1", Title: "stickers", Price: d(500), Category: "stickers",
		PaymentMethod: crm.PayCard, IsPaid: true,
		OrderDate: day(2025, time.February, 20),
		CreatedAt: day(2025, time.March, 2),
	}

	arch := crm.BuildArchive("2025-02", crm.AggregateInput{
		Orders: []crm.Order{feb},
	}, day(2025, time.March, 10))

	assert.Equal(t, crm.MonthKey("2025-02"), arch.Month)
	assert.True(t, arch.Totals.Revenue.Card.Equal(d(500)), "revenue %v", arch.Totals.Revenue.Card)
	assert.Equal(t, 1, arch.Totals.OrderCount)
}

func TestSortArchives_NewestFirst(t *testing.T) {
	archives := []crm.MonthlyArchive{
		{Month: "2025-01"},
		{Month: "2025-03"},
		{Month: "2024-12"},
	}
	crm.SortArchives(archives)

	assert.Equal(t, crm.MonthKey("2025-03"), archives[0].Month)
	assert.Equal(t, crm.MonthKey("2025-01"), archives[1].Month)
	assert.Equal(t, crm.MonthKey("2024-12"), archives[2].Month)
}

// =============================================================================
// CHANNEL AMOUNTS
// =============================================================================

func TestChannelAmounts_TotalAndSub(t *testing.T) {
	a := crm.ChannelAmounts{Card: d(10), Terminal: d(20), BankTransfer: d(30), Cash: d(40)}
	assert.True(t, a.Total().Equal(d(100)))

	b := a.Sub(crm.ChannelAmounts{Card: d(1), Cash: d(2)})
	assert.True(t, b.Card.Equal(d(9)))
	assert.True(t, b.Cash.Equal(d(38)))
	assert.True(t, b.Terminal.Equal(d(20)))
}

func TestParsePaymentMethod_RejectsUnknown(t *testing.T) {
	for _, good := range []string{"card", "terminal", "bank_transfer", "cash"} {
		if _, err := crm.ParsePaymentMethod(good); err != nil {
			t.Errorf("%s should parse: %v", good, err)
		}
	}
	if _, err := crm.ParsePaymentMethod("crypto"); err == nil {
		t.Errorf("unknown method should be rejected")
	} else if !crm.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
