/*
resolver.go - Duplicate-group resolution

PURPOSE:
  A split order is stored as several ledger rows sharing a DuplicateGroupID,
  one row per manager's share. For counting, payment status and revenue the
  group is ONE logical order. Every consumer that counts or totals orders
  must resolve groups first; doing it ad hoc is how the numbers drift.

RULES:
  - A group's price is the sum of its members' shares.
  - A group is paid only when EVERY member is paid.
  - A group occupies the position of its first member in the input; later
    members are skipped.
  - The representative is the member with the lowest order ID, so the
    resolved view is stable no matter how the ledger happens to be sorted.
  - Orders without a group resolve to themselves.

SEE ALSO:
  - registry.go: Uses resolution for client totals
  - aggregate.go: Uses resolution before the paid filter
*/
package crm

import "github.com/shopspring/decimal"

// LogicalOrder is one resolved unit of work: a standalone order, or a whole
// duplicate group collapsed into a single record.
type LogicalOrder struct {
	// Representative carries the shared fields (title, client, channel,
	// dates). For groups it is the member with the lowest ID.
	Representative Order

	// Price is the full price: the member's own price for standalone
	// orders, the sum of all shares for groups.
	Price decimal.Decimal

	// Paid is true only when every member is paid.
	Paid bool

	// MemberIDs lists every physical order in this logical one, in
	// input order. Length 1 for standalone orders.
	MemberIDs []OrderID
}

// Size returns the number of physical orders behind this logical order.
func (lo LogicalOrder) Size() int { return len(lo.MemberIDs) }

// Resolve collapses duplicate groups in orders into logical orders.
// Output order follows the first occurrence of each logical order in the
// input. The input is never modified.
func Resolve(orders []Order) []LogicalOrder {
	out := make([]LogicalOrder, 0, len(orders))
	// Positions of group entries already appended, so later members can
	// fold into them in place.
	at := make(map[GroupID]int)

	for _, o := range orders {
		if !o.InGroup() {
			out = append(out, LogicalOrder{
				Representative: o,
				Price:          o.Price,
				Paid:           o.IsPaid,
				MemberIDs:      []OrderID{o.ID},
			})
			continue
		}

		if idx, seen := at[o.DuplicateGroupID]; seen {
			lo := &out[idx]
			lo.Price = lo.Price.Add(o.Price)
			lo.Paid = lo.Paid && o.IsPaid
			lo.MemberIDs = append(lo.MemberIDs, o.ID)
			if o.ID < lo.Representative.ID {
				lo.Representative = o
			}
			continue
		}

		at[o.DuplicateGroupID] = len(out)
		out = append(out, LogicalOrder{
			Representative: o,
			Price:          o.Price,
			Paid:           o.IsPaid,
			MemberIDs:      []OrderID{o.ID},
		})
	}
	return out
}

// GroupMembers returns every order sharing the given order's group, or just
// the order itself when it is standalone. Used by the paid toggle, which
// flips a whole group as one unit.
func GroupMembers(orders []Order, id OrderID) []Order {
	var target *Order
	for i := range orders {
		if orders[i].ID == id {
			target = &orders[i]
			break
		}
	}
	if target == nil {
		return nil
	}
	if !target.InGroup() {
		return []Order{*target}
	}
	members := make([]Order, 0, 2)
	for _, o := range orders {
		if o.DuplicateGroupID == target.DuplicateGroupID {
			members = append(members, o)
		}
	}
	return members
}
