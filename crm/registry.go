/*
registry.go - Client registry derived from the order ledger

PURPOSE:
  The client list is not user-maintained data: it is a projection of the
  order ledger, rebuilt in full after every ledger mutation. Editing a
  client means editing the orders that produced it.

RULES:
  - Identity key is the exact (name, phone) pair. Orders missing either
    field never produce a client.
  - Duplicate groups contribute once per client: one logical order, the
    summed group price, every member's ID. The representative's client
    fields decide attribution: a group whose lowest-ID member lacks name
    or phone produces no client, even if another member carries them.
    Split orders created here always copy the client onto every share,
    so this only matters for hand-edited ledgers.
  - TotalRevenue is gross: paid and unpaid orders both count. The finance
    aggregator is the paid-only view; the registry is not.
  - Output order is first-seen order, so FindMatch is deterministic.

FUZZY MATCH:
  FindMatch is a separate, looser lookup used at order entry: it matches on
  case-insensitive name OR exact phone and returns the first hit. Note the
  asymmetry with the registry key, which is case-sensitive on name. Two
  spellings of a name produce two registry entries, yet FindMatch sees them
  as the same person. Kept as is; changing either side silently re-merges
  historical clients.

SEE ALSO:
  - resolver.go: Group semantics the registry relies on
*/
package crm

import (
	"strings"
)

// ClientKey is the exact identity key for registry grouping.
func ClientKey(name, phone string) string {
	return name + "\x1f" + phone
}

// clientIDFor builds the stable, rebuild-invariant client ID.
func clientIDFor(name, phone string) ClientID {
	return ClientID("client_" + name + "_" + phone)
}

// RebuildClients derives the full client registry from the ledger.
// Pure: same ledger in, same registry out.
func RebuildClients(orders []Order) []Client {
	byKey := make(map[string]int)
	out := make([]Client, 0)

	for _, lo := range Resolve(orders) {
		o := lo.Representative
		if o.ClientName == "" || o.ClientPhone == "" {
			continue
		}

		key := ClientKey(o.ClientName, o.ClientPhone)
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			out = append(out, Client{
				ID:            clientIDFor(o.ClientName, o.ClientPhone),
				Name:          o.ClientName,
				Phone:         o.ClientPhone,
				Manager:       o.Manager,
				Source:        o.Source,
				CreatedAt:     o.OrderDate,
				LastOrderDate: o.OrderDate,
			})
			idx = len(out) - 1
		}

		c := &out[idx]
		c.OrderIDs = append(c.OrderIDs, lo.MemberIDs...)
		c.TotalOrders++
		c.TotalRevenue = c.TotalRevenue.Add(lo.Price)
		if o.OrderDate.Before(c.CreatedAt) {
			c.CreatedAt = o.OrderDate
		}
		if o.OrderDate.After(c.LastOrderDate) {
			c.LastOrderDate = o.OrderDate
		}
	}
	return out
}

// =============================================================================
// FUZZY MATCH - Order-entry lookup
// =============================================================================

type MatchKind string

const (
	MatchBoth  MatchKind = "both"
	MatchName  MatchKind = "name"
	MatchPhone MatchKind = "phone"
)

type ClientMatch struct {
	Client Client
	Kind   MatchKind
}

// FindMatch returns the first client whose name matches case-insensitively
// or whose phone matches exactly. Nil when nothing matches.
func FindMatch(name, phone string, clients []Client) *ClientMatch {
	for _, c := range clients {
		nameHit := name != "" && strings.EqualFold(c.Name, name)
		phoneHit := phone != "" && c.Phone == phone
		if !nameHit && !phoneHit {
			continue
		}
		kind := MatchPhone
		switch {
		case nameHit && phoneHit:
			kind = MatchBoth
		case nameHit:
			kind = MatchName
		}
		return &ClientMatch{Client: c, Kind: kind}
	}
	return nil
}
