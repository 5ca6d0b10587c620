package domain

import "strings"

type RefKind int

const (
	RefScanUUID RefKind = iota + 1
	RefPrimaryID
)

// TicketRef names a ticket by one of its two identifiers. A scanned code does
// not say which one it carries, so LookupOrder expands it into every
// interpretation in the order they are tried.
type TicketRef struct {
	Kind  RefKind
	Value string
	// Loose matches a primary id by its string form regardless of whether it
	// was stored as a number or a string.
	Loose bool
}

func ScanUUID(uuid string) TicketRef {
	return TicketRef{Kind: RefScanUUID, Value: uuid}
}

func PrimaryID(id ID) TicketRef {
	return TicketRef{Kind: RefPrimaryID, Value: id.String(), Loose: id.IsNumeric()}
}

func LookupOrder(code string) []TicketRef {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return []TicketRef{
		ScanUUID(code),
		{Kind: RefPrimaryID, Value: code},
		{Kind: RefPrimaryID, Value: code, Loose: true},
	}
}

func (r TicketRef) Matches(t Ticket) bool {
	switch r.Kind {
	case RefScanUUID:
		return t.TicketUUID != "" && t.TicketUUID == r.Value
	case RefPrimaryID:
		if r.Loose {
			return t.ID.String() == r.Value
		}
		return !t.ID.IsNumeric() && t.ID.String() == r.Value
	}
	return false
}

// FindTicket returns the index of the first ticket matched by the earliest
// strategy in refs, or -1.
func FindTicket(tickets []Ticket, refs []TicketRef) int {
	for _, ref := range refs {
		for i := range tickets {
			if ref.Matches(tickets[i]) {
				return i
			}
		}
	}
	return -1
}
