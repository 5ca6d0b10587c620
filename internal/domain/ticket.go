package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusActive TicketStatus = "ACTIVE"
	TicketStatusUsed   TicketStatus = "USED"
)

type Category string

const (
	CategoryStandard Category = "STANDARD"
	CategoryVIP      Category = "VIP"
	CategoryPremium  Category = "PREMIUM"

	// alternate tier used by the admin back-office
	CategorySilver   Category = "silver"
	CategoryGold     Category = "gold"
	CategoryPlatinum Category = "platinum"
)

var categoryPrices = map[Category]int64{
	CategoryStandard: 50,
	CategoryVIP:      100,
	CategoryPremium:  150,
	CategorySilver:   100,
	CategoryGold:     200,
	CategoryPlatinum: 300,
}

func (c Category) Known() bool {
	_, ok := categoryPrices[c]
	return ok
}

// Price is the unit price of the category. Unknown categories are charged the
// STANDARD price instead of being rejected.
func (c Category) Price() decimal.Decimal {
	if p, ok := categoryPrices[c]; ok {
		return decimal.NewFromInt(p)
	}
	return decimal.NewFromInt(categoryPrices[CategoryStandard])
}

type Ticket struct {
	ID           ID              `json:"id"`
	TicketUUID   string          `json:"ticket_uuid,omitempty"`
	User         ID              `json:"user"`
	UserID       ID              `json:"user_id"`
	Event        ID              `json:"event"`
	EventDetails *Event          `json:"event_details,omitempty"`
	Category     Category        `json:"category,omitempty"`
	TicketType   Category        `json:"ticket_type,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Status       TicketStatus    `json:"status"`
	UsedAt       *time.Time      `json:"used_at,omitempty"`
	Seat         string          `json:"seat,omitempty"`
}

func TicketUUID(id, eventID ID) string {
	return fmt.Sprintf("TICKET-%s-%s", id, eventID)
}

func SeatLabel(category Category, n int) string {
	return fmt.Sprintf("SECTION-%s-%d", category, n)
}

// Kind returns category, falling back to the legacy ticket_type field.
func (t Ticket) Kind() Category {
	if t.Category != "" {
		return t.Category
	}
	return t.TicketType
}

// EventKey is the id tickets are grouped by.
func (t Ticket) EventKey() ID {
	if !t.Event.IsZero() {
		return t.Event
	}
	if t.EventDetails != nil {
		return t.EventDetails.ID
	}
	return ID{}
}

// ScanCode is the payload encoded in the ticket QR code.
func (t Ticket) ScanCode() string {
	if t.TicketUUID != "" {
		return t.TicketUUID
	}
	return t.ID.String()
}

// Reference is the short id shown to the holder.
func (t Ticket) Reference() string {
	s := t.ID.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func (t Ticket) IsUsed() bool {
	return t.Status == TicketStatusUsed
}

// OwnedBy matches either owner field against the session identity.
func (t Ticket) OwnedBy(u User) bool {
	if u.Username != "" && t.User.String() == u.Username {
		return true
	}
	return !u.ID.IsZero() && t.UserID.String() == u.ID.String()
}

// MarkUsed moves an ACTIVE ticket to USED. It reports false and leaves the
// ticket untouched when it is already USED.
func (t *Ticket) MarkUsed(at time.Time) bool {
	if t.IsUsed() {
		return false
	}
	t.Status = TicketStatusUsed
	t.UsedAt = &at
	return true
}
