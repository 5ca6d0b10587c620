package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryPrice(t *testing.T) {
	testCases := []struct {
		category Category
		expected int64
	}{
		{CategoryStandard, 50},
		{CategoryVIP, 100},
		{CategoryPremium, 150},
		{CategorySilver, 100},
		{CategoryGold, 200},
		{CategoryPlatinum, 300},
		{Category("BALCONY"), 50},
		{Category(""), 50},
	}

	for _, tc := range testCases {
		t.Run(string(tc.category), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.category.Price().IntPart())
		})
	}
}

func TestID_JSONKeepsOriginalForm(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[17,"1718000000000-0",null]`), &ids))

	assert.True(t, ids[0].IsNumeric())
	assert.Equal(t, "17", ids[0].String())
	assert.False(t, ids[1].IsNumeric())
	assert.True(t, ids[2].IsZero())

	out, err := json.Marshal(ids)
	require.NoError(t, err)
	assert.JSONEq(t, `[17,"1718000000000-0",null]`, string(out))
}

func TestParseID(t *testing.T) {
	assert.True(t, ParseID("42").Equal(NumericID(42)))
	assert.True(t, ParseID("TICKET-1-2").Equal(StringID("TICKET-1-2")))
}

func TestTicket_OwnedBy(t *testing.T) {
	alice := User{ID: NumericID(1), Username: "alice"}

	testCases := []struct {
		name   string
		ticket Ticket
		owned  bool
	}{
		{"by username", Ticket{User: StringID("alice")}, true},
		{"by numeric user id", Ticket{UserID: NumericID(1)}, true},
		{"by string user id", Ticket{UserID: StringID("1")}, true},
		{"other user", Ticket{User: StringID("bob"), UserID: NumericID(2)}, false},
		{"no owner fields", Ticket{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.owned, tc.ticket.OwnedBy(alice))
		})
	}

	assert.False(t, Ticket{}.OwnedBy(User{}))
}

func TestTicket_MarkUsedIsTerminal(t *testing.T) {
	ticket := Ticket{Status: TicketStatusActive}
	first := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	assert.True(t, ticket.MarkUsed(first))
	assert.False(t, ticket.MarkUsed(first.Add(time.Hour)))
	assert.Equal(t, TicketStatusUsed, ticket.Status)
	assert.Equal(t, first, *ticket.UsedAt)
}

func TestTicket_EventKeyAndDisplayHelpers(t *testing.T) {
	withEvent := Ticket{ID: StringID("1718000000000-0"), Event: StringID("42")}
	detailsOnly := Ticket{ID: NumericID(7), EventDetails: &Event{ID: NumericID(9)}}

	assert.Equal(t, "42", withEvent.EventKey().String())
	assert.Equal(t, "9", detailsOnly.EventKey().String())
	assert.Equal(t, "17180000", withEvent.Reference())
	assert.Equal(t, "7", detailsOnly.ScanCode())
	assert.Equal(t, "TICKET-7-9", TicketUUID(NumericID(7), NumericID(9)))
	assert.Equal(t, "SECTION-VIP-12", SeatLabel(CategoryVIP, 12))
}

func TestFindTicket_LookupOrder(t *testing.T) {
	tickets := []Ticket{
		{ID: NumericID(17), TicketUUID: "TICKET-17-42"},
		{ID: StringID("1718000000000-0"), TicketUUID: "TICKET-1718000000000-0-42"},
		{ID: StringID("TICKET-17-42")},
	}

	testCases := []struct {
		name string
		code string
		idx  int
	}{
		{"uuid wins over an id with the same text", "TICKET-17-42", 0},
		{"exact string id", "1718000000000-0", 1},
		{"stringified numeric id", "17", 0},
		{"unknown", "TICKET-99-1", -1},
		{"blank", "  ", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.idx, FindTicket(tickets, LookupOrder(tc.code)))
		})
	}
}

func TestLookupOrder_TriesScanUUIDFirst(t *testing.T) {
	refs := LookupOrder(" TICKET-17-42 ")
	require.Len(t, refs, 3)
	assert.Equal(t, ScanUUID("TICKET-17-42"), refs[0])
	assert.Equal(t, TicketRef{Kind: RefPrimaryID, Value: "TICKET-17-42"}, refs[1])
	assert.True(t, refs[2].Loose)
}

func TestCategory_Known(t *testing.T) {
	assert.True(t, CategoryGold.Known())
	assert.False(t, Category("BALCONY").Known())
}

func TestTicket_RoundTripIsByteEqual(t *testing.T) {
	usedAt := time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC)
	eventTime := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	ticket := Ticket{
		ID:         StringID("1718000000000-0"),
		TicketUUID: "TICKET-1718000000000-0-42",
		User:       StringID("alice"),
		UserID:     NumericID(1),
		Event:      StringID("42"),
		EventDetails: &Event{
			ID: NumericID(42), TeamHomeName: "Lyon", TeamAwayName: "Nantes", Time: &eventTime,
			Accessibility: &StadiumAccessibility{Motor: true},
		},
		Category:     CategoryVIP,
		TicketType:   CategoryVIP,
		Quantity:     1,
		Price:        CategoryVIP.Price(),
		PurchaseDate: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Status:       TicketStatusUsed,
		UsedAt:       &usedAt,
		Seat:         "SECTION-VIP-12",
	}

	first, err := json.Marshal(ticket)
	require.NoError(t, err)

	var reloaded Ticket
	require.NoError(t, json.Unmarshal(first, &reloaded))
	second, err := json.Marshal(reloaded)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
