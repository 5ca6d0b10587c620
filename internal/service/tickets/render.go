package tickets

import "github.com/Domenick1991/matchtickets/internal/domain"

// EventGroup is one event header and the tickets listed under it.
type EventGroup struct {
	Key     domain.ID       `json:"event_id"`
	Title   string          `json:"title"`
	Event   *domain.Event   `json:"event,omitempty"`
	Minimal bool            `json:"minimal"`
	Tickets []domain.Ticket `json:"tickets"`
}

// Render groups tickets by event in order of first appearance. A group whose
// tickets carry no event snapshot is marked Minimal.
func Render(tickets []domain.Ticket) []EventGroup {
	groups := make([]EventGroup, 0)
	index := make(map[string]int)

	for _, t := range tickets {
		key := t.EventKey()
		i, ok := index[key.String()]
		if !ok {
			i = len(groups)
			index[key.String()] = i
			groups = append(groups, EventGroup{Key: key, Minimal: true})
		}
		g := &groups[i]
		if g.Event == nil && t.EventDetails != nil {
			details := *t.EventDetails
			g.Event = &details
			g.Minimal = false
		}
		g.Tickets = append(g.Tickets, t)
	}

	for i := range groups {
		if groups[i].Event != nil {
			groups[i].Title = groups[i].Event.Title()
		} else {
			groups[i].Title = domain.Event{ID: groups[i].Key}.Title()
		}
	}
	return groups
}
