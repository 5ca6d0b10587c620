package domain

import "time"

type AccessibilityFlag string

const (
	AccessMotor   AccessibilityFlag = "motor"
	AccessVisual  AccessibilityFlag = "visual"
	AccessHearing AccessibilityFlag = "hearing"
	AccessMental  AccessibilityFlag = "mental"
)

type StadiumAccessibility struct {
	Motor   bool `json:"motor"`
	Visual  bool `json:"visual"`
	Hearing bool `json:"hearing"`
	Mental  bool `json:"mental"`
}

func (a *StadiumAccessibility) Has(flag AccessibilityFlag) bool {
	if a == nil {
		return false
	}
	switch flag {
	case AccessMotor:
		return a.Motor
	case AccessVisual:
		return a.Visual
	case AccessHearing:
		return a.Hearing
	case AccessMental:
		return a.Mental
	}
	return false
}

// Event is a match as served by the catalog. Tickets keep a copy of it in
// event_details because the event may no longer be fetchable later.
type Event struct {
	ID            ID                    `json:"id"`
	Name          string                `json:"name,omitempty"`
	TeamHomeName  string                `json:"team_home_name,omitempty"`
	TeamAwayName  string                `json:"team_away_name,omitempty"`
	StadiumName   string                `json:"stadium_name,omitempty"`
	Time          *time.Time            `json:"time,omitempty"`
	Accessibility *StadiumAccessibility `json:"stadium_accessibility,omitempty"`
}

func (e Event) Title() string {
	if e.TeamHomeName != "" || e.TeamAwayName != "" {
		return e.TeamHomeName + " vs " + e.TeamAwayName
	}
	if e.Name != "" {
		return e.Name
	}
	return "Event " + e.ID.String()
}

func (e Event) StartsAt() time.Time {
	if e.Time == nil {
		return time.Time{}
	}
	return *e.Time
}
