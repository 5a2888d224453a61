package dashboard

import (
	"sync"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// Mode is the dashboard view mode
type Mode string

const (
	ModeList   Mode = "list"
	ModeDetail Mode = "detail"
)

// SelectionState is a snapshot of a Selection
type SelectionState struct {
	Mode Mode        `json:"mode"`
	Bus  *models.Bus `json:"bus,omitempty"`
}

// Transition describes one state change of a Selection
type Transition struct {
	Action string `json:"action"` // "view", "select", "back"
	From   Mode   `json:"from"`
	To     Mode   `json:"to"`
	BusID  string `json:"busId,omitempty"`
}

// Selection is the list/detail state machine of one dashboard.
// At most one bus is focused at a time; every transition replaces the previous focus.
//
//	LIST      --view(b)-->   DETAIL(b)
//	DETAIL(x) --view(b)-->   DETAIL(b)
//	DETAIL(x) --select(b)--> DETAIL(b)
//	LIST      --select(b)--> LIST, focus b
//	DETAIL(b) --back-->      LIST
//	LIST      --back-->      LIST
type Selection struct {
	mu      sync.RWMutex
	mode    Mode
	focused *models.Bus
}

// NewSelection returns a selection in LIST mode with nothing focused
func NewSelection() *Selection {
	return &Selection{mode: ModeList}
}

// View opens the detail view for b, focusing the bus that triggered navigation
func (s *Selection) View(b models.Bus) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{Action: "view", From: s.mode, To: ModeDetail, BusID: b.ID}
	s.mode = ModeDetail
	s.focused = &b
	return t
}

// Select replaces the focused bus without changing the mode
func (s *Selection) Select(b models.Bus) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{Action: "select", From: s.mode, To: s.mode, BusID: b.ID}
	s.focused = &b
	return t
}

// Back returns to the list view. The focused bus is kept so the list can highlight it.
func (s *Selection) Back() Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{Action: "back", From: s.mode, To: ModeList}
	if s.focused != nil {
		t.BusID = s.focused.ID
	}
	s.mode = ModeList
	return t
}

// Current returns the focused bus, if any
func (s *Selection) Current() (models.Bus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.focused == nil {
		return models.Bus{}, false
	}
	return *s.focused, true
}

// Mode returns the current view mode
func (s *Selection) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// State returns a copy of the current state
func (s *Selection) State() SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SelectionState{Mode: s.mode}
	if s.focused != nil {
		b := *s.focused
		st.Bus = &b
	}
	return st
}
