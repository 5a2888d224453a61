package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
)

func createSession(t *testing.T, h http.Handler) dashboard.SessionState {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var st dashboard.SessionState
	decode(t, rec, &st)
	if rec.Header().Get("Location") != "/api/sessions/"+st.ID {
		t.Errorf("unexpected Location header: %s", rec.Header().Get("Location"))
	}
	return st
}

type envelope struct {
	Kind string                 `json:"kind"`
	View map[string]interface{} `json:"view"`
}

func TestSessions_CreateAndGet(t *testing.T) {
	m := &countingMetrics{}
	router, _ := newSessionRouter(t, 0, m)

	st := createSession(t, router)
	if st.Tab != dashboard.TabDashboard || st.Selection.Mode != dashboard.ModeList {
		t.Errorf("unexpected new session: %+v", st)
	}
	if m.sessions != 1 {
		t.Errorf("expected 1 session observation, got %d", m.sessions)
	}

	rec := do(t, router, http.MethodGet, "/api/sessions/"+st.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if rec := do(t, router, http.MethodGet, "/api/sessions/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", rec.Code)
	}

	if rec := do(t, router, http.MethodDelete, "/api/sessions/"+st.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/api/sessions/"+st.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestSessions_TabsAndFilter(t *testing.T) {
	router, _ := newSessionRouter(t, 0, nil)
	id := createSession(t, router).ID
	base := "/api/sessions/" + id

	var env envelope
	decode(t, do(t, router, http.MethodGet, base+"/view", ""), &env)
	if env.Kind != "list" {
		t.Errorf("expected list view, got %s", env.Kind)
	}

	rec := do(t, router, http.MethodPut, base+"/filter", `{"query":"university","routeFilter":"all"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env = envelope{}
	decode(t, rec, &env)
	if buses, _ := env.View["buses"].([]interface{}); len(buses) != 1 {
		t.Errorf("expected one filtered bus, got %v", env.View["buses"])
	}

	rec = do(t, router, http.MethodPut, base+"/tab", `{"tab":"routes"}`)
	env = envelope{}
	decode(t, rec, &env)
	if env.Kind != "routes" {
		t.Errorf("expected routes view, got %s", env.Kind)
	}

	if rec := do(t, router, http.MethodPut, base+"/tab", `{"tab":"map"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tab, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, base+"/tab", `{"tab":`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestSessions_SelectionStateMachine(t *testing.T) {
	router, _ := newSessionRouter(t, 0, nil)
	base := "/api/sessions/" + createSession(t, router).ID

	var st dashboard.SelectionState
	decode(t, do(t, router, http.MethodPost, base+"/selection/view", `{"busId":"BUS-003"}`), &st)
	if st.Mode != dashboard.ModeDetail || st.Bus == nil || st.Bus.ID != "BUS-003" {
		t.Fatalf("expected DETAIL(BUS-003), got %+v", st)
	}

	var env envelope
	decode(t, do(t, router, http.MethodGet, base+"/view", ""), &env)
	if env.Kind != "detail" {
		t.Errorf("expected detail view, got %s", env.Kind)
	}
	if others, _ := env.View["otherBuses"].([]interface{}); len(others) != 3 {
		t.Errorf("expected 3 other buses, got %v", env.View["otherBuses"])
	}

	st = dashboard.SelectionState{}
	decode(t, do(t, router, http.MethodPost, base+"/selection/select", `{"busId":"BUS-002"}`), &st)
	if st.Mode != dashboard.ModeDetail || st.Bus.ID != "BUS-002" {
		t.Errorf("expected DETAIL(BUS-002), got %+v", st)
	}

	st = dashboard.SelectionState{}
	decode(t, do(t, router, http.MethodPost, base+"/selection/back", ""), &st)
	if st.Mode != dashboard.ModeList {
		t.Errorf("expected LIST, got %+v", st)
	}

	if rec := do(t, router, http.MethodPost, base+"/selection/view", `{"busId":"BUS-999"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown bus, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, base+"/selection/view", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without busId, got %d", rec.Code)
	}
}

func TestSessions_JourneySearch(t *testing.T) {
	m := &countingMetrics{}
	router, _ := newSessionRouter(t, 50*time.Millisecond, m)
	base := "/api/sessions/" + createSession(t, router).ID

	if rec := do(t, router, http.MethodPost, base+"/journey/search", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without pickup, got %d", rec.Code)
	}

	var planner dashboard.PlannerState
	decode(t, do(t, router, http.MethodPut, base+"/journey", `{"pickup":"Central","destination":"Airport"}`), &planner)
	if planner.Pickup != "Central" || planner.Destination != "Airport" {
		t.Fatalf("unexpected planner: %+v", planner)
	}

	rec := do(t, router, http.MethodPost, base+"/journey/search", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	planner = dashboard.PlannerState{}
	decode(t, rec, &planner)
	if !planner.Searching {
		t.Error("planner should be searching after start")
	}

	if rec := do(t, router, http.MethodPost, base+"/journey/search", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while searching, got %d", rec.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		planner = dashboard.PlannerState{}
		decode(t, do(t, router, http.MethodGet, base+"/journey", ""), &planner)
		if !planner.Searching {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("search did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(planner.Results) != 2 || planner.Results[0].BusID != "BUS-001" || planner.Results[1].ETA != "8 min" {
		t.Errorf("unexpected results: %+v", planner.Results)
	}
	if len(m.outcomes) != 2 || m.outcomes[0] != OutcomeRejected || m.outcomes[1] != OutcomeRejected {
		t.Errorf("unexpected rejected outcomes: %v", m.outcomes)
	}
}

func TestSessions_IntermediateStops(t *testing.T) {
	router, _ := newSessionRouter(t, 0, nil)
	base := "/api/sessions/" + createSession(t, router).ID

	rec := do(t, router, http.MethodPost, base+"/journey/stops", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var added AddStopResponse
	decode(t, rec, &added)
	if added.Index != 0 || len(added.Planner.IntermediateStops) != 1 {
		t.Errorf("unexpected add response: %+v", added)
	}

	do(t, router, http.MethodPost, base+"/journey/stops", `{"name":"Tech Park"}`)

	var planner dashboard.PlannerState
	decode(t, do(t, router, http.MethodPut, base+"/journey/stops/0", `{"name":"Marine Drive"}`), &planner)
	if planner.IntermediateStops[0] != "Marine Drive" || planner.IntermediateStops[1] != "Tech Park" {
		t.Errorf("unexpected stops: %v", planner.IntermediateStops)
	}

	planner = dashboard.PlannerState{}
	decode(t, do(t, router, http.MethodDelete, base+"/journey/stops/0", ""), &planner)
	if len(planner.IntermediateStops) != 1 || planner.IntermediateStops[0] != "Tech Park" {
		t.Errorf("unexpected stops after delete: %v", planner.IntermediateStops)
	}

	if rec := do(t, router, http.MethodDelete, base+"/journey/stops/7", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing index, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, base+"/journey/stops/first", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric index, got %d", rec.Code)
	}
}
