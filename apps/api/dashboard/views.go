package dashboard

import (
	"errors"
	"fmt"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// ErrUnknownTab is returned when a tab name is not one of Tabs()
var ErrUnknownTab = errors.New("unknown tab")

// Tab is a top-level dashboard section
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabRoutes    Tab = "routes"
	TabStops     Tab = "stops"
	TabAbout     Tab = "about"
	TabSettings  Tab = "settings"
)

// TabInfo is a tab with its navigation label
type TabInfo struct {
	ID    Tab    `json:"id"`
	Label string `json:"label"`
}

// Tabs returns the dashboard tabs in navigation order
func Tabs() []TabInfo {
	return []TabInfo{
		{ID: TabDashboard, Label: "Dashboard"},
		{ID: TabRoutes, Label: "Routes"},
		{ID: TabStops, Label: "Stops & ETA"},
		{ID: TabAbout, Label: "About"},
		{ID: TabSettings, Label: "Settings"},
	}
}

// ParseTab validates a tab name
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs() {
		if string(t.ID) == s {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// ViewKind names the concrete type of a View
type ViewKind string

const (
	KindList     ViewKind = "list"
	KindDetail   ViewKind = "detail"
	KindRoutes   ViewKind = "routes"
	KindStops    ViewKind = "stops"
	KindAbout    ViewKind = "about"
	KindSettings ViewKind = "settings"
)

// NoBusesMessage is shown when a fleet filter matches nothing
const NoBusesMessage = "No buses found"

// View is one of ListView, DetailView, RoutesView, StopsView, AboutView or SettingsView
type View interface {
	isView()
}

// ListView is the filtered fleet
type ListView struct {
	Query        string       `json:"query"`
	RouteFilter  string       `json:"routeFilter"`
	RouteOptions []string     `json:"routeOptions"`
	Buses        []models.Bus `json:"buses"`
	Empty        bool         `json:"empty"`
	EmptyMessage string       `json:"emptyMessage,omitempty"`
	FocusedBusID string       `json:"focusedBusId,omitempty"`
}

// DetailView is the live view of one bus and a quick switch list of the others
type DetailView struct {
	Bus        models.Bus   `json:"bus"`
	OtherBuses []models.Bus `json:"otherBuses"`
}

// RoutesView lists every route with its status label
type RoutesView struct {
	Routes []models.RouteCard `json:"routes"`
}

// StopsView is the journey planner and the popular stops list
type StopsView struct {
	Planner      PlannerState         `json:"planner"`
	PopularStops []models.PopularStop `json:"popularStops"`
}

// AboutView describes the service
type AboutView struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Features []string `json:"features"`
}

// SettingsView is the settings placeholder
type SettingsView struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (ListView) isView()     {}
func (DetailView) isView()   {}
func (RoutesView) isView()   {}
func (StopsView) isView()    {}
func (AboutView) isView()    {}
func (SettingsView) isView() {}

// Kind returns the kind of v, or "" for nil
func Kind(v View) ViewKind {
	switch v.(type) {
	case ListView:
		return KindList
	case DetailView:
		return KindDetail
	case RoutesView:
		return KindRoutes
	case StopsView:
		return KindStops
	case AboutView:
		return KindAbout
	case SettingsView:
		return KindSettings
	default:
		return ""
	}
}

// Envelope is the wire form of a View
type Envelope struct {
	Kind ViewKind `json:"kind"`
	View View     `json:"view"`
}

// NewEnvelope tags v with its kind
func NewEnvelope(v View) Envelope {
	return Envelope{Kind: Kind(v), View: v}
}

func newListView(buses []models.Bus, query, routeFilter string, focused string) ListView {
	visible := Filter(buses, query, routeFilter)
	v := ListView{
		Query:        query,
		RouteFilter:  routeFilter,
		RouteOptions: RouteFilterOptions(buses),
		Buses:        visible,
		Empty:        len(visible) == 0,
		FocusedBusID: focused,
	}
	if v.Empty {
		v.EmptyMessage = NoBusesMessage
	}
	return v
}

func newRoutesView(routes []models.Route) RoutesView {
	cards := make([]models.RouteCard, 0, len(routes))
	for i := range routes {
		cards = append(cards, routes[i].ToRouteCard())
	}
	return RoutesView{Routes: cards}
}

func newAboutView() AboutView {
	return AboutView{
		Title:   "SmartTransit",
		Summary: "Live bus tracking, route information and journey planning for passengers.",
		Features: []string{
			"Live bus tracking",
			"Route overview",
			"Stop ETAs and journey planning",
		},
	}
}

func newSettingsView() SettingsView {
	return SettingsView{
		Title:   "Settings",
		Message: "Theme toggle available in header",
	}
}
