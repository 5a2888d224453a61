package dashboard

import (
	"strings"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// AllRoutes is the route filter value that matches every bus
const AllRoutes = "all"

// Filter returns the buses whose id or route label contains query (case-insensitive)
// and whose route label contains routeFilter (case-sensitive) unless routeFilter is AllRoutes.
// The result is always a new slice in fleet order; it is empty, never nil, when nothing matches.
func Filter(buses []models.Bus, query, routeFilter string) []models.Bus {
	out := make([]models.Bus, 0, len(buses))
	for _, b := range buses {
		if query != "" && !containsFold(b.ID, query) && !containsFold(b.Route, query) {
			continue
		}
		if routeFilter != AllRoutes && !strings.Contains(b.Route, routeFilter) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// RouteFilterOptions returns AllRoutes followed by the distinct route origins in fleet order
func RouteFilterOptions(buses []models.Bus) []string {
	options := []string{AllRoutes}
	seen := make(map[string]struct{}, len(buses))
	for _, b := range buses {
		origin := models.RouteOrigin(b.Route)
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		options = append(options, origin)
	}
	return options
}

// OtherBuses returns the fleet without the bus with id selectedID
func OtherBuses(buses []models.Bus, selectedID string) []models.Bus {
	out := make([]models.Bus, 0, len(buses))
	for _, b := range buses {
		if b.ID != selectedID {
			out = append(out, b)
		}
	}
	return out
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
