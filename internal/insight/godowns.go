package insight

import (
	"fmt"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/tally"
)

// Godowns computes the warehouse search insight.
func Godowns(rows []tally.Godown) map[string]any {
	var capacity float64
	missingContact := 0
	locations := make(map[string]*groupStat)
	for _, g := range rows {
		capacity += g.Capacity
		if g.ContactPerson == "" {
			missingContact++
		}
		loc := g.Location
		if loc == "" {
			loc = "Unknown Location"
		}
		l := locations[loc]
		if l == nil {
			l = &groupStat{name: loc}
			locations[loc] = l
		}
		l.count++
		l.total += g.Capacity
	}

	uniqueLocations := 0
	for name := range locations {
		if name != "Unknown Location" {
			uniqueLocations++
		}
	}

	ins := map[string]any{
		"summary":          godownSummary(len(rows)),
		"total_matches":    len(rows),
		"total_capacity":   capacity,
		"unique_locations": uniqueLocations,
	}
	if capacity > 0 {
		ins["capacity_info"] = fmt.Sprintf("Total storage capacity: %s units", formatQty(capacity))
	} else {
		ins["capacity_info"] = "No capacity information available"
	}
	if len(rows) == 0 {
		ins["largest_warehouse"] = nil
		ins["location_summary"] = []any{}
		ins["missing_contacts"] = "All warehouses have contact information"
		return ins
	}

	lw := largestGodown(rows)
	desc := fmt.Sprintf("%s is the largest warehouse with capacity of %s %s",
		lw.Name, formatQty(lw.Capacity), capacityUnit(lw.CapacityUnit))
	if lw.Location != "" {
		desc += " at " + lw.Location
	}
	ins["largest_warehouse"] = map[string]any{
		"name":          lw.Name,
		"capacity":      lw.Capacity,
		"capacity_unit": lw.CapacityUnit,
		"location":      lw.Location,
		"contact":       lw.ContactPerson,
		"description":   desc,
	}

	locationSummary := []any{}
	for _, l := range topGroups(locations, 0, true) {
		locationSummary = append(locationSummary, map[string]any{
			"location":       l.name,
			"godown_count":   l.count,
			"total_capacity": l.total,
			"description":    fmt.Sprintf("%s: %d warehouse(s)", l.name, l.count),
		})
	}
	ins["location_summary"] = locationSummary

	if missingContact > 0 {
		ins["missing_contacts"] = fmt.Sprintf("%d warehouse(s) are missing contact person details", missingContact)
	} else {
		ins["missing_contacts"] = "All warehouses have contact information"
	}
	return ins
}

// GodownRecords builds the cached display rows with their deep links.
func GodownRecords(rows []tally.Godown) []cache.DisplayRecord {
	records := make([]cache.DisplayRecord, len(rows))
	for i, g := range rows {
		records[i] = cache.DisplayRecord{
			Fields: map[string]any{
				"id":               g.ID,
				"code":             g.Code,
				"name":             g.Name,
				"godown_code":      g.GodownCode,
				"address":          g.Address,
				"contact_person":   g.ContactPerson,
				"phone":            g.Phone,
				"email":            g.Email,
				"capacity":         g.Capacity,
				"capacity_unit":    g.CapacityUnit,
				"location_details": g.Location,
			},
			Actions: map[string]string{
				"view_godown": fmt.Sprintf("%s/godowns/%s", deepLinkBase, g.ID),
			},
		}
	}
	return records
}

func godownSummary(n int) string {
	switch n {
	case 0:
		return "No warehouses found matching your criteria."
	case 1:
		return "Found 1 warehouse."
	}
	return fmt.Sprintf("Found %d warehouses.", n)
}

func largestGodown(rows []tally.Godown) tally.Godown {
	best := rows[0]
	for _, g := range rows[1:] {
		if g.Capacity > best.Capacity ||
			(g.Capacity == best.Capacity && g.ID > best.ID) {
			best = g
		}
	}
	return best
}

func capacityUnit(unit string) string {
	if unit == "" {
		return "units"
	}
	return unit
}
