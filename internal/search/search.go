// Package search turns tool arguments into canonical predicate sets with a
// stable cache key, and defines the matching and ordering rules shared by
// every store backend.
package search

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

// Op is a predicate operator.
type Op string

const (
	OpEquals   Op = "equals"   // case-insensitive equality
	OpContains Op = "contains" // case-insensitive substring
	OpRange    Op = "range"    // numeric or date bounds, inclusive
	OpExact    Op = "exact"    // case-sensitive equality
)

// Predicate is one normalized filter. Predicates on a request combine
// conjunctively; an absent field imposes no constraint.
type Predicate struct {
	Field string   `json:"field"`
	Op    Op       `json:"op"`
	Text  string   `json:"text,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	From  string   `json:"from,omitempty"` // date lower bound, YYYY-MM-DD
	To    string   `json:"to,omitempty"`   // date upper bound, YYYY-MM-DD
}

// Request is an immutable, tenant-scoped search. Build one through the
// entity normalizers; do not mutate it afterwards.
type Request struct {
	Tenant     tally.Tenant
	Entity     tally.EntityType
	Predicates []Predicate
}

// cacheKeyPayload fixes the JSON field order so the key is stable across
// process runs.
type cacheKeyPayload struct {
	CompanyID  string      `json:"company_id"`
	DivisionID string      `json:"division_id"`
	Entity     string      `json:"entity"`
	Filters    []Predicate `json:"filters"`
}

// CacheKey derives a deterministic key from tenant, entity and the sorted
// predicate set. Identical searches always collide, which is what makes
// cached envelopes re-addressable by later lookups.
func (r *Request) CacheKey() string {
	preds := make([]Predicate, len(r.Predicates))
	copy(preds, r.Predicates)
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Field != preds[j].Field {
			return preds[i].Field < preds[j].Field
		}
		return preds[i].Op < preds[j].Op
	})
	data, _ := json.Marshal(cacheKeyPayload{
		CompanyID:  r.Tenant.CompanyID,
		DivisionID: r.Tenant.DivisionID,
		Entity:     string(r.Entity),
		Filters:    preds,
	})
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}

// TextFilter returns the text of the predicate on field, or "" when the
// request carries no such predicate.
func (r *Request) TextFilter(field string) string {
	for _, p := range r.Predicates {
		if p.Field == field && p.Op != OpRange {
			return p.Text
		}
	}
	return ""
}

// dateLayout is the wire format for date filters and record dates.
const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD filter value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
