package tally

import "strings"

// MasterCollections is the full set of collection names the model may ask
// for. Only a subset is backed by the store; the rest return a structured
// unsupported error rather than a hard failure.
var MasterCollections = []string{
	"Group", "Ledger", "VoucherType", "Unit", "Godown",
	"StockGroup", "StockItem", "CostCentre", "CostCategory",
	"AttendanceType", "Company", "Currency", "GSTIN",
	"GSTClassification",
}

// SupportedCollections are the master collections the store can serve.
var SupportedCollections = []string{"group", "vouchertype", "unit", "godown", "stockgroup"}

// NormalizeCollection lowercases and trims a collection name so lookups
// are case-insensitive ("VoucherType" and "vouchertype" are the same).
func NormalizeCollection(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CollectionSupported reports whether the store backs the given collection.
func CollectionSupported(name string) bool {
	n := NormalizeCollection(name)
	for _, s := range SupportedCollections {
		if n == s {
			return true
		}
	}
	return false
}
