// Package tally defines the ERP domain model: tenant context, searchable
// entities (vouchers, ledgers, stock items, godowns) and master records.
package tally

import "time"

// Tenant scopes every query to one company and division.
// Both IDs are required; a store must never run an unscoped query.
type Tenant struct {
	CompanyID  string
	DivisionID string
}

// Valid reports whether both tenant identifiers are present.
func (t Tenant) Valid() bool {
	return t.CompanyID != "" && t.DivisionID != ""
}

// EntityType identifies which searchable collection a result set came from.
type EntityType string

const (
	EntityVouchers   EntityType = "vouchers"
	EntityLedgers    EntityType = "ledgers"
	EntityStockItems EntityType = "stockitems"
	EntityGodowns    EntityType = "godowns"
)

// Voucher is a posted transaction. TotalDebit and TotalCredit are summed
// from the voucher's entry lines, not stored on the voucher itself.
type Voucher struct {
	ID                string
	Number            string
	Type              string
	Date              time.Time
	PartyLedgerName   string
	Reference         string
	IsBalanced        bool
	BalanceDifference float64
	TotalDebit        float64
	TotalCredit       float64
}

// Ledger is an account. Positive closing balance means receivable,
// negative means payable.
type Ledger struct {
	ID             string
	Name           string
	GroupName      string
	OpeningBalance float64
	ClosingBalance float64
	GSTIN          string
}

// StockItem is an inventory item with its opening stock position.
type StockItem struct {
	ID              string
	Code            string
	Name            string
	StockGroup      string
	HSNCode         string
	GSTRate         float64
	OpeningQuantity float64
	OpeningValue    float64
}

// Godown is a warehouse or storage location.
type Godown struct {
	ID            string
	Code          string
	Name          string
	GodownCode    string
	Address       string
	ContactPerson string
	Phone         string
	Email         string
	Capacity      float64
	CapacityUnit  string
	Location      string
}

// MasterRecord is the uniform shape for master data listings.
// Attrs carries the collection-specific fields.
type MasterRecord struct {
	ID    string         `json:"id"`
	Code  string         `json:"code"`
	Name  string         `json:"name"`
	Attrs map[string]any `json:"attrs"`
}
