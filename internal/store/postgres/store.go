package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tally"
)

// Store implements store.Store over the tally_* tables.
type Store struct {
	db *DB
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Voucher totals are summed from the entry lines, not read off the voucher
// row, so unbalanced imports still report what was actually posted.
const (
	totalDebitExpr  = "COALESCE((SELECT SUM(tve.debit_amount) FROM tally_voucher_entries tve WHERE tve.voucher_id = v.id), 0)"
	totalCreditExpr = "COALESCE((SELECT SUM(tve.credit_amount) FROM tally_voucher_entries tve WHERE tve.voucher_id = v.id), 0)"
)

type voucherRow struct {
	ID                string
	VoucherNumber     sql.NullString
	VoucherType       sql.NullString
	VoucherDate       sql.NullTime
	PartyLedgerName   sql.NullString
	Reference         sql.NullString
	IsBalanced        sql.NullBool
	BalanceDifference sql.NullFloat64
	TotalDebit        float64
	TotalCredit       float64
}

func (s *Store) SearchVouchers(ctx context.Context, req *search.Request) ([]tally.Voucher, error) {
	q := s.db.gormDB.WithContext(ctx).Table("tally_vouchers AS v").
		Select("v.id::text AS id, v.voucher_number, v.voucher_type, "+
			"COALESCE(v.voucher_date, v.date) AS voucher_date, v.party_ledger_name, "+
			"v.reference, v.is_balanced, v.balance_difference, "+
			totalDebitExpr+" AS total_debit, "+totalCreditExpr+" AS total_credit").
		Where("v.company_id = ? AND v.division_id = ?", req.Tenant.CompanyID, req.Tenant.DivisionID)

	for _, p := range req.Predicates {
		switch p.Field {
		case "voucher_type":
			q = applyText(q, "v.voucher_type", p)
		case "voucher_number":
			q = applyText(q, "v.voucher_number", p)
		case "reference":
			q = applyText(q, "v.reference", p)
		case "party_name":
			q = applyText(q, "v.party_ledger_name", p)
		case "voucher_date":
			if p.From != "" {
				q = q.Where("COALESCE(v.voucher_date, v.date) >= ?", p.From)
			}
			if p.To != "" {
				q = q.Where("COALESCE(v.voucher_date, v.date) <= ?", p.To)
			}
		case "total_debit":
			if p.Min != nil {
				q = q.Where(totalDebitExpr+" >= ?", *p.Min)
			}
			if p.Max != nil {
				q = q.Where(totalDebitExpr+" <= ?", *p.Max)
			}
		}
	}

	var rows []voucherRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, dataErr("search vouchers", err)
	}

	out := make([]tally.Voucher, len(rows))
	for i, r := range rows {
		var date time.Time
		if r.VoucherDate.Valid {
			date = r.VoucherDate.Time
		}
		out[i] = tally.Voucher{
			ID:                r.ID,
			Number:            r.VoucherNumber.String,
			Type:              r.VoucherType.String,
			Date:              date,
			PartyLedgerName:   r.PartyLedgerName.String,
			Reference:         r.Reference.String,
			IsBalanced:        r.IsBalanced.Bool,
			BalanceDifference: r.BalanceDifference.Float64,
			TotalDebit:        r.TotalDebit,
			TotalCredit:       r.TotalCredit,
		}
	}
	return out, nil
}

type ledgerRow struct {
	ID             string
	Name           sql.NullString
	GroupName      sql.NullString
	OpeningBalance sql.NullFloat64
	ClosingBalance sql.NullFloat64
	Gstin          sql.NullString
}

func (s *Store) SearchLedgers(ctx context.Context, req *search.Request) ([]tally.Ledger, error) {
	q := s.db.gormDB.WithContext(ctx).Table("tally_ledgers AS l").
		Select("l.id::text AS id, l.name, l.group_name, l.opening_balance, l.closing_balance, l.gstin").
		Where("l.company_id = ? AND l.division_id = ?", req.Tenant.CompanyID, req.Tenant.DivisionID)

	for _, p := range req.Predicates {
		switch p.Field {
		case "ledger_name":
			q = applyText(q, "l.name", p)
		case "group_name":
			q = applyText(q, "l.group_name", p)
		case "gstin":
			q = applyText(q, "l.gstin", p)
		case "opening_balance":
			q = applyBounds(q, "l.opening_balance", p)
		case "closing_balance":
			q = applyBounds(q, "l.closing_balance", p)
		}
	}

	var rows []ledgerRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, dataErr("search ledgers", err)
	}

	out := make([]tally.Ledger, len(rows))
	for i, r := range rows {
		out[i] = tally.Ledger{
			ID:             r.ID,
			Name:           r.Name.String,
			GroupName:      r.GroupName.String,
			OpeningBalance: r.OpeningBalance.Float64,
			ClosingBalance: r.ClosingBalance.Float64,
			GSTIN:          r.Gstin.String,
		}
	}
	return out, nil
}

type stockItemRow struct {
	ID                     string
	Code                   sql.NullString
	Name                   sql.NullString
	StockGroupName         sql.NullString
	GstHsnCode             sql.NullString
	GstRate                sql.NullFloat64
	OpeningBalanceQuantity sql.NullFloat64
	OpeningBalanceValue    sql.NullFloat64
}

func (s *Store) SearchStockItems(ctx context.Context, req *search.Request) ([]tally.StockItem, error) {
	q := s.db.gormDB.WithContext(ctx).Table("tally_stock_items").
		Select("id::text AS id, COALESCE(item_code, tally_guid, '') AS code, item_name AS name, "+
			"stock_group_name, gst_hsn_code, gst_rate, opening_balance_quantity, opening_balance_value").
		Where("company_id = ? AND division_id = ?", req.Tenant.CompanyID, req.Tenant.DivisionID)

	for _, p := range req.Predicates {
		switch p.Field {
		case "item_name":
			q = applyText(q, "item_name", p)
		case "item_code":
			q = q.Where("item_code ILIKE ? OR tally_guid ILIKE ?", "%"+p.Text+"%", "%"+p.Text+"%")
		case "stock_group":
			q = applyText(q, "stock_group_name", p)
		case "gst_hsn_code":
			q = applyText(q, "gst_hsn_code", p)
		}
	}

	var rows []stockItemRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, dataErr("search stock items", err)
	}

	out := make([]tally.StockItem, len(rows))
	for i, r := range rows {
		out[i] = tally.StockItem{
			ID:              r.ID,
			Code:            r.Code.String,
			Name:            r.Name.String,
			StockGroup:      r.StockGroupName.String,
			HSNCode:         r.GstHsnCode.String,
			GSTRate:         r.GstRate.Float64,
			OpeningQuantity: r.OpeningBalanceQuantity.Float64,
			OpeningValue:    r.OpeningBalanceValue.Float64,
		}
	}
	return out, nil
}

type godownRow struct {
	ID              string
	Code            sql.NullString
	Name            sql.NullString
	GodownCode      sql.NullString
	Address         sql.NullString
	ContactPerson   sql.NullString
	Phone           sql.NullString
	Email           sql.NullString
	Capacity        sql.NullFloat64
	CapacityUnit    sql.NullString
	LocationDetails sql.NullString
}

func (s *Store) SearchGodowns(ctx context.Context, req *search.Request) ([]tally.Godown, error) {
	q := s.db.gormDB.WithContext(ctx).Table("tally_godowns").
		Select("id::text AS id, COALESCE(tally_guid, '') AS code, godown_name AS name, godown_code, "+
			"address, contact_person, phone, email, capacity, capacity_unit, location_details").
		Where("company_id = ? AND division_id = ?", req.Tenant.CompanyID, req.Tenant.DivisionID)

	for _, p := range req.Predicates {
		switch p.Field {
		case "godown_name":
			q = applyText(q, "godown_name", p)
		case "godown_code":
			q = q.Where("godown_code ILIKE ? OR tally_guid ILIKE ?", "%"+p.Text+"%", "%"+p.Text+"%")
		case "location":
			q = q.Where("location_details ILIKE ? OR address ILIKE ?", "%"+p.Text+"%", "%"+p.Text+"%")
		}
	}

	var rows []godownRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, dataErr("search godowns", err)
	}

	out := make([]tally.Godown, len(rows))
	for i, r := range rows {
		out[i] = tally.Godown{
			ID:            r.ID,
			Code:          r.Code.String,
			Name:          r.Name.String,
			GodownCode:    r.GodownCode.String,
			Address:       r.Address.String,
			ContactPerson: r.ContactPerson.String,
			Phone:         r.Phone.String,
			Email:         r.Email.String,
			Capacity:      r.Capacity.Float64,
			CapacityUnit:  r.CapacityUnit.String,
			Location:      r.LocationDetails.String,
		}
	}
	return out, nil
}

func applyText(q *gorm.DB, col string, p search.Predicate) *gorm.DB {
	switch p.Op {
	case search.OpContains:
		return q.Where(col+" ILIKE ?", "%"+p.Text+"%")
	case search.OpEquals:
		return q.Where("LOWER("+col+") = LOWER(?)", p.Text)
	case search.OpExact:
		return q.Where(col+" = ?", p.Text)
	}
	return q
}

func applyBounds(q *gorm.DB, col string, p search.Predicate) *gorm.DB {
	if p.Min != nil {
		q = q.Where(col+" >= ?", *p.Min)
	}
	if p.Max != nil {
		q = q.Where(col+" <= ?", *p.Max)
	}
	return q
}

// dataErr classifies a query failure so tool handlers can distinguish
// timeouts from other store errors.
func dataErr(op string, err error) error {
	return &tally.DataAccessError{
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}
