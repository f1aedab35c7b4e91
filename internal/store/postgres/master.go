package postgres

import (
	"context"
	"database/sql"

	"github.com/vyaapari360/munim/internal/tally"
)

// ListMaster returns one backed master collection as uniform records.
// Collection-specific fields go into Attrs so the tool layer stays
// schema-agnostic.
func (s *Store) ListMaster(ctx context.Context, tn tally.Tenant, collection string) ([]tally.MasterRecord, error) {
	if !tally.CollectionSupported(collection) {
		return nil, &tally.UnsupportedCollectionError{Collection: collection}
	}
	switch tally.NormalizeCollection(collection) {
	case "group":
		return s.listGroups(ctx, tn)
	case "vouchertype":
		return s.listVoucherTypes(ctx, tn)
	case "unit":
		return s.listUnits(ctx, tn)
	case "godown":
		return s.listGodownMasters(ctx, tn)
	case "stockgroup":
		return s.listStockGroups(ctx, tn)
	}
	return nil, &tally.UnsupportedCollectionError{Collection: collection}
}

type groupMasterRow struct {
	ID        string
	Code      sql.NullString
	Name      sql.NullString
	GroupType sql.NullString
	Level     sql.NullInt64
}

func (s *Store) listGroups(ctx context.Context, tn tally.Tenant) ([]tally.MasterRecord, error) {
	var rows []groupMasterRow
	err := s.db.gormDB.WithContext(ctx).Table("tally_groups").
		Select("id::text AS id, group_code AS code, group_name AS name, group_type, level").
		Where("company_id = ? AND division_id = ?", tn.CompanyID, tn.DivisionID).
		Order("group_name").
		Scan(&rows).Error
	if err != nil {
		return nil, dataErr("list groups", err)
	}
	out := make([]tally.MasterRecord, len(rows))
	for i, r := range rows {
		out[i] = tally.MasterRecord{
			ID:   r.ID,
			Code: r.Code.String,
			Name: r.Name.String,
			Attrs: map[string]any{
				"group_type": r.GroupType.String,
				"level":      r.Level.Int64,
			},
		}
	}
	return out, nil
}

type voucherTypeRow struct {
	ID         string
	Code       sql.NullString
	Name       sql.NullString
	ParentType sql.NullString
}

func (s *Store) listVoucherTypes(ctx context.Context, tn tally.Tenant) ([]tally.MasterRecord, error) {
	var rows []voucherTypeRow
	err := s.db.gormDB.WithContext(ctx).Table("tally_voucher_types").
		Select("id::text AS id, voucher_type_code AS code, voucher_type_name AS name, parent_type").
		Where("company_id = ? AND division_id = ?", tn.CompanyID, tn.DivisionID).
		Order("voucher_type_name").
		Scan(&rows).Error
	if err != nil {
		return nil, dataErr("list voucher types", err)
	}
	out := make([]tally.MasterRecord, len(rows))
	for i, r := range rows {
		out[i] = tally.MasterRecord{
			ID:   r.ID,
			Code: r.Code.String,
			Name: r.Name.String,
			Attrs: map[string]any{
				"parent_type": r.ParentType.String,
			},
		}
	}
	return out, nil
}

type unitRow struct {
	ID                    string
	Code                  sql.NullString
	Name                  sql.NullString
	Symbol                sql.NullString
	FormalName            sql.NullString
	UnitType              sql.NullString
	NumberOfDecimalPlaces sql.NullInt64
	ConversionFactor      sql.NullFloat64
}

func (s *Store) listUnits(ctx context.Context, tn tally.Tenant) ([]tally.MasterRecord, error) {
	var rows []unitRow
	err := s.db.gormDB.WithContext(ctx).Table("tally_units").
		Select("id::text AS id, unit_code AS code, unit_name AS name, symbol, formal_name, "+
			"unit_type, number_of_decimal_places, conversion_factor").
		Where("company_id = ? AND division_id = ?", tn.CompanyID, tn.DivisionID).
		Order("unit_name").
		Scan(&rows).Error
	if err != nil {
		return nil, dataErr("list units", err)
	}
	out := make([]tally.MasterRecord, len(rows))
	for i, r := range rows {
		out[i] = tally.MasterRecord{
			ID:   r.ID,
			Code: r.Code.String,
			Name: r.Name.String,
			Attrs: map[string]any{
				"symbol":                   r.Symbol.String,
				"formal_name":              r.FormalName.String,
				"unit_type":                r.UnitType.String,
				"number_of_decimal_places": r.NumberOfDecimalPlaces.Int64,
				"conversion_factor":        r.ConversionFactor.Float64,
			},
		}
	}
	return out, nil
}

func (s *Store) listGodownMasters(ctx context.Context, tn tally.Tenant) ([]tally.MasterRecord, error) {
	var rows []godownRow
	err := s.db.gormDB.WithContext(ctx).Table("tally_godowns").
		Select("id::text AS id, COALESCE(tally_guid, '') AS code, godown_name AS name, godown_code, "+
			"address, contact_person, phone, email, capacity, capacity_unit, location_details").
		Where("company_id = ? AND division_id = ?", tn.CompanyID, tn.DivisionID).
		Order("godown_name").
		Scan(&rows).Error
	if err != nil {
		return nil, dataErr("list godowns", err)
	}
	out := make([]tally.MasterRecord, len(rows))
	for i, r := range rows {
		out[i] = tally.MasterRecord{
			ID:   r.ID,
			Code: r.Code.String,
			Name: r.Name.String,
			Attrs: map[string]any{
				"godown_code":      r.GodownCode.String,
				"address":          r.Address.String,
				"contact_person":   r.ContactPerson.String,
				"phone":            r.Phone.String,
				"email":            r.Email.String,
				"capacity":         r.Capacity.Float64,
				"capacity_unit":    r.CapacityUnit.String,
				"location_details": r.LocationDetails.String,
			},
		}
	}
	return out, nil
}

type stockGroupRow struct {
	ID      string
	Code    sql.NullString
	Name    sql.NullString
	HsnSac  sql.NullString
	GstRate sql.NullFloat64
}

func (s *Store) listStockGroups(ctx context.Context, tn tally.Tenant) ([]tally.MasterRecord, error) {
	var rows []stockGroupRow
	err := s.db.gormDB.WithContext(ctx).Table("tally_stock_groups").
		Select("id::text AS id, group_code AS code, group_name AS name, hsn_sac, gst_rate").
		Where("company_id = ? AND division_id = ?", tn.CompanyID, tn.DivisionID).
		Order("group_name").
		Scan(&rows).Error
	if err != nil {
		return nil, dataErr("list stock groups", err)
	}
	out := make([]tally.MasterRecord, len(rows))
	for i, r := range rows {
		out[i] = tally.MasterRecord{
			ID:   r.ID,
			Code: r.Code.String,
			Name: r.Name.String,
			Attrs: map[string]any{
				"hsn_sac":  r.HsnSac.String,
				"gst_rate": r.GstRate.Float64,
			},
		}
	}
	return out, nil
}
