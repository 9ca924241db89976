package transform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwatch/internal/models"
	"spendwatch/internal/table"
)

func TestCombine_DedupByMaxAmount(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t)

	// Six rows, two sharing ABC123; the 500k row comes first so
	// first-seen wins for descriptive columns while max wins for the
	// amount and end date.
	a := writeCSV(t, dir, "a_flagged.csv",
		procHeader,
		procRow("ABC123", "diversity training services", "B", "400000", "500000", "2025-12-31", "First Vendor"),
		procRow("DEF456", "equity consulting", "C", "100000", "150000", "2026-01-01", "Vendor D"),
		procRow("GHI789", "inclusion workshops", "C", "200000", "250000", "2026-06-30", "Vendor G"),
	)
	b := writeCSV(t, dir, "b_flagged.csv",
		procHeader,
		procRow("ABC123", "follow-on diversity training", "D", "800000", "900000", "2027-03-31", "Second Vendor"),
		procRow("JKL012", "gender equity study", "C", "50000", "75000", "2026-02-02", "Vendor J"),
		procRow("MNO345", "diversity outreach", "C", "10000", "20000", "2026-03-03", "Vendor M"),
	)

	out := filepath.Join(dir, "DOE_procurement_flagged_master.csv")
	require.NoError(t, p.Combine([]string{a, b}, out, models.AwardTypeProcurement))

	tbl, err := table.ReadCSV(out)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 5, "exactly one row per unique award id")

	idIdx := tbl.ColumnIndex("award_id_piid")
	require.GreaterOrEqual(t, idIdx, 0)

	var abc []string

	for _, row := range tbl.Rows {
		if row[idIdx] == "ABC123" {
			abc = row
			break
		}
	}

	require.NotNil(t, abc)
	assert.Equal(t, "900000", abc[tbl.ColumnIndex("current_total_value_of_award")])
	// Descriptive fields keep the first-seen values even though the
	// amount came from the later row.
	assert.Equal(t, "diversity training services", abc[tbl.ColumnIndex("prime_award_base_transaction_description")])
	assert.Equal(t, "First Vendor", abc[tbl.ColumnIndex("recipient_name")])
	// action_type_code takes the last value; end date takes the max.
	assert.Equal(t, "D", abc[tbl.ColumnIndex("action_type_code")])
	assert.Equal(t, "2027-03-31", abc[tbl.ColumnIndex("period_of_performance_current_end_date")])
}

func TestCombine_SchemaMismatchFails(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t)

	a := writeCSV(t, dir, "a.csv", procHeader, procRow("A1", "x", "C", "1", "2", "2026-01-01", "V"))
	b := writeCSV(t, dir, "b.csv", "award_id_piid,other_column", "A2,zzz")

	err := p.Combine([]string{a, b}, filepath.Join(dir, "out.csv"), models.AwardTypeProcurement)
	assert.ErrorIs(t, err, table.ErrSchemaMismatch)
}

func TestCombine_NoInputs(t *testing.T) {
	p := newTestProcessor(t)

	err := p.Combine(nil, "out.csv", models.AwardTypeProcurement)
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestCombine_GrantAggregation(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t)

	header := "award_id_fain,prime_award_base_transaction_description,total_obligated_amount,period_of_performance_current_end_date,recipient_name,awarding_agency_name"
	a := writeCSV(t, dir, "g_flagged.csv",
		header,
		"FAIN1,diversity grant,100000,2026-01-01,College A,Department of Education",
		"FAIN1,diversity grant amended,300000,2025-06-30,College A Amended,Department of Education",
		"FAIN2,equity grant,50000,2026-05-05,College B,Department of Education",
	)

	out := filepath.Join(dir, "ED_grant_flagged_master.csv")
	require.NoError(t, p.Combine([]string{a}, out, models.AwardTypeGrant))

	tbl, err := table.ReadCSV(out)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	first := tbl.Rows[0]
	assert.Equal(t, "FAIN1", first[0])
	assert.Equal(t, "300000", first[tbl.ColumnIndex("total_obligated_amount")])
	assert.Equal(t, "diversity grant", first[tbl.ColumnIndex("prime_award_base_transaction_description")])
	assert.Equal(t, "2026-01-01", first[tbl.ColumnIndex("period_of_performance_current_end_date")])
}

func TestCombine_MissingAggColumn(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t)

	// No action_type_code column anywhere: the procurement aggregation
	// table cannot be applied.
	header := "award_id_piid,prime_award_base_transaction_description,current_total_value_of_award,period_of_performance_current_end_date,recipient_name,awarding_agency_name"
	a := writeCSV(t, dir, "a.csv", header, "A1,x,100,2026-01-01,V,Dept")

	err := p.Combine([]string{a}, filepath.Join(dir, "out.csv"), models.AwardTypeProcurement)
	assert.ErrorIs(t, err, ErrMissingAggColumn)
}
