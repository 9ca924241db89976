package filter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/table"
)

var testColumns = []string{
	"award_id_piid",
	"current_total_value_of_award",
	"prime_award_base_transaction_description",
	"recipient_name",
}

func writeMaster(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	tbl := table.New(testColumns)
	tbl.Rows = rows

	path := filepath.Join(dir, name)
	require.NoError(t, tbl.WriteCSV(path))

	return path
}

func newFilter(t *testing.T, words ...string) *Filter {
	t.Helper()

	pattern, err := keyword.Compile(words)
	require.NoError(t, err)

	return New(pattern, logger.NewNop())
}

func TestFilterFileAmountThreshold(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "diversity")

	path := writeMaster(t, dir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "500000", "diversity training", "Vendor A"},
		{"A2", "499999.99", "diversity training", "Vendor B"},
		{"A3", "$1,200,000.00", "diversity consulting", "Vendor C"},
	})

	res, err := f.FilterFile(path, 500000, dir)
	require.NoError(t, err)
	require.NotEmpty(t, res.OutputPath)
	assert.Equal(t, filepath.Join(dir, "filtered_DOE_procurement_flagged_master.csv"), res.OutputPath)

	out, err := table.ReadCSV(res.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)

	// Sorted descending by amount, threshold inclusive.
	assert.Equal(t, "A3", out.Rows[0][0])
	assert.Equal(t, "A1", out.Rows[1][0])
}

func TestFilterFileUnparsedAmountsExcluded(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "diversity")

	path := writeMaster(t, dir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "not a number", "diversity training", "Vendor A"},
		{"A2", "", "diversity training", "Vendor B"},
		{"A3", "900000", "diversity training", "Vendor C"},
	})

	res, err := f.FilterFile(path, 500000, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.UnparsedRows)

	out, err := table.ReadCSV(res.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "A3", out.Rows[0][0])
}

func TestFilterFileDedupKeepsMaxAmount(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "diversity")

	path := writeMaster(t, dir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "600000", "diversity base award", "Vendor A"},
		{"A1", "900000", "diversity modification", "Vendor A"},
		{"A2", "700000", "diversity program", "First Seen"},
		{"A2", "700000", "diversity program", "Second Seen"},
	})

	res, err := f.FilterFile(path, 500000, dir)
	require.NoError(t, err)

	out, err := table.ReadCSV(res.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)

	assert.Equal(t, "A1", out.Rows[0][0])
	assert.Equal(t, "900000", out.Rows[0][1])
	assert.Equal(t, "A2", out.Rows[1][0])
	assert.Equal(t, "First Seen", out.Rows[1][3])
}

func TestFilterFileKeywordNarrowing(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "equity")

	path := writeMaster(t, dir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "800000", "diversity training only", "Vendor A"},
		{"A2", "800000", "equity and inclusion program", "Vendor B"},
	})

	res, err := f.FilterFile(path, 500000, dir)
	require.NoError(t, err)

	out, err := table.ReadCSV(res.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "A2", out.Rows[0][0])
}

func TestFilterFileNoSurvivorsWritesNothing(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "diversity")

	path := writeMaster(t, dir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "100", "diversity training", "Vendor A"},
	})

	res, err := f.FilterFile(path, 500000, dir)
	require.NoError(t, err)
	assert.Empty(t, res.OutputPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFindMasterFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"DOE_procurement_flagged_master.csv",
		"DOE_grant_flagged_master.csv",
		"DOE_procurement_awards_flagged.csv",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("award_id_piid\n"), 0o644))
	}

	all, err := FindMasterFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	grants, err := FindMasterFiles(dir, "grant")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Contains(t, grants[0], "DOE_grant_flagged_master.csv")
}

func TestProcessAllWritesSummary(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "filtered")
	f := newFilter(t, "diversity")

	writeMaster(t, inDir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "800000", "diversity training", "Vendor A"},
		{"A2", "oops", "diversity training", "Vendor B"},
	})
	writeMaster(t, inDir, "HHS_procurement_flagged_master.csv", [][]string{
		{"B1", "100", "diversity training", "Vendor C"},
	})

	result, err := f.ProcessAll(inDir, outDir, 500000, "procurement", false)
	require.NoError(t, err)
	require.Len(t, result.FilteredFiles, 1)
	require.NotEmpty(t, result.SummaryPath)

	data, err := os.ReadFile(result.SummaryPath)
	require.NoError(t, err)

	var summary models.FilterSummary
	require.NoError(t, json.Unmarshal(data, &summary))

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "procurement", summary.AwardType)
	assert.Equal(t, float64(500000), summary.MinimumAmount)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesWithMatches)
	assert.Equal(t, 1, summary.UnparsedAmountRows)
	assert.Equal(t, []string{"filtered_DOE_procurement_flagged_master.csv"}, summary.FilteredFiles)
}

func TestProcessAllNoMatchesSkipsSummary(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "filtered")
	f := newFilter(t, "diversity")

	writeMaster(t, inDir, "DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "100", "diversity training", "Vendor A"},
	})

	result, err := f.ProcessAll(inDir, outDir, 500000, "", false)
	require.NoError(t, err)
	assert.Empty(t, result.FilteredFiles)
	assert.Empty(t, result.SummaryPath)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)

	for _, e := range entries {
		assert.NotContains(t, e.Name(), "filtering_summary_")
	}
}

func TestProcessAllNoMasters(t *testing.T) {
	f := newFilter(t, "diversity")

	result, err := f.ProcessAll(t.TempDir(), t.TempDir(), 500000, "", false)
	require.NoError(t, err)
	assert.Empty(t, result.FilteredFiles)
	assert.Empty(t, result.SummaryPath)
}

func TestCombineFiltered(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, "diversity")

	a := writeMaster(t, dir, "filtered_DOE_procurement_flagged_master.csv", [][]string{
		{"A1", "900000", "diversity training", "Vendor A"},
	})
	b := writeMaster(t, dir, "filtered_HHS_procurement_flagged_master.csv", [][]string{
		{"B1", "1200000", "diversity consulting", "Vendor B"},
		{"A1", "600000", "diversity training", "Vendor A"},
	})

	out, err := f.CombineFiltered([]string{a, b}, dir, "20250101_120000")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "all_filtered_contracts_20250101_120000.csv"), out)

	combined, err := table.ReadCSV(out)
	require.NoError(t, err)
	require.Len(t, combined.Rows, 2)

	assert.Equal(t, "B1", combined.Rows[0][0])
	assert.Equal(t, "A1", combined.Rows[1][0])
	assert.Equal(t, "900000", combined.Rows[1][1])
}
