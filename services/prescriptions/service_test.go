package prescriptions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeTestData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "prescription_part1.csv"), []byte(
		"YEAR_MONTH,REGION_NAME,BNF_SECTION_CODE,BNF_CHEMICAL_SUBSTANCE,UNIT_OF_MEASURE,NIC,ITEMS\n"+
			"202412,LONDON,601,Metformin hydrochloride,tablet,1000.50,500\n"+
			"202412,LONDON,601,Gliclazide,tablet,200.25,100\n"+
			"202412,NORTH WEST,601,Metformin hydrochloride,tablet,800.00,400\n",
	), 0o644)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "prescription_part2.csv"), []byte(
		"YEAR_MONTH,REGION_NAME,BNF_SECTION_CODE,BNF_CHEMICAL_SUBSTANCE,UNIT_OF_MEASURE,NIC,ITEMS\n"+
			"202412,LONDON,202,Atorvastatin,tablet,300.00,900\n"+
			"202412,MIDLANDS,202,Atorvastatin,capsule,50.00,20\n",
	), 0o644)
	require.NoError(t, err)

	// files not matching the prescription_*.csv glob are ignored
	err = os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("a,b\n1,2\n"), 0o644)
	require.NoError(t, err)

	return dir
}

func setupService(t *testing.T) Service {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	service, err := NewService(ctx, writeTestData(t))
	require.NoError(t, err)
	return service
}

func TestNewServiceNoFiles(t *testing.T) {
	ctx := context.Background()
	_, err := NewService(ctx, t.TempDir())
	require.ErrorContains(t, err, "no prescription data files")
}

func TestSections(t *testing.T) {
	service := setupService(t)
	require.Equal(t, []int{202, 601}, service.Sections(context.Background()))
}

func TestSummary(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	all := service.Summary(ctx, 0)
	require.Equal(t, 5, all.TotalRows)
	require.InDelta(t, 2350.75, all.TotalNic, 0.001)
	require.Equal(t, int64(1920), all.TotalItems)
	require.Equal(t, 3, all.Regions)

	diabetes := service.Summary(ctx, 601)
	require.Equal(t, 3, diabetes.TotalRows)
	require.Equal(t, int64(1000), diabetes.TotalItems)
	require.Equal(t, 2, diabetes.Substances)
}

func TestTopRegions(t *testing.T) {
	service := setupService(t)

	got := service.TopRegions(context.Background(), 601)
	want := []RegionTotal{
		{RegionName: "LONDON", Nic: 1200.75, Items: 600},
		{RegionName: "NORTH WEST", Nic: 800.00, Items: 400},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected region totals (-want +got):\n%s", diff)
	}
}

func TestTopDrugs(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	byCost, err := service.TopDrugs(ctx, 0, ByCost)
	require.NoError(t, err)
	require.Equal(t, "Metformin hydrochloride", byCost[0].ChemicalSubstance)
	require.InDelta(t, 1800.50, byCost[0].Nic, 0.001)

	byItems, err := service.TopDrugs(ctx, 0, ByItems)
	require.NoError(t, err)
	require.Equal(t, "Atorvastatin", byItems[0].ChemicalSubstance)
	require.Equal(t, int64(920), byItems[0].Items)

	_, err = service.TopDrugs(ctx, 0, "bogus")
	require.ErrorContains(t, err, "unknown ranking")
}

func TestDistributions(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	cost := service.CostDistribution(ctx, 0)
	require.Equal(t, "Metformin hydrochloride", cost[0].Label)
	require.InDelta(t, 1800.50, cost[0].Value, 0.001)

	uom := service.UomDistribution(ctx, 0)
	require.Equal(t, "tablet", uom[0].Label)
	require.InDelta(t, 1900, uom[0].Value, 0.001)
	require.Equal(t, "capsule", uom[1].Label)
}

func TestExportCSV(t *testing.T) {
	service := setupService(t)

	var out strings.Builder
	err := service.ExportCSV(context.Background(), &out, 202)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "REGION_NAME,BNF_SECTION_CODE,BNF_CHEMICAL_SUBSTANCE,UNIT_OF_MEASURE,NIC,ITEMS", lines[0])
	require.Contains(t, out.String(), "MIDLANDS,202,Atorvastatin,capsule,50.00,20")
}
