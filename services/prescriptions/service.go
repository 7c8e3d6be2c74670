// Package prescriptions serves the NHS prescription dashboard over the
// monthly CSV extracts in the data directory.
package prescriptions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hcpresearch-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("hcpresearch.services.prescriptions")

// Row is one line of the merged extract. YEAR_MONTH is dropped on
// load, every extract covers the same month.
type Row struct {
	RegionName        string  `json:"region_name"`
	BnfSectionCode    int     `json:"bnf_section_code"`
	ChemicalSubstance string  `json:"bnf_chemical_substance"`
	UnitOfMeasure     string  `json:"unit_of_measure"`
	Nic               float64 `json:"nic"`
	Items             int64   `json:"items"`
}

type Service struct {
	rows []Row
}

// NewService loads and merges every prescription_*.csv under dataDir.
func NewService(ctx context.Context, dataDir string) (Service, error) {
	ctx, span := tracer.Start(ctx, "NewService")
	defer span.End()
	span.SetAttributes(attribute.String("data_dir", dataDir))

	files, err := filepath.Glob(filepath.Join(dataDir, "prescription_*.csv"))
	if err != nil {
		return Service{}, err
	}
	if len(files) == 0 {
		err := fmt.Errorf("no prescription data files found in %q", dataDir)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no data files")
		return Service{}, err
	}
	sort.Strings(files)

	var rows []Row
	for _, file := range files {
		fileRows, err := loadFile(file)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load extract")
			return Service{}, fmt.Errorf("load %s: %w", file, err)
		}
		rows = append(rows, fileRows...)
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return Service{rows: rows}, nil
}

func loadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			RegionName:        stringCol(record, cols, "REGION_NAME"),
			BnfSectionCode:    int(floatCol(record, cols, "BNF_SECTION_CODE")),
			ChemicalSubstance: stringCol(record, cols, "BNF_CHEMICAL_SUBSTANCE"),
			UnitOfMeasure:     stringCol(record, cols, "UNIT_OF_MEASURE"),
			Nic:               floatCol(record, cols, "NIC"),
			Items:             int64(floatCol(record, cols, "ITEMS")),
		})
	}
	return rows, nil
}

func stringCol(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func floatCol(record []string, cols map[string]int, name string) float64 {
	raw := stringCol(record, cols, name)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// Sections lists the distinct BNF section codes in the dataset.
func (s Service) Sections(ctx context.Context) []int {
	_, span := tracer.Start(ctx, "Sections")
	defer span.End()

	seen := map[int]struct{}{}
	var sections []int
	for _, r := range s.rows {
		if _, ok := seen[r.BnfSectionCode]; ok {
			continue
		}
		seen[r.BnfSectionCode] = struct{}{}
		sections = append(sections, r.BnfSectionCode)
	}
	sort.Ints(sections)
	return sections
}

// filtered returns the rows, narrowed to one BNF section when
// section > 0.
func (s Service) filtered(section int) []Row {
	if section <= 0 {
		return s.rows
	}
	var out []Row
	for _, r := range s.rows {
		if r.BnfSectionCode == section {
			out = append(out, r)
		}
	}
	return out
}

type Summary struct {
	TotalRows  int     `json:"total_rows"`
	TotalNic   float64 `json:"total_nic"`
	TotalItems int64   `json:"total_items"`
	Regions    int     `json:"regions"`
	Substances int     `json:"substances"`
}

func (s Service) Summary(ctx context.Context, section int) Summary {
	_, span := tracer.Start(ctx, "Summary")
	defer span.End()
	span.SetAttributes(attribute.Int("section", section))

	rows := s.filtered(section)
	regions := map[string]struct{}{}
	substances := map[string]struct{}{}
	summary := Summary{TotalRows: len(rows)}
	for _, r := range rows {
		summary.TotalNic += r.Nic
		summary.TotalItems += r.Items
		regions[r.RegionName] = struct{}{}
		substances[r.ChemicalSubstance] = struct{}{}
	}
	summary.Regions = len(regions)
	summary.Substances = len(substances)
	return summary
}

type RegionTotal struct {
	RegionName string  `json:"region_name"`
	Nic        float64 `json:"nic"`
	Items      int64   `json:"items"`
}

// TopRegions returns the 10 regions dispensing the most items.
func (s Service) TopRegions(ctx context.Context, section int) []RegionTotal {
	_, span := tracer.Start(ctx, "TopRegions")
	defer span.End()
	span.SetAttributes(attribute.Int("section", section))

	totals := map[string]*RegionTotal{}
	for _, r := range s.filtered(section) {
		t, ok := totals[r.RegionName]
		if !ok {
			t = &RegionTotal{RegionName: r.RegionName}
			totals[r.RegionName] = t
		}
		t.Nic += r.Nic
		t.Items += r.Items
	}

	out := make([]RegionTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Items > out[j].Items
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

type DrugTotal struct {
	ChemicalSubstance string  `json:"bnf_chemical_substance"`
	Nic               float64 `json:"nic"`
	Items             int64   `json:"items"`
}

const (
	ByCost  = "cost"
	ByItems = "items"
)

// TopDrugs returns the 10 chemical substances with the highest total
// cost or items dispensed.
func (s Service) TopDrugs(ctx context.Context, section int, by string) ([]DrugTotal, error) {
	_, span := tracer.Start(ctx, "TopDrugs")
	defer span.End()
	span.SetAttributes(
		attribute.Int("section", section),
		attribute.String("by", by),
	)

	if by == "" {
		by = ByCost
	}
	if by != ByCost && by != ByItems {
		return nil, fmt.Errorf("unknown ranking %q, expected %q or %q", by, ByCost, ByItems)
	}

	out := s.drugTotals(section)
	sort.Slice(out, func(i, j int) bool {
		if by == ByItems {
			return out[i].Items > out[j].Items
		}
		return out[i].Nic > out[j].Nic
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

func (s Service) drugTotals(section int) []DrugTotal {
	totals := map[string]*DrugTotal{}
	for _, r := range s.filtered(section) {
		t, ok := totals[r.ChemicalSubstance]
		if !ok {
			t = &DrugTotal{ChemicalSubstance: r.ChemicalSubstance}
			totals[r.ChemicalSubstance] = t
		}
		t.Nic += r.Nic
		t.Items += r.Items
	}
	out := make([]DrugTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	return out
}

type PieSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CostDistribution returns the top 20 chemical substances by total
// cost, pie chart form.
func (s Service) CostDistribution(ctx context.Context, section int) []PieSlice {
	_, span := tracer.Start(ctx, "CostDistribution")
	defer span.End()
	span.SetAttributes(attribute.Int("section", section))

	totals := s.drugTotals(section)
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Nic > totals[j].Nic
	})
	if len(totals) > 20 {
		totals = totals[:20]
	}

	slices := make([]PieSlice, 0, len(totals))
	for _, t := range totals {
		slices = append(slices, PieSlice{Label: t.ChemicalSubstance, Value: t.Nic})
	}
	return slices
}

// UomDistribution returns the top 10 units of measure by items
// dispensed, pie chart form.
func (s Service) UomDistribution(ctx context.Context, section int) []PieSlice {
	_, span := tracer.Start(ctx, "UomDistribution")
	defer span.End()
	span.SetAttributes(attribute.Int("section", section))

	totals := map[string]int64{}
	for _, r := range s.filtered(section) {
		totals[r.UnitOfMeasure] += r.Items
	}

	slices := make([]PieSlice, 0, len(totals))
	for label, items := range totals {
		slices = append(slices, PieSlice{Label: label, Value: float64(items)})
	}
	sort.Slice(slices, func(i, j int) bool {
		return slices[i].Value > slices[j].Value
	})
	if len(slices) > 10 {
		slices = slices[:10]
	}
	return slices
}

// ExportCSV writes the filtered rows back out as CSV, the dashboard's
// download button.
func (s Service) ExportCSV(ctx context.Context, w io.Writer, section int) error {
	_, span := tracer.Start(ctx, "ExportCSV")
	defer span.End()
	span.SetAttributes(attribute.Int("section", section))

	writer := csv.NewWriter(w)
	err := writer.Write([]string{
		"REGION_NAME", "BNF_SECTION_CODE", "BNF_CHEMICAL_SUBSTANCE",
		"UNIT_OF_MEASURE", "NIC", "ITEMS",
	})
	if err != nil {
		return err
	}
	for _, r := range s.filtered(section) {
		err := writer.Write([]string{
			r.RegionName,
			strconv.Itoa(r.BnfSectionCode),
			r.ChemicalSubstance,
			r.UnitOfMeasure,
			strconv.FormatFloat(r.Nic, 'f', 2, 64),
			strconv.FormatInt(r.Items, 10),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
