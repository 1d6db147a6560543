package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gosetl/domain/ratio"
	"gosetl/domain/report"
	"gosetl/internal/analysis"
	"gosetl/internal/errors"
)

// SummaryWriter renders batch summaries to an xlsx workbook, one sheet
// per summary.
type SummaryWriter struct {
	f      *excelize.File
	sheets int
}

// NewSummaryWriter creates an empty workbook.
func NewSummaryWriter() *SummaryWriter {
	return &SummaryWriter{f: excelize.NewFile()}
}

// AddPairSummary writes one attraction summary as a sheet. Each ratio
// group gets three columns: the Wilcoxon verdict with its p-value and
// the chi-squared statistic with its p-value.
func (w *SummaryWriter) AddPairSummary(name string, summary analysis.PairSummary) error {
	sheet, err := w.addSheet(name)
	if err != nil {
		return err
	}

	header := []interface{}{"species_a", "species_b", "n_plates"}
	for _, g := range ratio.All {
		header = append(header,
			fmt.Sprintf("w_%s", g),
			fmt.Sprintf("w_%s_p", g),
			fmt.Sprintf("chi_%s", g),
			fmt.Sprintf("chi_%s_p", g),
		)
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing summary header")
	}

	for i, row := range summary.Rows {
		values := []interface{}{row.SpeciesA, row.SpeciesB, row.NPlates}
		for _, g := range ratio.All {
			cell := row.Cells[report.GroupKey(g.String())]
			values = append(values,
				string(cell.Wilcoxon), cell.WilcoxonP,
				string(cell.Chi), cell.ChiP,
			)
		}
		axis := fmt.Sprintf("A%d", i+2)
		if err := w.f.SetSheetRow(sheet, axis, &values); err != nil {
			return errors.Wrap(err, "writing summary row")
		}
	}
	return nil
}

// AddSpotSummary writes one spot-preference summary as a sheet.
func (w *SummaryWriter) AddSpotSummary(name string, summary analysis.SpotSummary) error {
	sheet, err := w.addSheet(name)
	if err != nil {
		return err
	}

	combos := spotComboKeys(summary)
	header := []interface{}{"species", "n_plates"}
	for _, key := range combos {
		header = append(header, string(key))
	}
	header = append(header, "chi_significant", "chi_p")
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing summary header")
	}

	for i, row := range summary.Rows {
		values := []interface{}{row.Species, row.NPlates}
		for _, key := range combos {
			code, ok := row.Codes[key]
			if !ok {
				code = analysis.CodeNotSignificant
			}
			values = append(values, code)
		}
		values = append(values, row.ChiSignificant, row.ChiP)
		axis := fmt.Sprintf("A%d", i+2)
		if err := w.f.SetSheetRow(sheet, axis, &values); err != nil {
			return errors.Wrap(err, "writing summary row")
		}
	}
	return nil
}

// Save writes the workbook, dropping the default empty sheet first.
func (w *SummaryWriter) Save(path string) error {
	if w.sheets > 0 {
		w.f.DeleteSheet("Sheet1")
	}
	if err := w.f.SaveAs(path); err != nil {
		return errors.WithCode(errors.CodeExportError, err)
	}
	return nil
}

func (w *SummaryWriter) addSheet(name string) (string, error) {
	if _, err := w.f.NewSheet(name); err != nil {
		return "", errors.Wrap(err, "creating summary sheet")
	}
	w.sheets++
	return name, nil
}

// spotComboKeys collects the union of combo keys across rows, in a
// stable order.
func spotComboKeys(summary analysis.SpotSummary) []report.GroupKey {
	order := []report.GroupKey{"A", "B", "C", "D", "A+B", "C+D", "A+B+C", "B+C+D"}
	present := make(map[report.GroupKey]bool)
	for _, row := range summary.Rows {
		for key := range row.Codes {
			present[key] = true
		}
	}
	var out []report.GroupKey
	for _, key := range order {
		if present[key] {
			out = append(out, key)
		}
	}
	for _, row := range summary.Rows {
		for key := range row.Codes {
			if !containsKey(out, key) {
				out = append(out, key)
			}
		}
	}
	return out
}

func containsKey(keys []report.GroupKey, key report.GroupKey) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
