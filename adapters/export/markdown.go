// Package export renders finalized reports to markdown and HTML files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gosetl/domain/report"
	"gosetl/internal/errors"
)

var analysisTitles = map[report.Analysis]string{
	report.AnalysisSpotPreference: "Spot preference",
	report.AnalysisIntraSpecific:  "Intra-specific attraction",
	report.AnalysisInterSpecific:  "Inter-specific attraction",
}

// Markdown renders one report as a markdown document.
func Markdown(rep *report.Report) (string, error) {
	if rep == nil || !rep.Finalized() {
		return "", errors.InvalidInput("cannot render an unfinished report")
	}

	var b strings.Builder
	title := analysisTitles[rep.Analysis]
	if title == "" {
		title = string(rep.Analysis)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	for i, sel := range rep.Selections {
		fmt.Fprintf(&b, "- Selection %d: species %s", i+1, strings.Join(sel.Species, ", "))
		if len(sel.Locations) > 0 {
			fmt.Fprintf(&b, " at %s", strings.Join(sel.Locations, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- Plates: %d\n", rep.NPlates)
	fmt.Fprintf(&b, "- Alpha level: %g\n", rep.Alpha())
	if rep.Repeats() > 0 {
		fmt.Fprintf(&b, "- Repeats: %d\n", rep.Repeats())
	}
	fmt.Fprintf(&b, "- Generated: %s\n\n", rep.CreatedAt)

	if len(rep.WilcoxonRepeats) > 0 {
		b.WriteString("## Repeated Wilcoxon rank-sum tests\n\n")
		b.WriteString("| Group | Plates | Values | Significant | Attraction | Repulsion | Mean observed | Mean expected |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, key := range sortedKeys(rep.WilcoxonRepeats) {
			r := rep.WilcoxonRepeats[key]
			fmt.Fprintf(&b, "| %s | %d | %d | %d/%d | %d | %d | %.4f | %.4f |\n",
				key, r.NPlates, r.NValues, r.NSignificant, r.Repeats,
				r.NAttraction, r.NRepulsion, r.MeanObserved, r.MeanExpected)
		}
		b.WriteString("\n")
	}

	if len(rep.Wilcoxon) > 0 {
		b.WriteString("## Wilcoxon rank-sum tests\n\n")
		b.WriteString("| Group | Plates | Values | U | p-value | Mean observed | Mean expected |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, key := range sortedKeys(rep.Wilcoxon) {
			r := rep.Wilcoxon[key]
			fmt.Fprintf(&b, "| %s | %d | %d | %.1f | %.5f | %.4f | %.4f |\n",
				key, r.NPlates, r.NValues, r.Statistic, r.PValue, r.MeanObserved, r.MeanExpected)
		}
		b.WriteString("\n")
	}

	if len(rep.ChiSquared) > 0 {
		b.WriteString("## Chi-squared goodness-of-fit tests\n\n")
		b.WriteString("| Group | Values | Chi2 | df | p-value | Low expected |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, key := range sortedKeys(rep.ChiSquared) {
			r := rep.ChiSquared[key]
			low := ""
			if r.LowExpected {
				low = "yes"
			}
			fmt.Fprintf(&b, "| %s | %d | %.3f | %d | %.5f | %s |\n",
				key, r.NValues, r.Statistic, r.DF, r.PValue, low)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// HTML renders one report as a standalone HTML document.
func HTML(rep *report.Report) ([]byte, error) {
	md, err := Markdown(rep)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	return markdown.ToHTML([]byte(md), p, renderer), nil
}

// WriteFiles saves the markdown and HTML renditions of a report under
// dir, named by the report ID, and returns both paths.
func WriteFiles(rep *report.Report, dir string) (mdPath, htmlPath string, err error) {
	md, err := Markdown(rep)
	if err != nil {
		return "", "", err
	}
	page, err := HTML(rep)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.WithCode(errors.CodeExportError, err)
	}

	base := fmt.Sprintf("%s-%s", rep.Analysis, rep.ID)
	mdPath = filepath.Join(dir, base+".md")
	htmlPath = filepath.Join(dir, base+".html")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", "", errors.WithCode(errors.CodeExportError, err)
	}
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		return "", "", errors.WithCode(errors.CodeExportError, err)
	}
	return mdPath, htmlPath, nil
}

func sortedKeys[V any](m map[report.GroupKey]V) []report.GroupKey {
	keys := make([]report.GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
