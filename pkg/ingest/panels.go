package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"medscribe-be/internal/entity"
)

const (
	PanelLipid   = "Serum Lipid Profile"
	PanelCBC     = "Complete Blood Count (CBC)"
	PanelGeneral = "General"
)

var (
	// Name Value Unit (low - high) [H|L]
	rowValueFirst = regexp.MustCompile(`(?i)^\s*(?P<name>[A-Za-z][A-Za-z0-9 /().%+\-]+?)\s*:?\s+(?P<val>[-+]?\d+(?:\.\d+)?)\s*(?P<unit>[A-Za-z/%·.\-]+)?\s*(?:\(?\s*(?P<low>[<>]?\s*[-+]?\d+(?:\.\d+)?)\s*[-–—]\s*(?P<high>[-+]?\d+(?:\.\d+)?)\s*\)?)?\s*(?P<flag>\b[HL]\b)?\s*$`)
	// Name Value (low - high) Unit [H|L]
	rowRangeFirst = regexp.MustCompile(`(?i)^\s*(?P<name>[A-Za-z][A-Za-z0-9 /().%+\-]+?)\s*:?\s+(?P<val>[-+]?\d+(?:\.\d+)?)\s*\(\s*(?P<low>[<>]?\s*[-+]?\d+(?:\.\d+)?)\s*[-–—]\s*(?P<high>[-+]?\d+(?:\.\d+)?)\s*\)\s*(?P<unit>[A-Za-z/%·.\-]+)\s*(?P<flag>\b[HL]\b)?\s*$`)

	skipLines = compileAll(
		`(?i)^Page\s+\d+(\s*/\s*\d+)?$`,
		`^\d{2}/\d{2}/\d{4}`,
		`(?i)^Report\s+Summary$`,
		`(?i)^Glossary of Terms$`,
		`(?i)^Next Steps`,
		`(?i)^What This Means for You$`,
	)
	startsWithNumber = regexp.MustCompile(`^\s*[-+]?\d+(\.\d+)?`)
	multiSpace       = regexp.MustCompile(`\s+`)

	lipidKeys    = []string{"ldl", "hdl", "triglycer", "cholesterol", "vldl", "chol/hdl", "ldl/hdl"}
	cbcKeys      = []string{"wbc", "neutrophil", "lymphocyte", "monocyte", "eosinophil", "platelet", "rbc", "hemoglobin", "haemoglobin", "hematocrit"}
	keepAcronyms = map[string]bool{"LDL": true, "HDL": true, "RBC": true, "WBC": true, "VLDL": true, "CBC": true, "HBA1C": true}
)

func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func normalizeUnit(u string) string {
	u = strings.TrimSpace(u)
	u = strings.ReplaceAll(u, " / ", "/")
	return strings.TrimRight(u, ".,;:")
}

func cleanAnalyteName(name string) string {
	tokens := strings.Fields(multiSpace.ReplaceAllString(name, " "))
	for i, t := range tokens {
		if keepAcronyms[strings.ToUpper(t)] {
			continue
		}
		tokens[i] = strings.ToUpper(t[:1]) + strings.ToLower(t[1:])
	}
	return strings.Join(tokens, " ")
}

func panelFor(name string) string {
	n := strings.ToLower(name)
	for _, k := range lipidKeys {
		if strings.Contains(n, k) {
			return PanelLipid
		}
	}
	for _, k := range cbcKeys {
		if strings.Contains(n, k) {
			return PanelCBC
		}
	}
	return PanelGeneral
}

// joinWrappedRows glues a row whose value wrapped onto the next line.
func joinWrappedRows(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); i++ {
		cur := strings.TrimSpace(lines[i])
		if i+1 < len(lines) && startsWithNumber.MatchString(lines[i+1]) {
			cur += " " + strings.TrimSpace(lines[i+1])
			i++
		}
		out = append(out, cur)
	}
	return out
}

func matchRow(line string) map[string]string {
	for _, re := range []*regexp.Regexp{rowValueFirst, rowRangeFirst} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		groups := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if name != "" {
				groups[name] = m[i]
			}
		}
		return groups
	}
	return nil
}

// ParsePanels extracts lab rows and groups them by panel, keeping the order
// in which panels first appear.
func ParsePanels(text string) []entity.Panel {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) == "" || matchesAny(skipLines, strings.TrimSpace(ln)) {
			continue
		}
		lines = append(lines, ln)
	}

	var order []string
	items := make(map[string][]entity.LabItem)
	for _, line := range joinWrappedRows(lines) {
		if len(line) < 3 {
			continue
		}
		g := matchRow(line)
		if g == nil {
			continue
		}
		val := parseNumber(g["val"])
		if val == nil {
			continue
		}

		item := entity.LabItem{
			Name:   cleanAnalyteName(g["name"]),
			Result: val,
			Unit:   normalizeUnit(g["unit"]),
			Flag:   strings.ToUpper(strings.TrimSpace(g["flag"])),
		}
		low, high := parseNumber(g["low"]), parseNumber(g["high"])
		if low != nil && high != nil {
			if *low > *high {
				low, high = high, low
			}
			item.RefLow, item.RefHigh = low, high
			item.RefText = fmt.Sprintf("%s - %s", formatNumber(*low), formatNumber(*high))
		}

		panel := panelFor(item.Name)
		if _, ok := items[panel]; !ok {
			order = append(order, panel)
		}
		items[panel] = append(items[panel], item)
	}

	panels := make([]entity.Panel, 0, len(order))
	for _, name := range order {
		panels = append(panels, entity.Panel{Name: name, Items: items[name]})
	}
	return panels
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
