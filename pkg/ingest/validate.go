package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minSignalHits  = 2
	minKeywordHits = 1
)

var (
	reportKeywords = []string{
		"lipid profile", "complete blood count", "cbc", "liver function test", "lft",
		"renal profile", "kft", "thyroid profile", "tft", "urinalysis", "hematology",
		"biochemistry", "serology",
		"cholesterol", "ldl", "hdl", "triglyceride", "vldl",
		"glucose", "fasting plasma glucose", "fpg", "hba1c",
		"wbc", "white blood cell", "rbc", "hemoglobin", "haemoglobin", "hematocrit", "platelet",
		"neutrophils", "lymphocytes", "monocytes", "eosinophils",
		"alt", "ast", "sgpt", "sgot", "bilirubin", "creatinine", "urea", "egfr",
	}
	panelHeaders = []string{
		"lipid profile", "complete blood count", "cbc",
		"liver function test", "renal function test", "kidney function test",
		"thyroid function test", "urinalysis", "hematology", "biochemistry",
	}
	blacklist = []string{
		"assignment", "week", "viva", "total 100", "report template", "presentation",
		"github", "mid evaluation",
	}

	unitPattern     = regexp.MustCompile(`(?i)mg/dl|mmol/l|g/dl|iu/l|u/l|meq/l|x10\^3/u?l|x10\^6/u?l|µmol/l|umol/l|ng/ml|pg/ml|%`)
	refRangePattern = regexp.MustCompile(`\(\s*<?\s*\d+(?:\.\d+)?\s*[-–—]\s*\d+(?:\.\d+)?\s*\)`)
)

// ValidationResult counts the medical-report signals found in a document.
type ValidationResult struct {
	IsMedical     bool     `json:"is_medical"`
	Reasons       []string `json:"reasons"`
	Hits          int      `json:"hits"`
	KeywordHits   int      `json:"keyword_hits"`
	UnitHits      int      `json:"unit_hits"`
	RangeHits     int      `json:"range_hits"`
	PanelHits     int      `json:"panel_hits"`
	BlacklistHits int      `json:"blacklist_hits"`
}

func countContained(haystack string, needles []string) int {
	n := 0
	for _, s := range needles {
		if strings.Contains(haystack, s) {
			n++
		}
	}
	return n
}

// ValidateReport accepts text with at least one analyte or panel keyword,
// enough total signals, and fewer blacklist cues than signals.
func ValidateReport(text string) ValidationResult {
	lower := strings.ToLower(text)

	r := ValidationResult{
		KeywordHits:   countContained(lower, reportKeywords),
		UnitHits:      len(unitPattern.FindAllString(lower, -1)),
		RangeHits:     len(refRangePattern.FindAllString(lower, -1)),
		PanelHits:     countContained(lower, panelHeaders),
		BlacklistHits: countContained(lower, blacklist),
	}
	r.Hits = r.KeywordHits + r.UnitHits + r.RangeHits + r.PanelHits

	for _, sig := range []struct {
		n     int
		label string
	}{
		{r.KeywordHits, "keyword hit(s)"},
		{r.UnitHits, "unit pattern(s)"},
		{r.RangeHits, "reference range(s)"},
		{r.PanelHits, "panel header(s)"},
		{r.BlacklistHits, "blacklist cue(s)"},
	} {
		if sig.n > 0 {
			r.Reasons = append(r.Reasons, fmt.Sprintf("%d %s", sig.n, sig.label))
		}
	}
	if len(r.Reasons) == 0 {
		r.Reasons = []string{"no signals found"}
	}

	r.IsMedical = r.KeywordHits >= minKeywordHits &&
		r.Hits >= minSignalHits &&
		r.BlacklistHits < r.Hits
	return r
}
