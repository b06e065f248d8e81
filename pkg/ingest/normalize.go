package ingest

import (
	"regexp"
	"strings"
)

const cleanedPayloadVersion = 1

type CleanedSignals struct {
	PageNumbersRemoved bool `json:"page_numbers_removed"`
	WatermarkRemoved   bool `json:"watermark_removed"`
	LinesDropped       int  `json:"lines_dropped"`
	OCRNeeded          bool `json:"ocr_needed"`
}

// CleanedPayload is what gets written to cases/{id}/cleaned.json.
type CleanedPayload struct {
	CleanedText string            `json:"cleaned_text"`
	Sections    map[string]string `json:"sections"`
	Signals     CleanedSignals    `json:"signals"`
	Version     int               `json:"version"`
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	watermarkLines  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bconfidential\b`),
		regexp.MustCompile(`(?i)\bdo not copy\b`),
		regexp.MustCompile(`(?i)\bscanned by\b`),
		regexp.MustCompile(`(?i)\bfax(ed)?\b`),
		regexp.MustCompile(`(?i)powered by [\w\- ]+`),
	}
	pageNumberLine = regexp.MustCompile(`(?i)^(?:page\s*)?\d+(?:\s*/\s*\d+)?$`)
	spacedSlash    = regexp.MustCompile(`\s*/\s*`)
	mgPerDL        = regexp.MustCompile(`(?i)\bmg/dL\b`)
	mmolPerL       = regexp.MustCompile(`(?i)\bmmol/L\b`)
	glyphs         = strings.NewReplacer("–", "-", "—", "-", "·", ".", "•", "-", "‑", "-")
)

// Section keys in the order they appear in a report.
var sectionOrder = []string{"header", "patient_info", "labs_block", "impression", "footer"}

var sectionHeadings = map[string][]*regexp.Regexp{
	"patient_info": compileAll(`^patient\b`, `^patient info\b`, `^demographics\b`),
	"labs_block": compileAll(
		`^cbc\b`, `^complete blood count\b`, `^lipid profile\b`, `^serum lipid profile\b`,
		`^liver function\b`, `^renal function\b`, `^thyroid\b`,
	),
	"impression": compileAll(`^impression\b`, `^summary\b`, `^comments?\b`, `^note\b`),
	"header":     compileAll(`^outpatient encounter note\b`, `^clinic\b`, `^hospital\b`),
	"footer":     compileAll(`^physician\b`, `^doctor\b`, `^signature\b`, `^reported by\b`),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func removeWatermarks(text string) (string, int) {
	var kept []string
	removed := 0
	for _, line := range strings.Split(text, "\n") {
		if matchesAny(watermarkLines, line) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed
}

// stripHeadersFooters drops page numbers and short lines repeated three or
// more times across the document.
func stripHeadersFooters(text string) (string, bool, int) {
	lines := strings.Split(text, "\n")
	freq := make(map[string]int)
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			freq[s]++
		}
	}

	var kept []string
	removed := 0
	pageNumbers := false
	for _, l := range lines {
		s := strings.TrimSpace(l)
		switch {
		case s != "" && pageNumberLine.MatchString(s):
			removed++
			pageNumbers = true
		case s != "" && len(s) <= 80 && freq[s] >= 3:
			removed++
		default:
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n"), pageNumbers, removed
}

func normalizeUnits(text string) string {
	t := glyphs.Replace(text)
	t = spacedSlash.ReplaceAllString(t, "/")
	t = mgPerDL.ReplaceAllString(t, "mg/dL")
	return mmolPerL.ReplaceAllString(t, "mmol/L")
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// DetectSections slices text at known heading lines. Without any heading the
// whole text becomes "clean_body".
func DetectSections(text string) map[string]string {
	lines := strings.Split(text, "\n")
	starts := make(map[string]int)
	for i, ln := range lines {
		low := strings.ToLower(strings.TrimSpace(ln))
		for _, key := range sectionOrder {
			if _, seen := starts[key]; seen {
				continue
			}
			if matchesAny(sectionHeadings[key], low) {
				starts[key] = i
			}
		}
	}

	if len(starts) == 0 {
		return map[string]string{"clean_body": text}
	}

	sections := make(map[string]string)
	for idx, key := range sectionOrder {
		start, ok := starts[key]
		if !ok {
			continue
		}
		end := len(lines)
		for _, later := range sectionOrder[idx+1:] {
			if s, ok := starts[later]; ok && s > start && s < end {
				end = s
			}
		}
		if block := strings.TrimSpace(strings.Join(lines[start:end], "\n")); block != "" {
			sections[key] = block
		}
	}
	return sections
}

// Normalize is deterministic: the same raw text always yields the same payload.
func Normalize(raw string) CleanedPayload {
	t := normalizeWhitespace(raw)
	t, watermarks := removeWatermarks(t)
	t, pageNumbers, repeated := stripHeadersFooters(t)
	t = normalizeUnits(t)

	return CleanedPayload{
		CleanedText: t,
		Sections:    DetectSections(t),
		Signals: CleanedSignals{
			PageNumbersRemoved: pageNumbers,
			WatermarkRemoved:   watermarks > 0,
			LinesDropped:       watermarks + repeated,
			OCRNeeded:          len(t) < 60,
		},
		Version: cleanedPayloadVersion,
	}
}

// SortedSectionKeys returns present section keys in report order.
func (p CleanedPayload) SortedSectionKeys() []string {
	var keys []string
	for _, k := range sectionOrder {
		if _, ok := p.Sections[k]; ok {
			keys = append(keys, k)
		}
	}
	if _, ok := p.Sections["clean_body"]; ok {
		keys = append(keys, "clean_body")
	}
	return keys
}
