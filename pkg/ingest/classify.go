package ingest

import (
	"regexp"
	"strings"
)

const UnknownReport = "Unknown Report"

type ReportMeta struct {
	ReportType string `json:"report_type"`
	Hospital   string `json:"hospital"`
	Doctor     string `json:"doctor"`
}

type reportPattern struct {
	re   *regexp.Regexp
	name string
}

var (
	reportPatterns = []reportPattern{
		{regexp.MustCompile(`(?i)\b(cbc|complete\s+blood\s+count)\b`), "Complete Blood Count"},
		{regexp.MustCompile(`(?i)\b(lipid\s+profile|cholesterol\s+profile)\b`), "Lipid Profile"},
		{regexp.MustCompile(`(?i)\b(lft|liver\s+function\s+tests?)\b`), "Liver Function Test"},
		{regexp.MustCompile(`(?i)\b(rft|renal\s+function\s+tests?|kidney\s+function)\b`), "Renal Function Test"},
		{regexp.MustCompile(`(?i)\b(fbc|full\s+blood\s+count)\b`), "Full Blood Count"},
		{regexp.MustCompile(`(?i)\b(ft[34]|thyroid\s+function|tsh|t3|t4)\b`), "Thyroid Function Test"},
		{regexp.MustCompile(`(?i)\b(urinalysis|urine\s+examin(ation|e))\b`), "Urinalysis"},
		{regexp.MustCompile(`(?i)\b(hba1c|glycated\s+hemoglobin)\b`), "HbA1c"},
		{regexp.MustCompile(`(?i)\b(x[- ]?ray|radiograph|chest\s+x[- ]?ray)\b`), "X-ray"},
		{regexp.MustCompile(`(?i)\b(ct[- ]?(scan)?|computed\s+tomography)\b`), "CT Scan"},
		{regexp.MustCompile(`(?i)\b(mri|magnetic\s+resonance)\b`), "MRI"},
		{regexp.MustCompile(`(?i)\b(ultrasound|sonography|usg)\b`), "Ultrasound"},
		{regexp.MustCompile(`(?i)\b(echo(cardiogram)?|echocardiography)\b`), "Echocardiogram"},
		{regexp.MustCompile(`(?i)\b(haematology|hematology)\b`), "Haematology Panel"},
		{regexp.MustCompile(`(?i)\bbiochemistry\b`), "Biochemistry Panel"},
		{regexp.MustCompile(`(?i)\b(radiology|imaging)\b`), "Radiology Report"},
	}

	hospitalHint  = regexp.MustCompile(`(?i)\b(Hospital|Medical\s+Center|Clinic|Diagnostic\s+Center|Health\s+Lab|Laboratory|Patholog(?:y|ical)\s+Lab)\b`)
	doctorHint    = regexp.MustCompile(`\b(Dr\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)
	titleLike     = regexp.MustCompile(`(?i)(report|test|profile|examination|imaging)`)
	trailingToken = regexp.MustCompile(`[|•◦·\-–—]+\s*\S+$`)
	doubleSpace   = regexp.MustCompile(`\s{2,}`)
)

const headerLines = 40

func headerOf(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			out = append(out, s)
			if len(out) == headerLines {
				break
			}
		}
	}
	return out
}

// ClassifyReport names the report type from its header lines.
func ClassifyReport(text string) string {
	header := headerOf(text)
	joined := strings.Join(header, "\n")
	for _, p := range reportPatterns {
		if p.re.MatchString(joined) {
			return p.name
		}
	}
	for _, ln := range header {
		if titleLike.MatchString(ln) {
			return squash(truncate(ln, 64))
		}
	}
	return UnknownReport
}

// InferReportMeta also pulls the shortest hospital-like line and the first
// "Dr. Name" from the header.
func InferReportMeta(text string) ReportMeta {
	header := headerOf(text)
	meta := ReportMeta{ReportType: ClassifyReport(text), Hospital: "Unknown", Doctor: "Unknown"}

	for _, ln := range header {
		if !hospitalHint.MatchString(ln) || len(ln) < 3 || len(ln) > 80 {
			continue
		}
		candidate := strings.TrimSpace(trailingToken.ReplaceAllString(ln, ""))
		if candidate == "" {
			continue
		}
		if meta.Hospital == "Unknown" || len(candidate) < len(meta.Hospital) {
			meta.Hospital = squash(candidate)
		}
	}
	if m := doctorHint.FindStringSubmatch(strings.Join(header, "\n")); m != nil {
		meta.Doctor = squash(m[1])
	}
	return meta
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func squash(s string) string {
	return strings.TrimSpace(doubleSpace.ReplaceAllString(s, " "))
}
