// Package insight derives per-analyte values and trends from parsed panels.
package insight

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"medscribe-be/internal/entity"
)

const (
	AnalyteLDL           = "ldl"
	AnalyteHDL           = "hdl"
	AnalyteGlucose       = "glucose"
	AnalyteHbA1c         = "hba1c"
	AnalyteHaemoglobin   = "haemoglobin"
	AnalyteCholesterol   = "cholesterol"
	AnalyteTriglycerides = "triglycerides"

	TrendUp   = "↑"
	TrendDown = "↓"
	TrendFlat = "→"

	closingAdvice = "Maintain healthy habits to continue improving your results."
)

// Analytes lists tracked analytes in summary order.
var Analytes = []string{
	AnalyteLDL, AnalyteHDL, AnalyteCholesterol, AnalyteTriglycerides,
	AnalyteGlucose, AnalyteHbA1c, AnalyteHaemoglobin,
}

var labels = map[string]string{
	AnalyteLDL:           "LDL",
	AnalyteHDL:           "HDL",
	AnalyteGlucose:       "Glucose",
	AnalyteHbA1c:         "HbA1c",
	AnalyteHaemoglobin:   "Haemoglobin",
	AnalyteCholesterol:   "Total Cholesterol",
	AnalyteTriglycerides: "Triglycerides",
}

type Report struct {
	UserID         string             `json:"user_id"`
	CaseID         string             `json:"case_id"`
	PreviousCaseID string             `json:"previous_case_id,omitempty"`
	Values         map[string]float64 `json:"values"`
	Units          map[string]string  `json:"units,omitempty"`
	Trend          map[string]string  `json:"trend,omitempty"`
	Change         map[string]float64 `json:"change,omitempty"`
	Summary        string             `json:"summary"`
	GeneratedAt    time.Time          `json:"timestamp"`
}

// Classify maps a lab item name to a tracked analyte, or "".
func Classify(name string) string {
	n := strings.ToLower(name)
	ratio := strings.Contains(n, "/") || strings.Contains(n, "ratio")
	switch {
	case ratio:
		return ""
	case strings.Contains(n, "vldl"):
		return ""
	case strings.Contains(n, "ldl"):
		return AnalyteLDL
	case strings.Contains(n, "hdl"):
		return AnalyteHDL
	case strings.Contains(n, "hba1c"), strings.Contains(n, "a1c"), strings.Contains(n, "glycated"):
		return AnalyteHbA1c
	case strings.Contains(n, "glucose"), strings.Contains(n, "fbs"), strings.Contains(n, "fpg"):
		return AnalyteGlucose
	case strings.Contains(n, "triglycer"):
		return AnalyteTriglycerides
	case strings.Contains(n, "cholesterol"):
		return AnalyteCholesterol
	case strings.Contains(n, "haemoglobin"), strings.Contains(n, "hemoglobin"):
		return AnalyteHaemoglobin
	}
	return ""
}

// Extract returns the first value seen for every tracked analyte.
func Extract(panels []entity.Panel) (map[string]float64, map[string]string) {
	values := make(map[string]float64)
	units := make(map[string]string)
	for _, p := range panels {
		for _, item := range p.Items {
			key := Classify(item.Name)
			if key == "" || item.Result == nil {
				continue
			}
			if _, seen := values[key]; seen {
				continue
			}
			values[key] = *item.Result
			if item.Unit != "" {
				units[key] = item.Unit
			}
		}
	}
	return values, units
}

func arrow(diff float64) string {
	switch {
	case diff > 0:
		return TrendUp
	case diff < 0:
		return TrendDown
	}
	return TrendFlat
}

// Compare computes trend arrows and deltas for analytes present in both.
func Compare(current, previous map[string]float64) (map[string]string, map[string]float64) {
	if previous == nil {
		return nil, nil
	}
	trend := make(map[string]string)
	change := make(map[string]float64)
	for k, v := range current {
		prev, ok := previous[k]
		if !ok {
			continue
		}
		diff := v - prev
		trend[k] = arrow(diff)
		change[k] = diff
	}
	return trend, change
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func Summarize(r Report) string {
	var parts []string
	for _, k := range Analytes {
		v, ok := r.Values[k]
		if !ok {
			continue
		}
		s := fmt.Sprintf("%s: %s", labels[k], format(v))
		if u := r.Units[k]; u != "" {
			s += " " + u
		}
		if t, ok := r.Trend[k]; ok {
			s += fmt.Sprintf(" (%s %s since previous report)", t, format(abs(r.Change[k])))
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "No tracked analytes were found in this report."
	}
	return strings.Join(parts, ", ") + ". " + closingAdvice
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Build assembles the insight report. previous may be nil when the case is
// the user's first.
func Build(userID, caseID string, current []entity.Panel, previousCaseID string, previous []entity.Panel, now time.Time) Report {
	values, units := Extract(current)
	r := Report{
		UserID:      userID,
		CaseID:      caseID,
		Values:      values,
		Units:       units,
		GeneratedAt: now,
	}
	if previousCaseID != "" {
		prevValues, _ := Extract(previous)
		r.PreviousCaseID = previousCaseID
		r.Trend, r.Change = Compare(values, prevValues)
	}
	r.Summary = Summarize(r)
	return r
}
