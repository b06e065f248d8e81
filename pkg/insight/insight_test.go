package insight

import (
	"testing"
	"time"

	"medscribe-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func item(name string, v float64, unit string) entity.LabItem {
	return entity.LabItem{Name: name, Result: &v, Unit: unit}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"LDL", AnalyteLDL},
		{"LDL Cholesterol", AnalyteLDL},
		{"VLDL", ""},
		{"Chol/HDL Ratio", ""},
		{"HDL", AnalyteHDL},
		{"Total Cholesterol", AnalyteCholesterol},
		{"Triglycerides", AnalyteTriglycerides},
		{"Fasting Plasma Glucose", AnalyteGlucose},
		{"FBS", AnalyteGlucose},
		{"HbA1c", AnalyteHbA1c},
		{"Glycated Hemoglobin", AnalyteHbA1c},
		{"Haemoglobin", AnalyteHaemoglobin},
		{"Platelet Count", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestBuildWithPrevious(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	current := []entity.Panel{{Name: "Lipid", Items: []entity.LabItem{
		item("LDL", 145, "mg/dL"),
		item("HDL", 45, "mg/dL"),
		item("LDL", 999, "mg/dL"),
	}}}
	previous := []entity.Panel{{Name: "Lipid", Items: []entity.LabItem{
		item("LDL", 135, "mg/dL"),
		item("HDL", 50, "mg/dL"),
	}}}

	r := Build("u1", "c2", current, "c1", previous, now)

	assert.Equal(t, map[string]float64{AnalyteLDL: 145, AnalyteHDL: 45}, r.Values)
	assert.Equal(t, map[string]string{AnalyteLDL: TrendUp, AnalyteHDL: TrendDown}, r.Trend)
	assert.Equal(t, map[string]float64{AnalyteLDL: 10, AnalyteHDL: -5}, r.Change)
	assert.Equal(t, "c1", r.PreviousCaseID)
	assert.Equal(t,
		"LDL: 145 mg/dL (↑ 10 since previous report), HDL: 45 mg/dL (↓ 5 since previous report). "+closingAdvice,
		r.Summary)
}

func TestBuildFirstReport(t *testing.T) {
	r := Build("u1", "c1", []entity.Panel{{Items: []entity.LabItem{item("HbA1c", 6.1, "%")}}}, "", nil, time.Now())
	assert.Nil(t, r.Trend)
	assert.Equal(t, "HbA1c: 6.1 %. "+closingAdvice, r.Summary)

	empty := Build("u1", "c1", nil, "", nil, time.Now())
	assert.Equal(t, "No tracked analytes were found in this report.", empty.Summary)
}

func TestCompareFlat(t *testing.T) {
	trend, change := Compare(map[string]float64{AnalyteLDL: 100}, map[string]float64{AnalyteLDL: 100, AnalyteHDL: 40})
	assert.Equal(t, map[string]string{AnalyteLDL: TrendFlat}, trend)
	assert.Equal(t, map[string]float64{AnalyteLDL: 0}, change)
}
