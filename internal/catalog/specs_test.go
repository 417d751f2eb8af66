package catalog

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func newProcessor() *SpecificationProcessor {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewSpecificationProcessor(logrus.NewEntry(logger))
}

func TestProcessMapsCanonicalFields(t *testing.T) {
	p := newProcessor()

	result := p.Process(map[string]interface{}{
		"Color Temperature": "3000K",
		"Maximum Wattage":   12.0,
		"Main Material":     "  Aluminum  ",
		"CRI":               nil,
		"Warranty":          "2 years",
		"Hnumber":           "6",
		"Max IP":            "IP65",
	}, "en")

	assert.Equal(t, "3000K", result.Fields[FieldColorTemperature])
	assert.Equal(t, "12", result.Fields[FieldMaximumWattage])
	assert.Equal(t, "Aluminum", result.Fields[FieldMainMaterial])
	assert.Equal(t, "", result.Fields[FieldCRI])

	// Unmapped keys land in the custom bag; non-spec keys are dropped
	assert.Equal(t, "2 years", result.Custom["Warranty"])
	assert.NotContains(t, result.Custom, "Hnumber")
	assert.NotContains(t, result.Custom, "Max IP")
}

func TestProcessArabicKeys(t *testing.T) {
	p := newProcessor()

	result := p.Process(map[string]interface{}{
		"الخامة":           "ألمنيوم",
		"درجة حرارة اللون": "٤٠٠٠",
		"عدد الوحدات":      3.0,
	}, "ar")

	assert.Equal(t, "ألمنيوم", result.Fields[FieldMainMaterial])
	assert.Equal(t, "٤٠٠٠", result.Fields[FieldColorTemperature])
	assert.Empty(t, result.Custom)
}

func TestDetermineColor(t *testing.T) {
	p := newProcessor()

	tests := []struct {
		name  string
		specs map[string]interface{}
		want  models.ProductColor
	}{
		{"arabic indic 4000", map[string]interface{}{"Color Temperature": "٤٠٠٠"}, models.ColorCool},
		{"western 3000", map[string]interface{}{"Color Temperature": "3000K Warm"}, models.ColorWarm},
		{"western 6500", map[string]interface{}{"Color Temperature": "6500"}, models.ColorWhite},
		{"arabic key", map[string]interface{}{"درجة حرارة اللون": "٦٥٠٠"}, models.ColorWhite},
		{"numeric value", map[string]interface{}{"Color Temperature": 4000.0}, models.ColorCool},
		{"absent", map[string]interface{}{}, models.ColorWarm},
		{"unrecognized", map[string]interface{}{"Color Temperature": "daylight"}, models.ColorWarm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.DetermineColor(tt.specs))
		})
	}
}

func TestDetermineIP(t *testing.T) {
	p := newProcessor()

	tests := []struct {
		name  string
		specs map[string]interface{}
		want  models.ProductIP
	}{
		{"western 65", map[string]interface{}{"IP": "65"}, models.IP65},
		{"prefixed", map[string]interface{}{"IP": "IP44"}, models.IP44},
		{"arabic indic", map[string]interface{}{"IP": "٦٨"}, models.IP68},
		{"arabic key", map[string]interface{}{"الحماية": "54"}, models.IP54},
		{"absent", map[string]interface{}{}, models.IP20},
		{"unrecognized", map[string]interface{}{"IP": "waterproof"}, models.IP20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.DetermineIP(tt.specs))
		})
	}
}

func TestExtractUnitCountRecordBeatsSpecs(t *testing.T) {
	p := newProcessor()

	record := ProductRecord{"Hnumber": "12 units"}
	specs := map[string]interface{}{"Hnumber": 5.0}

	count := p.ExtractUnitCount(record, specs)
	require.NotNil(t, count)
	assert.Equal(t, 12, *count)
}

func TestExtractUnitCountFallsBackToSpecs(t *testing.T) {
	p := newProcessor()

	count := p.ExtractUnitCount(ProductRecord{}, map[string]interface{}{"عدد الوحدات": 5.0})
	require.NotNil(t, count)
	assert.Equal(t, 5, *count)
}

func TestExtractUnitCountSkipsNonPositive(t *testing.T) {
	p := newProcessor()

	// Zero and digit-free candidates are passed over for later ones
	record := ProductRecord{"Hnumber": 0.0, "HNumber": "n/a"}
	specs := map[string]interface{}{"hNumber": "٨"}

	count := p.ExtractUnitCount(record, specs)
	require.NotNil(t, count)
	assert.Equal(t, 8, *count)

	assert.Nil(t, p.ExtractUnitCount(ProductRecord{}, map[string]interface{}{}))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int
		ok    bool
	}{
		{"float floors", 3.7, 3, true},
		{"nan rejected", math.NaN(), 0, false},
		{"numeric string", "12 units", 12, true},
		{"arabic indic string", "١٢", 12, true},
		{"digit free string", "abc", 0, false},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCount(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeSpecTablesPrimaryWins(t *testing.T) {
	primary := map[string]interface{}{"IP": "65"}
	fallback := map[string]interface{}{"IP": "20", "CRI": ">80"}

	merged := MergeSpecTables(primary, fallback)
	assert.Equal(t, "65", merged["IP"])
	assert.Equal(t, ">80", merged["CRI"])
}

func TestSpecificationRowMapping(t *testing.T) {
	p := newProcessor()

	normalized := p.Process(map[string]interface{}{
		"IP":        "IP65",
		"Lamp Base": "GU10",
		"Warranty":  "2 years",
	}, "en")

	spec := normalized.Specification(uuid.New(), "en")
	assert.Equal(t, "en", spec.Language)
	assert.Equal(t, "IP65", spec.IP)
	assert.Equal(t, "GU10", spec.LampBase)
	assert.Equal(t, "2 years", spec.CustomSpecs["Warranty"])
}
