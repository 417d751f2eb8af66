package catalog

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
)

// Canonical specification field names, independent of source language
const (
	FieldInput              = "input"
	FieldMaximumWattage     = "maximumWattage"
	FieldBrandOfLed         = "brandOfLed"
	FieldLuminousFlux       = "luminousFlux"
	FieldMainMaterial       = "mainMaterial"
	FieldCRI                = "cri"
	FieldBeamAngle          = "beamAngle"
	FieldWorkingTemperature = "workingTemperature"
	FieldFixtureDimmable    = "fixtureDimmable"
	FieldElectrical         = "electrical"
	FieldPowerFactor        = "powerFactor"
	FieldColorTemperature   = "colorTemperature"
	FieldIP                 = "ip"
	FieldEnergySaving       = "energySaving"
	FieldLifeTime           = "lifeTime"
	FieldFinish             = "finish"
	FieldLampBase           = "lampBase"
	FieldBulb               = "bulb"
)

// specKeyMaps maps localized specification-table keys onto canonical fields,
// per language.
var specKeyMaps = map[string]map[string]string{
	"en": {
		"Input":               FieldInput,
		"Input Voltage":       FieldInput,
		"Maximum Wattage":     FieldMaximumWattage,
		"Brand of LED":        FieldBrandOfLed,
		"Luminous Flux":       FieldLuminousFlux,
		"Main Material":       FieldMainMaterial,
		"CRI":                 FieldCRI,
		"Beam Angle":          FieldBeamAngle,
		"Working Temperature": FieldWorkingTemperature,
		"Fixture Dimmable":    FieldFixtureDimmable,
		"Electrical":          FieldElectrical,
		"Power Factor":        FieldPowerFactor,
		"Color Temperature":   FieldColorTemperature,
		"IP":                  FieldIP,
		"Energy Saving":       FieldEnergySaving,
		"Life Time":           FieldLifeTime,
		"Finish":              FieldFinish,
		"Lamp Base":           FieldLampBase,
		"Bulb":                FieldBulb,
	},
	"ar": {
		"الجهد":              FieldInput,
		"أقصى قوة واط":       FieldMaximumWattage,
		"نوع الليد":          FieldBrandOfLed,
		"التدفق الضوئي":      FieldLuminousFlux,
		"الخامة":             FieldMainMaterial,
		"مؤشر تجسيد اللون":   FieldCRI,
		"زاوية الإضاءة":      FieldBeamAngle,
		"درجة حرارة التشغيل": FieldWorkingTemperature,
		"قابل للتعتيم":       FieldFixtureDimmable,
		"كهربائي":            FieldElectrical,
		"معامل القدرة":       FieldPowerFactor,
		"درجة حرارة اللون":   FieldColorTemperature,
		"الحماية":            FieldIP,
		"توفير الطاقة":       FieldEnergySaving,
		"العمر الافتراضي":    FieldLifeTime,
		"التشطيب":            FieldFinish,
		"قاعدة اللمبة":       FieldLampBase,
		"اللمبة":             FieldBulb,
	},
}

// recordCountKeys are searched on the product record itself, in order
var recordCountKeys = []string{"Hnumber", "HNumber", "hNumber", "h_number", "H Number"}

// specCountKeys extend recordCountKeys with localized variants found only in
// specification tables
var specCountKeys = append(append([]string{}, recordCountKeys...), "عدد الوحدات", "رقم الوحدات")

// excludedSpecKeys are table keys that carry no specification value: unit
// counts handled by ExtractUnitCount and legacy max-IP aliases.
var excludedSpecKeys = map[string]struct{}{
	"Hnumber":     {},
	"HNumber":     {},
	"hNumber":     {},
	"h_number":    {},
	"H Number":    {},
	"عدد الوحدات": {},
	"رقم الوحدات": {},
	"Max IP":      {},
	"MaxIP":       {},
	"أقصى حماية":  {},
}

var colorTemperatureKeys = []string{"Color Temperature", "درجة حرارة اللون"}

var ipKeys = []string{"IP", "الحماية"}

// colorBuckets are matched in order against the lower-cased value
var colorBuckets = []struct {
	western string
	eastern string
	color   models.ProductColor
}{
	{"3000", "٣٠٠٠", models.ColorWarm},
	{"4000", "٤٠٠٠", models.ColorCool},
	{"6500", "٦٥٠٠", models.ColorWhite},
}

// ipBuckets maps literal rating digits to the IP enum
var ipBuckets = []struct {
	western string
	eastern string
	ip      models.ProductIP
}{
	{"20", "٢٠", models.IP20},
	{"44", "٤٤", models.IP44},
	{"54", "٥٤", models.IP54},
	{"65", "٦٥", models.IP65},
	{"68", "٦٨", models.IP68},
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// arabicIndicDigits converts Arabic-Indic digits to Western ones
var arabicIndicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizedSpecs is the result of mapping one raw specification table:
// canonical fields plus the opaque bag of everything that did not map.
type NormalizedSpecs struct {
	Fields map[string]string
	Custom models.JSON
}

// Specification builds the persistable row for (product, language)
func (n NormalizedSpecs) Specification(productID uuid.UUID, language string) *models.ProductSpecification {
	spec := &models.ProductSpecification{
		ProductID:   productID,
		Language:    language,
		CustomSpecs: n.Custom,
	}
	spec.Input = n.Fields[FieldInput]
	spec.MaximumWattage = n.Fields[FieldMaximumWattage]
	spec.BrandOfLed = n.Fields[FieldBrandOfLed]
	spec.LuminousFlux = n.Fields[FieldLuminousFlux]
	spec.MainMaterial = n.Fields[FieldMainMaterial]
	spec.CRI = n.Fields[FieldCRI]
	spec.BeamAngle = n.Fields[FieldBeamAngle]
	spec.WorkingTemperature = n.Fields[FieldWorkingTemperature]
	spec.FixtureDimmable = n.Fields[FieldFixtureDimmable]
	spec.Electrical = n.Fields[FieldElectrical]
	spec.PowerFactor = n.Fields[FieldPowerFactor]
	spec.ColorTemperature = n.Fields[FieldColorTemperature]
	spec.IP = n.Fields[FieldIP]
	spec.EnergySaving = n.Fields[FieldEnergySaving]
	spec.LifeTime = n.Fields[FieldLifeTime]
	spec.Finish = n.Fields[FieldFinish]
	spec.LampBase = n.Fields[FieldLampBase]
	spec.Bulb = n.Fields[FieldBulb]
	return spec
}

// SpecificationProcessor normalizes localized specification tables and
// derives the classification fields.
type SpecificationProcessor struct {
	logger *logrus.Entry
}

// NewSpecificationProcessor creates a processor logging through the given entry
func NewSpecificationProcessor(logger *logrus.Entry) *SpecificationProcessor {
	return &SpecificationProcessor{logger: logger}
}

// Process maps a raw table's keys onto canonical fields for one language.
// Unmapped keys are kept verbatim in Custom unless excluded as non-spec keys.
func (p *SpecificationProcessor) Process(raw map[string]interface{}, language string) NormalizedSpecs {
	result := NormalizedSpecs{
		Fields: make(map[string]string),
		Custom: make(models.JSON),
	}
	keyMap := specKeyMaps[language]
	for key, value := range raw {
		if canonical, ok := keyMap[key]; ok {
			result.Fields[canonical] = stringifyValue(value)
			continue
		}
		if _, excluded := excludedSpecKeys[key]; excluded {
			continue
		}
		result.Custom[key] = value
	}
	return result
}

// DetermineColor derives the color-temperature bucket from a spec table.
// Defaults to warm when the value is absent or unrecognized.
func (p *SpecificationProcessor) DetermineColor(specs map[string]interface{}) models.ProductColor {
	value, ok := firstSpecValue(specs, colorTemperatureKeys)
	if !ok {
		return models.ColorWarm
	}
	lowered := strings.ToLower(stringifyValue(value))
	for _, bucket := range colorBuckets {
		if strings.Contains(lowered, bucket.western) || strings.Contains(lowered, bucket.eastern) {
			return bucket.color
		}
	}
	return models.ColorWarm
}

// DetermineIP derives the ingress-protection bucket from a spec table.
// Defaults to IP20 when the value is absent or unrecognized.
func (p *SpecificationProcessor) DetermineIP(specs map[string]interface{}) models.ProductIP {
	value, ok := firstSpecValue(specs, ipKeys)
	if !ok {
		return models.IP20
	}
	raw := stringifyValue(value)
	for _, bucket := range ipBuckets {
		if strings.Contains(raw, bucket.western) || strings.Contains(raw, bucket.eastern) {
			return bucket.ip
		}
	}
	return models.IP20
}

// ExtractUnitCount finds the per-product unit count ("hNumber"), searching
// the product record's candidate fields first and the specification table
// second. The first candidate parsing to a value > 0 wins; record hits
// always beat specification hits.
func (p *SpecificationProcessor) ExtractUnitCount(record ProductRecord, specs map[string]interface{}) *int {
	for _, key := range recordCountKeys {
		if value, ok := record[key]; ok {
			if count, parsed := parseCount(value); parsed && count > 0 {
				return &count
			}
		}
	}
	for _, key := range specCountKeys {
		if value, ok := specs[key]; ok {
			if count, parsed := parseCount(value); parsed && count > 0 {
				return &count
			}
		}
	}
	return nil
}

// parseCount coerces one candidate value into a unit count. The bool result
// reports whether the value had a usable numeric shape at all.
func parseCount(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return int(math.Floor(v)), true
	case int:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int(math.Floor(f)), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		digits := nonDigits.ReplaceAllString(arabicIndicDigits.Replace(v), "")
		if digits == "" {
			return 0, false
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func firstSpecValue(specs map[string]interface{}, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := specs[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// stringifyValue normalizes a raw spec value for storage: strings are
// trimmed, numbers stringified, nil becomes "", anything else is JSON.
func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// MergeSpecTables overlays primary-language values over fallback-language
// ones; primary wins per key. Used when deriving classification fields from
// whichever overlay carries the value.
func MergeSpecTables(primary, fallback map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(primary)+len(fallback))
	for key, value := range fallback {
		merged[key] = value
	}
	for key, value := range primary {
		merged[key] = value
	}
	return merged
}
