package catalog

import (
	"strings"
	"sync"
	"unicode"
)

// Translation holds the English and Arabic labels for one canonical key
type Translation struct {
	En string
	Ar string
}

var defaultCategoryTranslations = map[string]Translation{
	"indoor":         {En: "Indoor Lighting", Ar: "الإضاءة الداخلية"},
	"outdoor":        {En: "Outdoor Lighting", Ar: "الإضاءة الخارجية"},
	"chandeliers":    {En: "Chandeliers", Ar: "الثريات"},
	"wall-lights":    {En: "Wall Lights", Ar: "إضاءة الجدران"},
	"ceiling-lights": {En: "Ceiling Lights", Ar: "إضاءة الأسقف"},
	"smart-lighting": {En: "Smart Lighting", Ar: "الإضاءة الذكية"},
	"decorative":     {En: "Decorative Lighting", Ar: "الإضاءة الزخرفية"},
	"landscape":      {En: "Landscape Lighting", Ar: "إضاءة الحدائق"},
}

var defaultLightingTypeTranslations = map[string]Translation{
	"spotlight":   {En: "Spotlights", Ar: "كشافات السبوت"},
	"downlight":   {En: "Downlights", Ar: "الإضاءة الغائرة"},
	"led-strip":   {En: "LED Strips", Ar: "شرائط الليد"},
	"pendant":     {En: "Pendant Lights", Ar: "الإضاءة المعلقة"},
	"floodlight":  {En: "Floodlights", Ar: "الكشافات"},
	"track-light": {En: "Track Lights", Ar: "إضاءة المسارات"},
	"wall-washer": {En: "Wall Washers", Ar: "غاسلات الجدران"},
	"bollard":     {En: "Bollard Lights", Ar: "أعمدة الإضاءة"},
	"table-lamp":  {En: "Table Lamps", Ar: "الأباجورات"},
}

// TranslationRegistry resolves canonical category and lighting-type labels
// per language. Instances own their dictionaries so runtime registration
// never leaks across runs.
type TranslationRegistry struct {
	mu            sync.RWMutex
	categories    map[string]Translation
	lightingTypes map[string]Translation
}

// NewTranslationRegistry returns a registry seeded with the curated tables
func NewTranslationRegistry() *TranslationRegistry {
	r := &TranslationRegistry{
		categories:    make(map[string]Translation, len(defaultCategoryTranslations)),
		lightingTypes: make(map[string]Translation, len(defaultLightingTypeTranslations)),
	}
	for key, tr := range defaultCategoryTranslations {
		r.categories[key] = tr
	}
	for key, tr := range defaultLightingTypeTranslations {
		r.lightingTypes[key] = tr
	}
	return r
}

// CategoryLabel resolves the label for a category key in a language
func (r *TranslationRegistry) CategoryLabel(key, language string) string {
	r.mu.RLock()
	tr, ok := r.categories[key]
	r.mu.RUnlock()
	return resolveLabel(tr, ok, key, language)
}

// LightingTypeLabel resolves the label for a lighting-type key in a language
func (r *TranslationRegistry) LightingTypeLabel(key, language string) string {
	r.mu.RLock()
	tr, ok := r.lightingTypes[key]
	r.mu.RUnlock()
	return resolveLabel(tr, ok, key, language)
}

// AddCategory registers or overrides a category translation at runtime
func (r *TranslationRegistry) AddCategory(key, en, ar string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[key] = Translation{En: en, Ar: ar}
}

// AddLightingType registers or overrides a lighting-type translation at runtime
func (r *TranslationRegistry) AddLightingType(key, en, ar string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lightingTypes[key] = Translation{En: en, Ar: ar}
}

func resolveLabel(tr Translation, found bool, key, language string) string {
	if found {
		if language == "ar" {
			return tr.Ar
		}
		return tr.En
	}
	if language == "ar" {
		return "مجموعة " + key
	}
	return titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(key))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
