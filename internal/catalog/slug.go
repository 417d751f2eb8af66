package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// directSlugTerms maps curated Arabic lighting terms to fixed English slug
// tokens, bypassing sanitization entirely.
var directSlugTerms = map[string]string{
	"داخلي":          "indoor",
	"خارجي":          "outdoor",
	"إضاءة داخلية":   "indoor-lighting",
	"إضاءة خارجية":   "outdoor-lighting",
	"ثريا":           "chandelier",
	"ثريات":          "chandeliers",
	"اسبوت":          "spotlight",
	"سبوت لايت":      "spotlight",
	"شريط ليد":       "led-strip",
	"أباجورة":        "table-lamp",
	"إضاءة معلقة":    "pendant-light",
	"تعليقة":         "pendant",
	"كشاف":           "floodlight",
	"إضاءة جدارية":   "wall-light",
	"إضاءة سقف":      "ceiling-light",
	"إضاءة مسارات":   "track-light",
	"مودرن":          "modern",
	"كلاسيك":         "classic",
}

var (
	arabicDiacritics = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0670}]`)
	slugDisallowed   = regexp.MustCompile(`[^\w\s\x{0600}-\x{06FF}-]`)
	slugSeparators   = regexp.MustCompile(`[\s_]+`)
	hyphenRuns       = regexp.MustCompile(`-{2,}`)
	allDigits        = regexp.MustCompile(`^[0-9]+$`)
)

// SlugGenerator issues collision-free slugs scoped to (language, context).
// Issued slugs are tracked per scope for the lifetime of one import run;
// seed the scopes from the store before reuse across runs.
type SlugGenerator struct {
	mu     sync.Mutex
	issued map[string]map[string]struct{}
}

// NewSlugGenerator creates an empty per-run slug generator
func NewSlugGenerator() *SlugGenerator {
	return &SlugGenerator{issued: make(map[string]map[string]struct{})}
}

// Unique returns a slug for text that is unused within (language, context).
// Collisions get the smallest free "-N" counter suffix. An empty or purely
// numeric sanitized base is an error; callers fall back to Hash.
func (g *SlugGenerator) Unique(text, language, context string) (string, error) {
	base := ""
	if language == "ar" {
		if mapped, ok := directSlugTerms[strings.TrimSpace(text)]; ok {
			base = mapped
		}
	}
	if base == "" {
		base = sanitizeSlug(text)
	}
	if base == "" || allDigits.MatchString(base) {
		return "", fmt.Errorf("unusable slug base for %q", text)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.scopeLocked(language, context)
	slug := base
	for counter := 1; ; counter++ {
		if _, taken := set[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	set[slug] = struct{}{}
	return slug, nil
}

// Hash returns a deterministic last-resort slug for text within context
func (g *SlugGenerator) Hash(text, context string) string {
	sum := md5.Sum([]byte(text + context))
	return "item-" + hex.EncodeToString(sum[:])[:8]
}

// Reserve marks an already-persisted slug as taken within its scope
func (g *SlugGenerator) Reserve(slug, language, context string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scopeLocked(language, context)[slug] = struct{}{}
}

func (g *SlugGenerator) scopeLocked(language, context string) map[string]struct{} {
	key := language + "|" + context
	set, ok := g.issued[key]
	if !ok {
		set = make(map[string]struct{})
		g.issued[key] = set
	}
	return set
}

// sanitizeSlug reduces arbitrary (possibly Arabic) text to a URL-safe base
// slug. Returns "" when nothing survives sanitization.
func sanitizeSlug(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = arabicDiacritics.ReplaceAllString(slug, "")
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	runes := []rune(slug)
	if len(runes) > 50 {
		slug = strings.TrimRight(string(runes[:50]), "-")
	}
	return slug
}
