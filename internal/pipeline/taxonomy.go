package pipeline

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maquina-noticias/pipeline/internal/sanitize"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// Taxonomy is the triage classification scheme plus the stopword lists used
// for lexical language detection.
type Taxonomy struct {
	Categories        []string            `yaml:"categories"`
	CanonicalLanguage string              `yaml:"canonical_language"`
	Stopwords         map[string][]string `yaml:"stopwords"`

	stopwordSets map[string]map[string]struct{}
}

// LoadTaxonomy parses the embedded taxonomy asset. Called once at startup;
// a parse failure is a build defect, not a runtime condition.
func LoadTaxonomy() (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(taxonomyYAML, &t); err != nil {
		return nil, err
	}

	t.stopwordSets = make(map[string]map[string]struct{}, len(t.Stopwords))
	for lang, words := range t.Stopwords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[sanitize.FoldDiacritics(w)] = struct{}{}
		}
		t.stopwordSets[lang] = set
	}
	return &t, nil
}

// KnownCategory reports whether the model-assigned category belongs to the
// taxonomy.
func (t *Taxonomy) KnownCategory(category string) bool {
	for _, c := range t.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// DetectLanguage scores the text's tokens against each language's stopword
// set and returns the best match. Diacritics are folded before comparison so
// "según" matches "segun". Texts with no stopword hits default to the
// canonical language, which downstream treats as "no translation needed".
func (t *Taxonomy) DetectLanguage(text string) string {
	tokens := strings.Fields(sanitize.FoldDiacritics(text))
	if len(tokens) == 0 {
		return t.CanonicalLanguage
	}

	best := t.CanonicalLanguage
	bestHits := 0
	for lang, set := range t.stopwordSets {
		hits := 0
		for _, tok := range tokens {
			tok = strings.Trim(tok, ".,;:!?\"'()[]«»¿¡")
			if _, ok := set[tok]; ok {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && lang == t.CanonicalLanguage && hits > 0) {
			best = lang
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return t.CanonicalLanguage
	}
	return best
}
