// Package taxonomy extracts mandatory and preferred skill sets from
// job-description prose and owns the single word-boundary matching
// primitive every scoring component reuses.
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/pkg/textx"
)

// Signals configures the keyword sets driving extraction. Zero fields fall
// back to the defaults, so a YAML override file only needs the sets it
// wants to change.
type Signals struct {
	Mandatory []string `yaml:"mandatory"`
	Preferred []string `yaml:"preferred"`
	Prefixes  []string `yaml:"prefixes"`
	Stoplist  []string `yaml:"stoplist"`
}

// DefaultSignals returns the built-in keyword configuration.
func DefaultSignals() Signals {
	return Signals{
		Mandatory: []string{"required", "must have", "essential", "mandatory"},
		Preferred: []string{"preferred", "nice to have", "good to have", "bonus"},
		Prefixes: []string{
			"proficiency in", "proficient in", "strong", "solid",
			"experience with", "experience in", "experience using",
			"familiarity with", "knowledge of", "working knowledge of",
			"expertise in", "hands-on experience with", "hands-on",
			"understanding of", "background in", "exposure to",
		},
		Stoplist: []string{
			"programming skills", "cloud platforms", "programming languages",
			"frameworks", "tools", "libraries", "databases", "technologies",
			"soft skills", "communication skills", "version control",
			"best practices", "etc", "years", "years of experience",
		},
	}
}

// LoadSignals reads a YAML override file and merges it over the defaults.
func LoadSignals(path string) (Signals, error) {
	sig := DefaultSignals()
	if path == "" {
		return sig, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Signals{}, fmt.Errorf("op=taxonomy.load_signals: %w", err)
	}
	var over Signals
	if err := yaml.Unmarshal(b, &over); err != nil {
		return Signals{}, fmt.Errorf("op=taxonomy.load_signals: %w", err)
	}
	if len(over.Mandatory) > 0 {
		sig.Mandatory = over.Mandatory
	}
	if len(over.Preferred) > 0 {
		sig.Preferred = over.Preferred
	}
	if len(over.Prefixes) > 0 {
		sig.Prefixes = over.Prefixes
	}
	if len(over.Stoplist) > 0 {
		sig.Stoplist = over.Stoplist
	}
	return sig, nil
}

// Extractor parses job-description text into a SkillSet.
type Extractor struct {
	sig      Signals
	stopset  map[string]struct{}
	prefixes []string
}

// NewExtractor constructs an Extractor with the given signals.
func NewExtractor(sig Signals) *Extractor {
	stop := make(map[string]struct{}, len(sig.Stoplist))
	for _, s := range sig.Stoplist {
		stop[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &Extractor{sig: sig, stopset: stop, prefixes: sig.Prefixes}
}

// Extract parses the job description into mandatory and preferred skill
// tokens. Blocks introduced by a mandatory signal feed the mandatory set,
// preferred signals feed the preferred set; a token present in both sets is
// kept as mandatory only.
func (e *Extractor) Extract(jobDescription string) domain.SkillSet {
	text := textx.SanitizeText(jobDescription)
	var mandatory, preferred []string
	seenMand := make(map[string]struct{})
	seenPref := make(map[string]struct{})

	for _, block := range splitBlocks(text) {
		kind, payload := e.classify(block)
		if kind == blockNone || payload == "" {
			continue
		}
		for _, tok := range e.tokens(payload) {
			key := strings.ToLower(tok)
			switch kind {
			case blockMandatory:
				if _, dup := seenMand[key]; dup {
					continue
				}
				seenMand[key] = struct{}{}
				mandatory = append(mandatory, tok)
			case blockPreferred:
				if _, dup := seenPref[key]; dup {
					continue
				}
				seenPref[key] = struct{}{}
				preferred = append(preferred, tok)
			}
		}
	}

	// Mandatory wins when a token landed in both partitions.
	out := preferred[:0]
	for _, p := range preferred {
		if _, dup := seenMand[strings.ToLower(p)]; !dup {
			out = append(out, p)
		}
	}
	return domain.SkillSet{Mandatory: mandatory, Preferred: out}
}

type blockKind int

const (
	blockNone blockKind = iota
	blockMandatory
	blockPreferred
)

// classify locates the earliest signal keyword in the block and returns the
// payload text following it.
func (e *Extractor) classify(block string) (blockKind, string) {
	lower := strings.ToLower(block)
	kind := blockNone
	best := -1
	bestLen := 0
	for _, kw := range e.sig.Mandatory {
		if idx := indexWord(lower, kw); idx >= 0 && (best == -1 || idx < best) {
			best, bestLen, kind = idx, len(kw), blockMandatory
		}
	}
	for _, kw := range e.sig.Preferred {
		if idx := indexWord(lower, kw); idx >= 0 && (best == -1 || idx < best) {
			best, bestLen, kind = idx, len(kw), blockPreferred
		}
	}
	if kind == blockNone {
		return blockNone, ""
	}
	// A few Unicode letters change byte length when lowered, which would
	// misalign best against the original block; slice the lowered copy for
	// those blocks instead.
	src := block
	if len(lower) != len(block) {
		src = lower
	}
	payload := src[best+bestLen:]
	payload = strings.TrimLeft(payload, " \t:-–")
	return kind, payload
}

// tokens turns a payload into normalized skill tokens: parentheticals are
// expanded, the remainder is split on commas and "and", descriptive prefixes
// are stripped, and stoplisted or degenerate tokens are dropped.
func (e *Extractor) tokens(payload string) []string {
	var out []string
	for _, raw := range splitList(expandParentheticals(payload)) {
		tok := e.normalizeToken(raw)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (e *Extractor) normalizeToken(raw string) string {
	tok := textx.CollapseSpaces(raw)
	tok = strings.Trim(tok, " .;\"'")
	// Strip descriptive prefixes, repeatedly: "Strong experience with X".
	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(tok)
		for _, p := range e.prefixes {
			if strings.HasPrefix(lower, p+" ") {
				tok = strings.TrimSpace(tok[len(p):])
				changed = true
				break
			}
		}
	}
	if tok == "" || len(tok) > 64 {
		return ""
	}
	if _, stop := e.stopset[strings.ToLower(tok)]; stop {
		return ""
	}
	if isNumeric(tok) {
		return ""
	}
	return tok
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
