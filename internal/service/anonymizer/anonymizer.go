// Package anonymizer masks sensitive spans in resume text with unique
// reversible tokens before any text leaves the trust boundary. Token and
// collection-id generation is owned here exclusively; persistence of the
// token mapping is delegated to the PIIStore collaborator.
package anonymizer

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/screener/internal/domain"
)

// ConfidenceThreshold filters recognizer hits; detections at or below it
// are ignored.
const ConfidenceThreshold = 0.6

// tokenAttempts bounds collision retries when minting a masked token.
const tokenAttempts = 100

// collectionIDAttempts bounds retries when allocating a fresh collection id.
const collectionIDAttempts = 100

// Detection is one sensitive span found by a recognizer.
type Detection struct {
	Start      int
	End        int
	EntityType string
	Score      float64
}

// Recognizer finds sensitive spans in text. The built-in regex recognizer
// covers emails, phone numbers, and addresses; a named-entity recognizer
// can be plugged in alongside it.
type Recognizer interface {
	Recognize(text string) []Detection
}

// Anonymizer masks text and records reversible mappings. It owns the
// process-wide set of issued tokens; construct one instance per logical
// session and call Reset when isolation between runs is required, since
// the set otherwise grows for the lifetime of the instance.
type Anonymizer struct {
	store       domain.PIIStore
	recognizers []Recognizer

	mu     sync.Mutex
	issued map[string]struct{}
	rnd    *rand.Rand
}

// Option configures an Anonymizer.
type Option func(*Anonymizer)

// WithRecognizer appends an additional recognizer to the detection pass.
func WithRecognizer(r Recognizer) Option {
	return func(a *Anonymizer) { a.recognizers = append(a.recognizers, r) }
}

// WithSeed fixes the random source; tests use this for determinism.
func WithSeed(seed int64) Option {
	return func(a *Anonymizer) { a.rnd = rand.New(rand.NewSource(seed)) } //nolint:gosec // Tokens are placeholders, not secrets.
}

// New constructs an Anonymizer backed by the given mapping store.
func New(store domain.PIIStore, opts ...Option) *Anonymizer {
	a := &Anonymizer{
		store:       store,
		recognizers: []Recognizer{builtinRecognizer{}},
		issued:      make(map[string]struct{}),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Tokens are placeholders, not secrets.
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reset clears the issued-token set, isolating subsequent runs from
// earlier ones.
func (a *Anonymizer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issued = make(map[string]struct{})
}

// Mask detects sensitive spans and substitutes each distinct value with a
// unique token, persisting the token mapping under a fresh collection id.
// The masked text plus the mapping reconstructs the original verbatim.
// The only fatal error is domain.ErrUniquenessExhausted.
func (a *Anonymizer) Mask(ctx domain.Context, text string) (string, []domain.PIIMapping, string, error) {
	collectionID, err := a.newCollectionID(ctx)
	if err != nil {
		return "", nil, "", err
	}

	var mappings []domain.PIIMapping
	seen := make(map[string]struct{})
	for _, rec := range a.recognizers {
		for _, d := range rec.Recognize(text) {
			if d.Score <= ConfidenceThreshold {
				continue
			}
			original := text[d.Start:d.End]
			if _, dup := seen[original]; dup {
				continue
			}
			seen[original] = struct{}{}
			token, err := a.mintToken(d.EntityType)
			if err != nil {
				return "", nil, "", err
			}
			if err := a.store.Store(ctx, collectionID, token, original); err != nil {
				return "", nil, "", fmt.Errorf("op=anonymizer.store: %w", err)
			}
			mappings = append(mappings, domain.PIIMapping{
				CollectionID: collectionID,
				Token:        token,
				Original:     original,
			})
		}
	}

	// Substitute longest originals first so a value embedded in a larger
	// detected span (a phone number inside an address) cannot corrupt the
	// longer replacement.
	ordered := make([]domain.PIIMapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Original) > len(ordered[j].Original)
	})
	masked := text
	for _, m := range ordered {
		masked = strings.ReplaceAll(masked, m.Original, m.Token)
	}
	return masked, mappings, collectionID, nil
}

// Unmask reverses a masking run given its mapping.
func Unmask(masked string, mappings []domain.PIIMapping) string {
	out := masked
	for _, m := range mappings {
		out = strings.ReplaceAll(out, m.Token, m.Original)
	}
	return out
}

func (a *Anonymizer) newCollectionID(ctx domain.Context) (string, error) {
	for i := 0; i < collectionIDAttempts; i++ {
		id := uuid.NewString()
		exists, err := a.store.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("op=anonymizer.collection_id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("op=anonymizer.collection_id: %w", domain.ErrUniquenessExhausted)
}

// mintToken mints a `<TYPE_NNNN>` token unique across all tokens this
// instance ever issued.
func (a *Anonymizer) mintToken(entityType string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < tokenAttempts; i++ {
		token := fmt.Sprintf("<%s_%04d>", entityType, 1000+a.rnd.Intn(9000))
		if _, taken := a.issued[token]; taken {
			continue
		}
		a.issued[token] = struct{}{}
		return token, nil
	}
	return "", fmt.Errorf("op=anonymizer.mint_token: entity=%s: %w", entityType, domain.ErrUniquenessExhausted)
}

// builtinRecognizer is the fixed regex pass for addresses, phone numbers,
// and emails.
type builtinRecognizer struct{}

var (
	// street number, street, locality, region, 5-6 digit postal code
	reAddress = regexp.MustCompile(`\b\d{1,5}\s+[A-Za-z0-9 .,/-]+?,\s*[A-Za-z ]+,\s*[A-Za-z ]+,?\s*[A-Z]{2}\s*\d{5,6}\b`)
	rePhoneIN = regexp.MustCompile(`\b(?:\+91[ -]?|0)?[6-9]\d{9}\b`)
	rePhoneE  = regexp.MustCompile(`\+\d{1,3}[ -]?\d{3,5}[ -]?\d{3,6}`)
	reEmail   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

type pattern struct {
	re     *regexp.Regexp
	entity string
	score  float64
}

var builtinPatterns = []pattern{
	{reAddress, "ADDRESS", 0.9},
	{rePhoneIN, "PHONE", 0.8},
	{rePhoneE, "PHONE", 0.7},
	{reEmail, "EMAIL", 0.9},
}

func (builtinRecognizer) Recognize(text string) []Detection {
	var out []Detection
	for _, p := range builtinPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, Detection{
				Start:      loc[0],
				End:        loc[1],
				EntityType: p.entity,
				Score:      p.score,
			})
		}
	}
	return out
}
