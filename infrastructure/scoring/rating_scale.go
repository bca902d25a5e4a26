package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-brine/internal/domain"
)

// maxSuggestDistance bounds how far an unknown label may be from a known one
// before no suggestion is offered.
const maxSuggestDistance = 3

// Band is one verdict level of a rating scale together with its display
// metadata and the range of published scores that map back to it.
type Band struct {
	Rating  domain.Rating `json:"rating" yaml:"rating"`
	Score   float64       `json:"score" yaml:"score"`
	Min     float64       `json:"min" yaml:"min"`
	Emoji   string        `json:"emoji" yaml:"emoji"`
	Meaning string        `json:"meaning" yaml:"meaning"`
}

// RatingScale is the fixed mapping between verdict labels and numeric
// scores. Forward lookup (ScoreOf) is a total function over the configured
// labels; reverse lookup (Describe) maps any published score to a band.
//
// A RatingScale is immutable and safe for concurrent use.
type RatingScale struct {
	bands  []Band
	index  map[domain.Rating]int
	folded map[string]domain.Rating
}

// NewRatingScale builds a scale from levels ordered most to least positive.
// Levels must pass the same ordering rules as Config.Validate.
func NewRatingScale(levels []LevelConfig) (*RatingScale, error) {
	if err := validateLevels(levels); err != nil {
		return nil, err
	}

	s := &RatingScale{
		bands:  make([]Band, len(levels)),
		index:  make(map[domain.Rating]int, len(levels)),
		folded: make(map[string]domain.Rating, len(levels)),
	}
	for i, l := range levels {
		s.bands[i] = Band{
			Rating:  l.Rating,
			Score:   l.Score,
			Min:     l.Min,
			Emoji:   l.Emoji,
			Meaning: l.Meaning,
		}
		s.index[l.Rating] = i
		s.folded[foldLabel(string(l.Rating))] = l.Rating
	}
	return s, nil
}

// ScoreOf returns the representative score of a verdict. An unknown verdict
// is an input-contract violation and yields a *domain.ValidationError
// wrapping domain.ErrUnknownRating.
func (s *RatingScale) ScoreOf(r domain.Rating) (float64, error) {
	i, ok := s.index[r]
	if !ok {
		return 0, s.unknownRating(string(r))
	}
	return s.bands[i].Score, nil
}

// Parse resolves a user-supplied label to a verdict. Matching ignores case,
// surrounding whitespace, and treats spaces and hyphens as underscores, so
// "love it" and "Love-It" both resolve to LOVE_IT.
func (s *RatingScale) Parse(label string) (domain.Rating, error) {
	if r, ok := s.folded[foldLabel(label)]; ok {
		return r, nil
	}
	return "", s.unknownRating(label)
}

// Describe maps a published score back to its verdict band: the most
// positive level whose minimum does not exceed the score. NaN and scores
// below every band fall back to the least positive level.
func (s *RatingScale) Describe(score float64) Band {
	if !math.IsNaN(score) {
		for _, b := range s.bands {
			if score >= b.Min {
				return b
			}
		}
	}
	return s.bands[len(s.bands)-1]
}

// Bands returns a copy of the scale's bands, most positive first.
func (s *RatingScale) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

func (s *RatingScale) unknownRating(label string) error {
	verr := domain.NewValidationError("rating")
	verr.Err = domain.ErrUnknownRating

	msg := fmt.Sprintf("unknown rating %q", label)
	if suggestion, ok := s.suggest(label); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	verr.AddError(msg)
	return verr
}

// suggest returns the known label closest to label by edit distance.
func (s *RatingScale) suggest(label string) (domain.Rating, bool) {
	target := foldLabel(label)
	if target == "" {
		return "", false
	}

	best, bestDist := domain.Rating(""), math.MaxInt
	for _, b := range s.bands {
		d := levenshtein.ComputeDistance(target, foldLabel(string(b.Rating)))
		if d < bestDist {
			best, bestDist = b.Rating, d
		}
	}
	return best, bestDist <= maxSuggestDistance
}

// foldLabel normalizes a label for case-insensitive comparison. A fresh
// Caser is used per call because Casers are stateful.
func foldLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.NewReplacer(" ", "_", "-", "_").Replace(label)
	return cases.Fold().String(label)
}
