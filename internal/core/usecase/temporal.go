package usecase

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// TemporalOptions tunes recency decay.
type TemporalOptions struct {
	HalfLifeDays float64
	// MaxDecay floors the decay factor so old documents are downweighted,
	// never erased.
	MaxDecay float64
	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// TemporalReasoner parses natural-language time references and applies
// either a hard date filter or half-life score decay.
type TemporalReasoner struct {
	opts TemporalOptions
}

func NewTemporalReasoner(opts TemporalOptions) *TemporalReasoner {
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = 365
	}
	if opts.MaxDecay <= 0 || opts.MaxDecay > 1 {
		opts.MaxDecay = 0.5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TemporalReasoner{opts: opts}
}

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// relativeFrames in matching order; longer phrases first so "last week"
// wins over a bare "week" never being in the vocabulary anyway.
var relativeFrames = []struct {
	phrase string
	frame  string
	days   int
}{
	{"today", "today", 1},
	{"yesterday", "yesterday", 2},
	{"last week", "last_week", 7},
	{"past week", "last_week", 7},
	{"last month", "last_month", 31},
	{"past month", "last_month", 31},
	{"last year", "last_year", 366},
	{"past year", "last_year", 366},
	{"this month", "this_month", 0},
	{"this year", "this_year", 0},
	{"recent", "recent", 90},
	{"latest", "recent", 90},
}

// Parse scans the query for temporal phrases, collecting every match. The
// derived window follows the most specific match: an explicit 4-digit year
// wins over any relative phrase.
func (t *TemporalReasoner) Parse(query string) domain.TemporalQuery {
	lowered := strings.ToLower(query)
	now := t.opts.Now().UTC()

	out := domain.TemporalQuery{DecayFactor: 1.0}

	for _, rf := range relativeFrames {
		if strings.Contains(lowered, rf.phrase) {
			out.TemporalKeywords = append(out.TemporalKeywords, rf.phrase)
			if out.TimeFrame == "" {
				out.TimeFrame = rf.frame
				start, end := relativeWindow(rf.frame, rf.days, now)
				out.StartDate, out.EndDate = &start, &end
			}
		}
	}

	if matches := yearPattern.FindAllString(lowered, -1); len(matches) > 0 {
		out.TemporalKeywords = append(out.TemporalKeywords, matches...)
		// Explicit year is the most specific reference: it overrides any
		// relative window already derived.
		year, _ := strconv.Atoi(matches[0])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
		out.TimeFrame = "year_" + matches[0]
		out.StartDate, out.EndDate = &start, &end
	}

	if len(out.TemporalKeywords) > 0 {
		out.HasTemporalReference = true
		out.DecayFactor = 0.0
	}
	return out
}

func relativeWindow(frame string, days int, now time.Time) (time.Time, time.Time) {
	switch frame {
	case "this_month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, now
	case "this_year":
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, now
	default:
		return now.AddDate(0, 0, -days), now
	}
}

// Decay computes the exponential half-life factor for one timestamp,
// clamped to [MaxDecay, 1.0]. Future timestamps clamp to 1.0 rather than
// amplifying the score.
func (t *TemporalReasoner) Decay(timestamp, now time.Time) float64 {
	ageDays := now.Sub(timestamp).Hours() / 24
	factor := math.Exp(-math.Ln2 * ageDays / t.opts.HalfLifeDays)
	return clamp(factor, t.opts.MaxDecay, 1.0)
}

// FilterRange keeps results created within [start, end] inclusive. Results
// with no timestamp are kept, not dropped.
func (t *TemporalReasoner) FilterRange(results []domain.FusedResult, start, end *time.Time) []domain.FusedResult {
	out := make([]domain.FusedResult, 0, len(results))
	for _, r := range results {
		created := r.Metadata.CreatedAt
		if created == nil {
			out = append(out, r)
			continue
		}
		if start != nil && created.Before(*start) {
			continue
		}
		if end != nil && created.After(*end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Process dispatches on the parsed query: explicit references hard-filter
// and skip decay entirely; otherwise every combined score decays in place
// and the list is re-sorted. Missing timestamps decay by 1.0 (no penalty).
func (t *TemporalReasoner) Process(results []domain.FusedResult, tq domain.TemporalQuery) []domain.FusedResult {
	if tq.HasTemporalReference {
		return t.FilterRange(results, tq.StartDate, tq.EndDate)
	}

	now := t.opts.Now().UTC()
	out := make([]domain.FusedResult, len(results))
	copy(out, results)
	for i := range out {
		if out[i].Metadata.CreatedAt == nil {
			continue
		}
		out[i].CombinedScore *= t.Decay(*out[i].Metadata.CreatedAt, now)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return out
}
