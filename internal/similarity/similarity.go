// Package similarity ranks near-duplicate submissions within one batch.
//
// Every unordered pair of items is scored with a hybrid lexical metric:
// fuzzy string ratios on the normalized texts plus the Jaccard index of
// 3-token shingle sets. The pass is O(n²) string comparisons by design;
// batches are small enough that no pre-filtering is applied.
package similarity

import (
	"regexp"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Combined-score weights. Tunable; the 0.5/0.5 split carries no deeper
// rationale than equal weighting of the two signals.
const (
	tokenSetWeight = 0.5
	jaccardWeight  = 0.5
)

const shingleSize = 3

// Item is one already-extracted submission entering the pairwise pass.
type Item struct {
	ID   string
	Name string
	Text string
}

// Pair is an above-threshold unordered pair with its component scores,
// all on a 0-100 scale.
type Pair struct {
	IDA   string
	IDB   string
	NameA string
	NameB string

	Ratio         float64
	PartialRatio  float64
	TokenSetRatio float64
	Jaccard3gram  float64
	Combined      float64
}

// reOutsideAlphabet strips punctuation outside the supported alphabets
// before shingling.
var reOutsideAlphabet = regexp.MustCompile(`[^a-zA-Z0-9çğıöşüÇĞİÖŞÜА-Яа-яЁёӘәІіҚқҢңҰұҮүҺһ\s]`)

var reWhitespace = regexp.MustCompile(`\s+`)

// FindSimilar scores every unordered pair of distinct items and returns the
// pairs whose combined score reaches threshold, sorted descending by
// combined score.
func FindSimilar(items []Item, threshold float64) []Pair {
	var results []Pair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			p := PairScore(items[i], items[j])
			if p.Combined >= threshold {
				results = append(results, p)
			}
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Combined > results[b].Combined
	})
	return results
}

// PairScore computes the component and combined scores for one pair.
func PairScore(a, b Item) Pair {
	ta := clean(a.Text)
	tb := clean(b.Text)

	tokenSet := float64(fuzzy.TokenSetRatio(ta, tb))
	jac := jaccard(shingles(ta), shingles(tb))

	combined := 100 * (tokenSetWeight*tokenSet/100 + jaccardWeight*jac)

	return Pair{
		IDA:   a.ID,
		IDB:   b.ID,
		NameA: a.Name,
		NameB: b.Name,

		Ratio:         float64(fuzzy.Ratio(ta, tb)),
		PartialRatio:  float64(fuzzy.PartialRatio(ta, tb)),
		TokenSetRatio: tokenSet,
		Jaccard3gram:  jac * 100,
		Combined:      combined,
	}
}

// clean lowercases, collapses whitespace runs and trims.
func clean(t string) string {
	t = strings.ToLower(t)
	t = reWhitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// shingles builds the set of 3-token subsequences of the cleaned text.
// Texts with fewer than 3 tokens degenerate to their raw token set.
func shingles(text string) map[string]struct{} {
	text = reOutsideAlphabet.ReplaceAllString(text, " ")
	tokens := strings.Fields(text)

	set := make(map[string]struct{})
	if len(tokens) < shingleSize {
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
		return set
	}
	for i := 0; i+shingleSize <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+shingleSize], " ")] = struct{}{}
	}
	return set
}

// jaccard is intersection over union; the union floor is 1 so two empty
// sets score 0 rather than dividing by zero.
func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		union = 1
	}
	return float64(inter) / float64(union)
}
