// Package terms extracts the top terms of a set of documents.
//
// Documents are lowercased, stripped to ASCII, and split into words of at
// least three characters. Stop words and terms that appear in too few
// documents are dropped. The NumTerms terms with the highest corpus
// frequency are kept and returned in alphabetical order, each with its
// summed TF-IDF weight.
package terms

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultNumTerms is the number of terms returned when none is given.
const DefaultNumTerms = 5

// DefaultMinDocFreq drops terms found in less than this fraction of the documents.
const DefaultMinDocFreq = 0.1

// ErrNoTerms is returned when no term survives tokenization and filtering.
var ErrNoTerms = errors.New("no terms remain after filtering")

var tokenPattern = regexp.MustCompile(`\w{3,}`)

// Options controls term extraction.
type Options struct {
	// NumTerms is the maximum number of terms returned (default DefaultNumTerms).
	NumTerms int

	// AdditionalStopWords are ignored on top of the built-in list. Case-insensitive.
	AdditionalStopWords []string

	// MinDocFreq is the minimum document frequency as a fraction of the
	// documents (default DefaultMinDocFreq). Negative values disable the filter.
	MinDocFreq float64
}

// Term is one extracted term.
type Term struct {
	Text string

	// Frequency is the number of occurrences across all documents.
	Frequency int

	// DocFreq is the number of documents containing the term.
	DocFreq int

	// Weight is the sum over documents of the L2-normalised TF-IDF value.
	Weight float64
}

// Extract returns the top terms of docs in alphabetical order.
func Extract(docs []string, opts Options) ([]string, error) {
	ranked, err := Rank(docs, opts)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(ranked))
	for i, t := range ranked {
		out[i] = t.Text
	}
	return out, nil
}

// Rank is Extract with frequencies and weights.
func Rank(docs []string, opts Options) ([]Term, error) {
	if opts.NumTerms <= 0 {
		opts.NumTerms = DefaultNumTerms
	}
	if opts.MinDocFreq == 0 {
		opts.MinDocFreq = DefaultMinDocFreq
	}

	stop := stopWordSet(opts.AdditionalStopWords)

	// Per-document term counts
	counts := make([]map[string]int, len(docs))
	freq := map[string]int{}
	docFreq := map[string]int{}
	for i, doc := range docs {
		counts[i] = map[string]int{}
		for _, tok := range Tokenize(doc) {
			if _, skip := stop[tok]; skip {
				continue
			}
			counts[i][tok]++
			freq[tok]++
		}
		for tok := range counts[i] {
			docFreq[tok]++
		}
	}

	if len(freq) == 0 {
		return nil, ErrNoTerms
	}

	minDocs := opts.MinDocFreq * float64(len(docs))
	candidates := make([]Term, 0, len(freq))
	for tok, f := range freq {
		if float64(docFreq[tok]) < minDocs {
			continue
		}
		candidates = append(candidates, Term{Text: tok, Frequency: f, DocFreq: docFreq[tok]})
	}

	if len(candidates) == 0 {
		return nil, ErrNoTerms
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Frequency != candidates[j].Frequency {
			return candidates[i].Frequency > candidates[j].Frequency
		}
		return candidates[i].Text < candidates[j].Text
	})
	if len(candidates) > opts.NumTerms {
		candidates = candidates[:opts.NumTerms]
	}

	weigh(candidates, counts)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Text < candidates[j].Text
	})

	for _, t := range candidates {
		log.Debug().
			Str("term", t.Text).
			Int("frequency", t.Frequency).
			Int("doc_freq", t.DocFreq).
			Float64("weight", t.Weight).
			Msg("Term weight")
	}

	return candidates, nil
}

// weigh fills Weight using smoothed idf, ln((1+n)/(1+df)) + 1, over the selected terms.
func weigh(selected []Term, counts []map[string]int) {
	n := float64(len(counts))
	idf := make([]float64, len(selected))
	for i, t := range selected {
		idf[i] = math.Log((1+n)/(1+float64(t.DocFreq))) + 1
	}

	row := make([]float64, len(selected))
	for _, doc := range counts {
		var norm2 float64
		for i, t := range selected {
			row[i] = float64(doc[t.Text]) * idf[i]
			norm2 += row[i] * row[i]
		}
		if norm2 == 0 {
			continue
		}
		l2 := math.Sqrt(norm2)
		for i := range selected {
			selected[i].Weight += row[i] / l2
		}
	}
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
})))

// Normalize lowercases s and folds it to ASCII, dropping accents and any
// character without an ASCII decomposition.
func Normalize(s string) string {
	folded, _, err := transform.String(asciiFold, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Tokenize returns the words of at least three characters in s, normalized.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(Normalize(s), -1)
}

func stopWordSet(additional []string) map[string]struct{} {
	set := make(map[string]struct{}, len(stopWords)+len(additional))
	for _, w := range stopWords {
		set[w] = struct{}{}
	}
	for _, w := range additional {
		set[Normalize(w)] = struct{}{}
	}
	return set
}
