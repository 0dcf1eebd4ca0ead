// Package tablefind picks the table most relevant to a question when the
// database holds more than one.
package tablefind

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

var termRe = regexp.MustCompile(`[a-z0-9_]+`)

// stopwords are question words that carry no table-selection signal
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"to": {}, "by": {}, "and": {}, "or": {}, "is": {}, "are": {}, "was": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "many": {}, "much": {},
	"show": {}, "me": {}, "list": {}, "all": {}, "per": {}, "with": {},
	"top": {}, "most": {}, "least": {}, "each": {}, "total": {},
}

// Candidate pairs a table with its column metadata for scoring
type Candidate struct {
	Info   schema.TableInfo
	Schema schema.Descriptor
}

// Match is one scored candidate
type Match struct {
	Table string
	Score float64
}

// Finder ranks candidate tables against a question. Scoring is purely
// lexical, so identical inputs always rank identically.
type Finder struct {
	provider schema.Provider
	lister   schema.Lister
}

// New creates a finder over the given schema sources
func New(provider schema.Provider, lister schema.Lister) *Finder {
	return &Finder{provider: provider, lister: lister}
}

// Find returns the best-matching table name for the question, or defaultTable
// when nothing scores above zero or listing fails.
func (f *Finder) Find(ctx context.Context, question, defaultTable string) string {
	tables, err := f.lister.ListTables(ctx)
	if err != nil || len(tables) == 0 {
		return defaultTable
	}

	if len(tables) == 1 {
		return tables[0].Name
	}

	candidates := make([]Candidate, 0, len(tables))

	for _, info := range tables {
		desc, err := f.provider.GetSchema(ctx, info.Name)
		if err != nil {
			desc = schema.Descriptor{}
		}

		candidates = append(candidates, Candidate{Info: info, Schema: desc})
	}

	matches := Rank(question, candidates)
	if len(matches) == 0 || matches[0].Score <= 0 {
		return defaultTable
	}

	return matches[0].Table
}

// fieldWeights order table name above description above column names
const (
	nameWeight        = 1.0
	descriptionWeight = 0.8
	columnWeight      = 0.7
)

// Rank scores every candidate against the question and returns matches in
// descending score order, ties broken by table name.
func Rank(question string, candidates []Candidate) []Match {
	terms := extractTerms(question)

	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		matches = append(matches, Match{
			Table: cand.Info.Name,
			Score: score(terms, cand),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}

		return matches[i].Table < matches[j].Table
	})

	return matches
}

// score applies term-frequency scoring with field weights and a coverage
// bonus for questions whose terms all match.
func score(terms []string, cand Candidate) float64 {
	if len(terms) == 0 {
		return 0.0
	}

	fields := []struct {
		content string
		weight  float64
	}{
		{strings.ToLower(cand.Info.Name), nameWeight},
		{strings.ToLower(cand.Info.Description), descriptionWeight},
		{columnText(cand.Schema), columnWeight},
	}

	totalScore := 0.0
	matchedTerms := 0

	for _, term := range terms {
		termScore := 0.0

		for _, field := range fields {
			if field.content == "" {
				continue
			}

			tf := float64(strings.Count(field.content, term))
			if tf > 0 {
				k1 := 1.2
				termScore += (tf / (tf + k1)) * field.weight
			}
		}

		if termScore > 0 {
			matchedTerms++
			totalScore += termScore
		}
	}

	if matchedTerms == 0 {
		return 0.0
	}

	avgScore := totalScore / float64(len(terms))
	coverageBonus := float64(matchedTerms) / float64(len(terms))

	return avgScore * (0.7 + 0.3*coverageBonus)
}

func columnText(desc schema.Descriptor) string {
	var sb strings.Builder

	for _, col := range desc.Columns() {
		sb.WriteString(strings.ToLower(col.Name))
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(col.Description))
		sb.WriteString(" ")
	}

	return sb.String()
}

// extractTerms tokenizes the question, dropping stopwords and duplicates
func extractTerms(question string) []string {
	tokens := termRe.FindAllString(strings.ToLower(question), -1)

	seen := map[string]struct{}{}

	var terms []string

	for _, token := range tokens {
		if _, skip := stopwords[token]; skip {
			continue
		}

		if _, dup := seen[token]; dup {
			continue
		}

		seen[token] = struct{}{}
		terms = append(terms, token)
	}

	return terms
}
