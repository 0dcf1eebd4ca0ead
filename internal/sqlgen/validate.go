package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

// Verdict is the result of validating one candidate query. It is produced
// fresh per candidate and never mutated.
type Verdict struct {
	Valid   bool
	Reasons []string
}

// sqlKeywords are tokens ignored during identifier extraction.
// Lowercase; lookups normalize case.
var sqlKeywords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "group": {}, "by": {}, "order": {},
	"having": {}, "limit": {}, "offset": {}, "as": {}, "and": {}, "or": {},
	"not": {}, "in": {}, "is": {}, "null": {}, "like": {}, "ilike": {},
	"between": {}, "distinct": {}, "case": {}, "when": {}, "then": {},
	"else": {}, "end": {}, "asc": {}, "desc": {}, "join": {}, "inner": {},
	"left": {}, "right": {}, "outer": {}, "full": {}, "on": {}, "using": {},
	"union": {}, "all": {}, "exists": {}, "cast": {}, "interval": {},
	"with": {}, "date": {}, "true": {}, "false": {},
	"day": {}, "month": {}, "year": {}, "week": {}, "quarter": {},
}

// sqlFunctions are supported aggregate and scalar function names, also
// excluded from the unknown-field check.
var sqlFunctions = map[string]struct{}{
	"count": {}, "sum": {}, "avg": {}, "min": {}, "max": {},
	"round": {}, "abs": {}, "floor": {}, "ceil": {},
	"coalesce": {}, "nullif": {},
	"lower": {}, "upper": {}, "trim": {}, "length": {}, "concat": {},
	"substring": {}, "substr": {},
	"now": {}, "today": {}, "current_date": {}, "current_timestamp": {},
	"date_trunc": {}, "date_part": {}, "extract": {}, "strftime": {},
	"date_add": {}, "date_sub": {}, "date_diff": {},
}

var (
	identRe         = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
	selectRe        = regexp.MustCompile(`\bselect\b`)
	fromRe          = regexp.MustCompile(`\bfrom\b`)
	stringLiteralRe = regexp.MustCompile(`'[^']*'`)
	sepThenDMLRe    = regexp.MustCompile(`(?i);\s*(drop|delete|update|insert)\b`)
	unionSelectRe   = regexp.MustCompile(`(?i)union(\s+all)?\s+select`)
)

// StripFences removes markdown code fence markers from the start and end of a
// completion, including a ` ```sql ` language tag, case-insensitively.
func StripFences(s string) string {
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "```sql"):
		s = s[len("```sql"):]
	case strings.HasPrefix(lower, "```"):
		s = s[len("```"):]
	}

	s = strings.TrimSpace(s)

	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}

	return strings.TrimSpace(s)
}

// Validate checks a candidate query against the schema. It is a heuristic
// token-level check, not a SQL parser: dialect-specific syntax may be rejected
// and disguised injection may slip through. That tradeoff is accepted; the
// denylist below is a backstop, not a security boundary.
func Validate(candidate string, desc schema.Descriptor) Verdict {
	candidate = StripFences(candidate)

	var reasons []string

	if candidate == "" {
		return Verdict{Valid: false, Reasons: []string{"empty query"}}
	}

	lower := strings.ToLower(candidate)

	if !selectRe.MatchString(lower) {
		reasons = append(reasons, "missing SELECT clause")
	}

	if !fromRe.MatchString(lower) {
		reasons = append(reasons, "missing FROM clause")
	}

	reasons = append(reasons, unknownFieldReasons(candidate, desc)...)
	reasons = append(reasons, unsafePatternReasons(candidate)...)

	return Verdict{Valid: len(reasons) == 0, Reasons: reasons}
}

// unknownFieldReasons extracts bare identifiers and reports every one that is
// neither a keyword, a supported function, nor a schema column. Identifiers
// directly following FROM or JOIN are treated as table references, and names
// introduced with AS are treated as aliases and allowed wherever they recur.
func unknownFieldReasons(candidate string, desc schema.Descriptor) []string {
	// String literals are values, not identifiers
	stripped := stringLiteralRe.ReplaceAllString(candidate, "''")

	tokens := identRe.FindAllString(stripped, -1)

	aliases := map[string]struct{}{}

	for i, token := range tokens {
		if i > 0 && strings.EqualFold(tokens[i-1], "as") {
			aliases[strings.ToLower(token)] = struct{}{}
		}
	}

	var (
		reasons   []string
		seen      = map[string]struct{}{}
		prevLower string
	)

	for _, token := range tokens {
		tokenLower := strings.ToLower(token)
		isTableRef := prevLower == "from" || prevLower == "join"
		prevLower = tokenLower

		if isTableRef {
			continue
		}

		if _, ok := sqlKeywords[tokenLower]; ok {
			continue
		}

		if _, ok := sqlFunctions[tokenLower]; ok {
			continue
		}

		if _, ok := aliases[tokenLower]; ok {
			continue
		}

		if desc.HasFold(token) {
			continue
		}

		if _, dup := seen[token]; dup {
			continue
		}

		seen[token] = struct{}{}
		reasons = append(reasons, fmt.Sprintf("unknown field %q", token))
	}

	return reasons
}

// unsafePatternReasons applies the injection denylist. Any hit fails
// validation regardless of the other checks.
func unsafePatternReasons(candidate string) []string {
	var reasons []string

	if match := sepThenDMLRe.FindString(candidate); match != "" {
		reasons = append(reasons, fmt.Sprintf("unsafe pattern %q", match))
	}

	for _, marker := range []string{"--", "/*", "*/"} {
		if strings.Contains(candidate, marker) {
			reasons = append(reasons, fmt.Sprintf("unsafe pattern %q", marker))
		}
	}

	if match := unionSelectRe.FindString(candidate); match != "" {
		reasons = append(reasons, fmt.Sprintf("unsafe pattern %q", match))
	}

	return reasons
}

// IsUnsafe reports whether any verdict reason came from the injection denylist
func (v Verdict) IsUnsafe() bool {
	for _, reason := range v.Reasons {
		if strings.HasPrefix(reason, "unsafe pattern") {
			return true
		}
	}

	return false
}
