package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultThreshold is the worst field score still counted as a match.
	DefaultThreshold = 0.4
	// MinTokenLength drops single-character noise from queries.
	MinTokenLength = 2

	epsilon = 2.220446049250313e-16
)

// Field is one weighted piece of text an item is searched on.
type Field struct {
	Text   string
	Weight float64
}

// Options tune a Search call. Zero values fall back to defaults.
type Options struct {
	Threshold      float64
	MinTokenLength int
	Limit          int
}

// Result pairs an item with its score. Lower is better, 0 is a perfect match.
type Result[T any] struct {
	Item  T
	Score float64
}

// Search scores every item against query and returns the matches sorted best
// first. Items are compared token by token, so a query word matches anywhere
// inside a field and tolerates a few typos.
func Search[T any](query string, items []T, fields func(T) []Field, opts Options) []Result[T] {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MinTokenLength <= 0 {
		opts.MinTokenLength = MinTokenLength
	}

	tokens := Tokenize(query, opts.MinTokenLength)
	if len(tokens) == 0 {
		return nil
	}

	results := make([]Result[T], 0)
	for _, item := range items {
		score, ok := ScoreFields(tokens, fields(item), opts.Threshold)
		if !ok {
			continue
		}
		results = append(results, Result[T]{Item: item, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// ScoreFields combines per-field scores into one item score. Every matched
// field multiplies the total by score^weight (weights normalized to sum to 1),
// so matching in more fields, or in heavier fields, lowers the total.
func ScoreFields(queryTokens []string, fields []Field, threshold float64) (float64, bool) {
	totalWeight := 0.0
	for _, f := range fields {
		totalWeight += f.Weight
	}
	if totalWeight <= 0 {
		return 1, false
	}

	total := 1.0
	matched := false
	for _, f := range fields {
		if f.Weight <= 0 || strings.TrimSpace(f.Text) == "" {
			continue
		}
		s := FieldScore(queryTokens, f.Text)
		if s > threshold {
			continue
		}
		matched = true
		if s == 0 {
			s = epsilon
		}
		total *= math.Pow(s, f.Weight/totalWeight)
	}

	if !matched {
		return 1, false
	}
	return total, true
}

// FieldScore is the mean of the best score of each query token against the
// tokens of text. A token contained in the text scores 0; otherwise its score
// is the edit distance ratio to the closest word, or 1 when that distance is
// above the tolerance for the token's length.
func FieldScore(queryTokens []string, text string) float64 {
	norm := normalizeString(text)
	words := strings.FieldsFunc(norm, isSeparator)
	if len(queryTokens) == 0 || len(words) == 0 {
		return 1
	}

	sum := 0.0
	for _, q := range queryTokens {
		if strings.Contains(norm, q) {
			continue
		}
		best := 1.0
		tolerance := typoTolerance(q)
		for _, w := range words {
			dist := LevenshteinDistance(q, w)
			if dist > tolerance {
				continue
			}
			ratio := float64(dist) / float64(maxInt(len([]rune(q)), len([]rune(w))))
			if ratio < best {
				best = ratio
			}
		}
		sum += best
	}
	return sum / float64(len(queryTokens))
}

// Tokenize normalizes s and splits it into words of at least minLen runes.
func Tokenize(s string, minLen int) []string {
	words := strings.FieldsFunc(normalizeString(s), isSeparator)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) >= minLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalizeString(s1))
	r2 := []rune(normalizeString(s2))

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows are enough since each cell only looks one row back
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// Helper functions

// typoTolerance grows with the token so short words stay strict
func typoTolerance(token string) int {
	n := len([]rune(token))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '@' && r != '.' && r != '_' && r != '-'
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// normalizeString lowercases, folds accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// removeAccents removes diacritical marks from a string
// Useful for matching Vietnamese text without accents
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) { // Mn: Mark, nonspacing
			continue
		}
		switch r {
		case 'á', 'à', 'ả', 'ã', 'ạ', 'ă', 'ắ', 'ằ', 'ẳ', 'ẵ', 'ặ', 'â', 'ấ', 'ầ', 'ẩ', 'ẫ', 'ậ':
			result.WriteRune('a')
		case 'é', 'è', 'ẻ', 'ẽ', 'ẹ', 'ê', 'ế', 'ề', 'ể', 'ễ', 'ệ':
			result.WriteRune('e')
		case 'í', 'ì', 'ỉ', 'ĩ', 'ị':
			result.WriteRune('i')
		case 'ó', 'ò', 'ỏ', 'õ', 'ọ', 'ô', 'ố', 'ồ', 'ổ', 'ỗ', 'ộ', 'ơ', 'ớ', 'ờ', 'ở', 'ỡ', 'ợ':
			result.WriteRune('o')
		case 'ú', 'ù', 'ủ', 'ũ', 'ụ', 'ư', 'ứ', 'ừ', 'ử', 'ữ', 'ự':
			result.WriteRune('u')
		case 'ý', 'ỳ', 'ỷ', 'ỹ', 'ỵ':
			result.WriteRune('y')
		case 'đ':
			result.WriteRune('d')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
