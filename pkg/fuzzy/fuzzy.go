package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	// Normalize strings: lowercase and remove accents for better matching
	s1 = normalizeString(s1)
	s2 = normalizeString(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// FuzzyMatch checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance
func FuzzyMatch(query, text string, threshold int) bool {
	query = normalizeString(query)
	text = normalizeString(text)

	// If query is contained in text, it's a match
	if strings.Contains(text, query) {
		return true
	}

	// Check if any word in text fuzzy-matches the query
	words := strings.Fields(text)
	for _, word := range words {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
		// Check if word starts with query (partial match)
		if strings.HasPrefix(word, query) {
			return true
		}
	}

	// Check overall distance for short texts
	if len(text) < 50 {
		distance := LevenshteinDistance(query, text)
		maxDistance := threshold + len(query)/5
		if distance <= maxDistance {
			return true
		}
	}

	return false
}

// MatchTask checks if a task matches the query across its title, description
// and location label. Typo tolerance scales with query length.
func MatchTask(query, title, description, location string) bool {
	threshold := 2
	if len(query) <= 3 {
		threshold = 1
	} else if len(query) >= 8 {
		threshold = 3
	}

	if FuzzyMatch(query, title, threshold) {
		return true
	}
	if description != "" && FuzzyMatch(query, description, threshold) {
		return true
	}
	if location != "" && FuzzyMatch(query, location, threshold) {
		return true
	}

	return false
}

// RelevanceScore scores how relevant a task is to a query
// Higher score = more relevant
func RelevanceScore(query, title, description, location string) float64 {
	query = normalizeString(query)
	score := 0.0

	// Exact match in title (highest weight)
	titleNorm := normalizeString(title)
	if strings.Contains(titleNorm, query) {
		score += 100.0
		if containsWord(titleNorm, query) {
			score += 50.0
		}
	} else {
		for _, word := range strings.Fields(titleNorm) {
			dist := LevenshteinDistance(query, word)
			if dist <= 2 {
				score += 50.0 - float64(dist)*15
			}
			if strings.HasPrefix(word, query) {
				score += 40.0
			}
		}
	}

	// Match in location label
	locationNorm := normalizeString(location)
	if locationNorm != "" && strings.Contains(locationNorm, query) {
		score += 80.0
		if containsWord(locationNorm, query) {
			score += 30.0
		}
	}

	// Match in description
	descNorm := normalizeString(description)
	if descNorm != "" && strings.Contains(descNorm, query) {
		score += 60.0
	}

	return score
}

// normalizeString lowercases and strips combining marks so accented and
// unaccented spellings compare equal
func normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
