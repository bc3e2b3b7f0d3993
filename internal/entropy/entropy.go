// Package entropy holds the pure string heuristics used by the filter chain.
package entropy

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// Shannon returns the Shannon entropy in bits per character of s.
func Shannon(s string) float64 {
	if s == "" {
		return 0.0
	}
	freq := make(map[rune]int)
	total := 0
	for _, char := range s {
		freq[char]++
		total++
	}

	entropy := 0.0
	length := float64(total)
	for _, count := range freq {
		probability := float64(count) / length
		entropy -= probability * math.Log2(probability)
	}
	return entropy
}

// SymbolRatio is the share of characters that are neither letters nor digits.
// Whitespace counts as a symbol.
func SymbolRatio(s string) float64 {
	return ratio(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// WhitespaceRatio is the share of whitespace characters.
func WhitespaceRatio(s string) float64 {
	return ratio(s, unicode.IsSpace)
}

// BracketRatio is the share of ()[]{} characters.
func BracketRatio(s string) float64 {
	return ratio(s, func(r rune) bool {
		switch r {
		case '(', ')', '[', ']', '{', '}':
			return true
		}
		return false
	})
}

// UniqueRatio is distinct characters over total characters.
func UniqueRatio(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	seen := make(map[rune]struct{}, n)
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return float64(len(seen)) / float64(n)
}

// LongestRunRatio is the longest run of one repeated character over the length.
func LongestRunRatio(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	longest, current := 0, 0
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			current++
		} else {
			current = 1
			prev = r
		}
		if current > longest {
			longest = current
		}
	}
	return float64(longest) / float64(n)
}

// IsASCIIAlnum reports whether s is non-empty and only [A-Za-z0-9].
func IsASCIIAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is non-empty and only ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LongestAscendingRun returns the longest run of consecutive ascending
// characters within the same class (digits, or letters ignoring case), e.g.
// "12345" or "abcde".
func LongestAscendingRun(s string) int {
	longest, current := 0, 0
	var prev byte
	for i := 0; i < len(s); i++ {
		c := lowerASCII(s[i])
		if !isDigit(c) && !(c >= 'a' && c <= 'z') {
			current = 0
			continue
		}
		if current > 0 && c == prev+1 && isDigit(c) == isDigit(prev) {
			current++
		} else {
			current = 1
		}
		prev = c
		if current > longest {
			longest = current
		}
	}
	return longest
}

func ratio(s string, match func(rune) bool) float64 {
	total, hits := 0, 0
	for _, r := range s {
		total++
		if match(r) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
