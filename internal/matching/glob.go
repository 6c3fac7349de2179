package matching

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// compiled caches the unanchored expression for each pattern. A nil entry
// marks a pattern that never matches.
var compiled sync.Map // map[string]*regexp.Regexp

// MatchAny reports whether any pattern contain-matches candidate.
//
// A pattern contain-matches when it matches some substring of candidate, so
// "/api/**" matches "http://example.com/api/users?page=2" and "**favicon*"
// matches "/favicon.ico". Within a pattern, * does not cross a "/" while **
// does. An empty pattern list never matches, and neither does an empty or
// malformed pattern.
func MatchAny(candidate string, patterns []string) bool {
	for _, pattern := range patterns {
		if MatchContains(pattern, candidate) {
			return true
		}
	}
	return false
}

// MatchContains reports whether pattern matches any substring of candidate.
// It runs in time linear in the length of candidate.
func MatchContains(pattern, candidate string) bool {
	re := compile(pattern)
	return re != nil && re.MatchString(candidate)
}

func compile(pattern string) *regexp.Regexp {
	if v, ok := compiled.Load(pattern); ok {
		return v.(*regexp.Regexp)
	}

	var re *regexp.Regexp
	if pattern != "" && doublestar.ValidatePattern(pattern) {
		// translation errors leave re nil, which never matches
		re, _ = regexp.Compile(globToRegexp(pattern))
	}
	v, _ := compiled.LoadOrStore(pattern, re)
	return v.(*regexp.Regexp)
}

// globToRegexp translates a validated glob into an unanchored expression.
// "**/" may match nothing or any run of segments ending in "/", "/**" may
// match nothing or "/" followed by anything, and a bare "**" matches
// anything.
func globToRegexp(pattern string) string {
	var b strings.Builder
	depth := 0

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			i++
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		case c == '/' && strings.HasPrefix(pattern[i:], "/**") && (i+3 == len(pattern) || pattern[i+3] == '/'):
			b.WriteString("(?:/.*)?")
			i += 2
		case c == '*' && strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case c == '*' && strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		case c == '[':
			i = writeClass(&b, pattern, i)
		case c == '{':
			depth++
			b.WriteString("(?:")
		case c == '}' && depth > 0:
			depth--
			b.WriteString(")")
		case c == ',' && depth > 0:
			b.WriteString("|")
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	return b.String()
}

// writeClass copies the character class starting at pattern[start] and
// returns the index of its closing bracket.
func writeClass(b *strings.Builder, pattern string, start int) int {
	b.WriteByte('[')
	i := start + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		b.WriteByte('^')
		i++
	}
	for ; i < len(pattern) && pattern[i] != ']'; i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			i++
			c = pattern[i]
		}
		if c == '-' {
			b.WriteByte('-')
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(c)))
	}
	b.WriteByte(']')
	return i
}
