package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName collapses runs of whitespace into a single space and trims
// the ends. Upstream participant lists pad names inconsistently, so every
// name comparison must go through this first.
func NormalizeName(name string) string {
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// NameKey is the lookup form of a name: normalized and case-folded.
func NameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

func MatchName(name string, matchers []string) bool {
	key := NameKey(name)
	for _, m := range matchers {
		if strings.Contains(key, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
