package utils

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z0-9_]+)\s*\}\}`)

// RenderTemplate replaces {{key}} markers with values. Unknown keys are
// left untouched.
func RenderTemplate(tmpl string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := values[key]; ok {
			return v
		}
		return match
	})
}

// TemplateKeys lists the distinct placeholder keys used in tmpl, in order
// of first appearance.
func TemplateKeys(tmpl string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
