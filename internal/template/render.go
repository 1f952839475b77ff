// Package template renders message templates with {{placeholder}} tokens.
// Substitution is plain-text, nothing is escaped.
package template

import (
	"fmt"
	"strings"
)

// Render replaces every occurrence of {{key}} in tmpl with the stringified
// value from vars. Placeholders with no matching key are left verbatim; nil
// values render as the empty string.
func Render(tmpl string, vars map[string]interface{}) string {
	out := tmpl
	for key, val := range vars {
		var s string
		if val != nil {
			s = fmt.Sprintf("%v", val)
		}
		out = strings.ReplaceAll(out, "{{"+key+"}}", s)
	}
	return out
}
