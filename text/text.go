// Package text builds the phrases the engine sends to players: enumerated
// lists, pluralized quantities and $name token substitution.
package text

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gertd/go-pluralize"
)

const (
	DefaultPattern   = "%s"
	DefaultSeparator = ","
	DefaultOperator  = "and"
)

var plural = pluralize.NewClient()

// Enumerator joins elements into prose: "a, b and c".
type Enumerator struct {
	Pattern   string
	Separator string
	Operator  string
}

func (e Enumerator) Do(elements ...string) string {
	pattern, separator, operator := DefaultPattern, DefaultSeparator, DefaultOperator
	if e.Pattern != "" {
		pattern = e.Pattern
	}
	if e.Separator != "" {
		separator = e.Separator
	}
	if e.Operator != "" {
		operator = e.Operator
	}
	res := &bytes.Buffer{}
	for idx, element := range elements {
		if idx+2 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s ", pattern), element, separator)
		} else if idx+1 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s %%s ", pattern), element, separator, operator)
		} else {
			fmt.Fprintf(res, pattern, element)
		}
	}
	return res.String()
}

// Quantify renders a counted noun: "1 gem", "3 gems".
func Quantify(qty float64, noun string) string {
	count := int(qty)
	if float64(count) != qty {
		return fmt.Sprintf("%v %s", qty, plural.Plural(noun))
	}
	return plural.Pluralize(noun, count, true)
}

func isNameByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// Substitute replaces every $name token in s with the value returned by
// lookup. Tokens lookup cannot resolve are left verbatim.
func Substitute(s string, lookup func(name string) (string, bool)) string {
	dollar := strings.IndexByte(s, '$')
	if dollar == -1 {
		return s
	}
	res := &strings.Builder{}
	for {
		res.WriteString(s[:dollar])
		s = s[dollar:]
		end := 1
		for end < len(s) && isNameByte(s[end]) {
			end++
		}
		if end == 1 {
			res.WriteByte('$')
			s = s[1:]
		} else {
			name := s[1:end]
			if val, found := lookup(name); found {
				res.WriteString(val)
			} else {
				res.WriteString(s[:end])
			}
			s = s[end:]
		}
		dollar = strings.IndexByte(s, '$')
		if dollar == -1 {
			res.WriteString(s)
			return res.String()
		}
	}
}
