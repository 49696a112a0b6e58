package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"basegraph.app/suggestbox/internal/model"
)

const (
	AnonymousName = "Anonymous"
	MissingName   = "NameMissing"
)

// DisplayName is the one place a principal's name is derived. Precedence:
// first+last name, full name, formatted email local part, NameMissing.
func DisplayName(p model.Principal) string {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if full := strings.TrimSpace(p.FullName); full != "" {
		return full
	}
	if name := nameFromEmail(p.UserDetails); name != "" {
		return name
	}
	return MissingName
}

// Initial returns the upper-cased first letter of name.
func Initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// nameFromEmail turns "jane.doe@corp.example" into "Jane Doe".
func nameFromEmail(details string) string {
	details = strings.TrimSpace(details)
	local, _, found := strings.Cut(details, "@")
	if !found {
		return ""
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
