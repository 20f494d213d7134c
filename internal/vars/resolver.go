package vars

import (
	"regexp"
	"strings"
)

var templateTokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Resolve substitutes {{...}} tokens in text using one snapshot. Tokens whose
// trimmed content starts with "$" dispatch to the dynamic generators; anything
// else is a scope key lookup. Unresolved tokens are not errors: the original
// text passes through verbatim so it stays visible for debugging.
//
// Substitution is single-pass. Values pulled from the snapshot or a generator
// are inserted literally and never re-scanned, so a value containing "{{" can
// not trigger another round of resolution.
func Resolve(text string, snapshot Snapshot) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return templateTokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		content := strings.TrimSpace(match[2 : len(match)-2])
		if content == "" {
			return match
		}
		if strings.HasPrefix(content, "$") {
			name, args, ok := parseGeneratorCall(content[1:])
			if !ok {
				return match
			}
			if value, resolved := ResolveDynamic(name, args); resolved {
				return value
			}
			return match
		}
		if value, ok := snapshot.Lookup(content); ok {
			return value
		}
		return match
	})
}

// parseGeneratorCall splits "randomInt(1,100)" into its name and argument
// list. A bare name has no args; a dangling "(" is malformed and the token
// stays verbatim.
func parseGeneratorCall(content string) (string, []string, bool) {
	open := strings.IndexByte(content, '(')
	if open < 0 {
		return strings.TrimSpace(content), nil, true
	}
	if !strings.HasSuffix(content, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(content[:open])
	if name == "" {
		return "", nil, false
	}
	inner := strings.TrimSpace(content[open+1 : len(content)-1])
	if inner == "" {
		return name, nil, true
	}
	parts := strings.Split(inner, ",")
	args := make([]string, len(parts))
	for i, part := range parts {
		args[i] = strings.TrimSpace(part)
	}
	return name, args, true
}
