package record

import "strings"

// Group identifiers name the blocks of a record in reports, emitted output
// and region configuration.
const (
	GroupBuiltins   = "builtins"
	GroupModule     = "module"
	groupTypePrefix = "type:"
)

// TypeGroup returns the group identifier for a container type.
func TypeGroup(typeName string) string {
	return groupTypePrefix + typeName
}

// ParseGroup splits a group identifier. For "type:<name>" it returns the
// type name; ok is false for unknown identifiers.
func ParseGroup(id string) (kind, typeName string, ok bool) {
	switch {
	case id == GroupBuiltins, id == GroupModule:
		return id, "", true
	case strings.HasPrefix(id, groupTypePrefix) && len(id) > len(groupTypePrefix):
		return "type", strings.TrimPrefix(id, groupTypePrefix), true
	}
	return "", "", false
}

// EscapeLiteral makes s safe inside a double-quoted string literal:
// backslashes and quotes are escaped, CR and LF become spaces.
func EscapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
