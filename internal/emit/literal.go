package emit

import (
	"strings"

	"github.com/mvp-joe/docharvest/internal/record"
)

// sanitizeDoc makes documentation safe inside a double-quoted literal
// without double-escaping text the harvester already escaped: existing
// \\ and \" pairs are kept, a lone backslash or quote is escaped and CR/LF
// become spaces. Applying it twice gives the same result as once.
func sanitizeDoc(doc string) string {
	var b strings.Builder
	b.Grow(len(doc))
	runes := []rune(doc)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) && (runes[i+1] == '\\' || runes[i+1] == '"') {
				b.WriteRune(r)
				b.WriteRune(runes[i+1])
				i++
				continue
			}
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

func quote(s string) string {
	return `"` + s + `"`
}

// functionLiteral renders .function(name: "N", parameters: [...], documentation: "D").
func functionLiteral(name string, params []string, doc string) string {
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = quote(p)
	}
	return ".function(name: " + quote(record.EscapeLiteral(name)) +
		", parameters: [" + strings.Join(quoted, ", ") + "]" +
		", documentation: " + quote(sanitizeDoc(doc)) + ")"
}

// constantLiteral renders .constant(name: "N", value: "V", documentation: "D").
func constantLiteral(item record.CompletionItem) string {
	return ".constant(name: " + quote(record.EscapeLiteral(item.Name)) +
		", value: " + quote(record.EscapeLiteral(item.Value)) +
		", documentation: " + quote(sanitizeDoc(item.Documentation)) + ")"
}

// paramName is the bare parameter name of a rendered parameter string:
// "*args" -> "args", "end='\n'" -> "end".
func paramName(param string) string {
	if i := strings.IndexByte(param, '='); i >= 0 {
		param = param[:i]
	}
	return strings.TrimLeft(param, "*")
}
