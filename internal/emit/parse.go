package emit

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mvp-joe/docharvest/internal/record"
)

// ErrUnparsableEntry indicates a line that starts like an entry but does not
// have the emitted shape.
var ErrUnparsableEntry = errors.New("unparsable completion entry")

const literalPattern = `"((?:[^"\\]|\\.)*)"`

var (
	functionRe = regexp.MustCompile(`^\s*\.function\(name: ` + literalPattern +
		`, parameters: \[(.*)\], documentation: ` + literalPattern + `\),?\s*$`)
	constantRe = regexp.MustCompile(`^\s*\.constant\(name: ` + literalPattern +
		`, value: ` + literalPattern + `, documentation: ` + literalPattern + `\),?\s*$`)
	literalRe = regexp.MustCompile(literalPattern)
)

// ParsedItem is an entry read back from emitted text. Fields hold the
// literal contents exactly as written, still escaped.
type ParsedItem struct {
	Kind          record.ItemKind
	Name          string
	Parameters    []string
	Value         string
	Documentation string
}

// Parse reads every .function/.constant entry from emitted text, in order.
// Lines that are not entries are ignored.
func Parse(text string) ([]ParsedItem, error) {
	var items []ParsedItem
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ".function("):
			m := functionRe.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.Wrapf(ErrUnparsableEntry, "line %d", i+1)
			}
			params := []string{}
			for _, pm := range literalRe.FindAllStringSubmatch(m[2], -1) {
				params = append(params, pm[1])
			}
			items = append(items, ParsedItem{
				Kind:          record.KindFunction,
				Name:          m[1],
				Parameters:    params,
				Documentation: m[3],
			})
		case strings.HasPrefix(trimmed, ".constant("):
			m := constantRe.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.Wrapf(ErrUnparsableEntry, "line %d", i+1)
			}
			items = append(items, ParsedItem{
				Kind:          record.KindConstant,
				Name:          m[1],
				Value:         m[2],
				Documentation: m[3],
			})
		}
	}
	return items, nil
}

// Unescape reverses the \\ and \" escapes of a literal's contents.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '"') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
