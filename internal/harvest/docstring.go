package harvest

import (
	"strings"

	"github.com/mvp-joe/docharvest/internal/record"
)

// DefaultDocLimit is the length after which the first paragraph is cut.
const DefaultDocLimit = 300

// CleanDocstring reduces raw doc text to a single escaped paragraph.
//
// Lines are accumulated until the first blank line after some content, or
// until the joined text grows past limit characters (the line that crosses
// the limit is kept). The result is escaped for a double-quoted literal and
// whitespace runs collapse to single spaces.
func CleanDocstring(doc string, limit int) string {
	if limit <= 0 {
		limit = DefaultDocLimit
	}

	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}

	var kept []string
	length := 0
	for _, line := range strings.Split(doc, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			if len(kept) > 0 {
				break
			}
			continue
		}
		if len(kept) > 0 {
			length++ // joining space
		}
		kept = append(kept, stripped)
		length += len([]rune(stripped))
		if length > limit {
			break
		}
	}

	return strings.Join(strings.Fields(record.EscapeLiteral(strings.Join(kept, " "))), " ")
}
