package emit

// OverrideKey identifies one parameter of one item in one group.
type OverrideKey struct {
	Group string // "builtins", "type:<name>" or "module"
	Item  string // item name as stored in the record
	Param string // bare parameter name
}

// Overrides maps a parameter to the exact source text emitted for it,
// bypassing automatic escaping. Matching is by identity only; the text of
// other items is never searched or rewritten.
type Overrides map[OverrideKey]string

// DefaultOverrides returns the built-in table. print's end default is a
// newline, which automatic escaping would collapse to a space; it is emitted
// as an escaped newline instead.
func DefaultOverrides() Overrides {
	return Overrides{
		{Group: "builtins", Item: "print", Param: "end"}: `end='\\n'`,
	}
}

func (o Overrides) lookup(group, item, param string) (string, bool) {
	if o == nil {
		return "", false
	}
	text, ok := o[OverrideKey{Group: group, Item: item, Param: paramName(param)}]
	return text, ok
}
