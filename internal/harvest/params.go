package harvest

// receiverName is the implicit leading parameter of unbound methods.
const receiverName = "self"

// RenderParameter renders one parameter descriptor:
//
//	name          no default
//	name='x'      string default
//	name=None     None default
//	name=42       any other default, via its string form
//	*name         variadic positional
//	**name        variadic keyword
func RenderParameter(p RawParam) string {
	switch p.DefaultKind {
	case DefaultStr:
		return p.Name + "='" + p.Default + "'"
	case DefaultNone:
		return p.Name + "=None"
	case DefaultOther:
		return p.Name + "=" + p.Default
	}

	switch p.Kind {
	case KindVarPositional:
		return "*" + p.Name
	case KindVarKeyword:
		return "**" + p.Name
	}
	return p.Name
}

// RenderParameters renders a signature in order, dropping a leading self.
// The result is never nil.
func RenderParameters(params []RawParam) []string {
	out := make([]string, 0, len(params))
	for i, p := range params {
		if i == 0 && p.Name == receiverName {
			continue
		}
		out = append(out, RenderParameter(p))
	}
	return out
}
