package record

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// TypeMethods maps container-type names to their public methods, keeping the
// order in which types were harvested. Go maps would sort the keys on output;
// the record has to keep the declared type order so diffs stay readable.
type TypeMethods struct {
	m *orderedmap.OrderedMap[string, []CompletionItem]
}

// NewTypeMethods returns an empty ordered mapping.
func NewTypeMethods() *TypeMethods {
	return &TypeMethods{m: orderedmap.New[string, []CompletionItem]()}
}

func (t *TypeMethods) init() {
	if t.m == nil {
		t.m = orderedmap.New[string, []CompletionItem]()
	}
}

// Set stores the methods for a type. Re-setting an existing type keeps its
// original position.
func (t *TypeMethods) Set(typeName string, items []CompletionItem) {
	t.init()
	if items == nil {
		items = []CompletionItem{}
	}
	t.m.Set(typeName, items)
}

// Get returns the methods harvested for a type.
func (t *TypeMethods) Get(typeName string) ([]CompletionItem, bool) {
	if t == nil || t.m == nil {
		return nil, false
	}
	return t.m.Get(typeName)
}

// Len returns the number of types.
func (t *TypeMethods) Len() int {
	if t == nil || t.m == nil {
		return 0
	}
	return t.m.Len()
}

// Names returns the type names in insertion order.
func (t *TypeMethods) Names() []string {
	names := make([]string, 0, t.Len())
	t.Each(func(name string, _ []CompletionItem) {
		names = append(names, name)
	})
	return names
}

// Each visits every type in insertion order.
func (t *TypeMethods) Each(fn func(typeName string, items []CompletionItem)) {
	if t == nil || t.m == nil {
		return
	}
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON writes the mapping with keys in insertion order. The ordered
// map's own MarshalJSON escapes <, > and & in documentation text, so values
// go through marshalNoEscape instead.
func (t *TypeMethods) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	t.Each(func(name string, items []CompletionItem) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var key, value []byte
		if key, err = marshalNoEscape(name); err != nil {
			return
		}
		if value, err = marshalNoEscape(items); err != nil {
			return
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the mapping in document order.
func (t *TypeMethods) UnmarshalJSON(data []byte) error {
	t.m = orderedmap.New[string, []CompletionItem]()
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	if err := t.m.UnmarshalJSON(data); err != nil {
		return errors.Wrap(err, "failed to decode type_methods")
	}
	t.fillEmpty()
	return nil
}

// MarshalYAML writes the mapping with keys in insertion order.
func (t *TypeMethods) MarshalYAML() (any, error) {
	t.init()
	return t.m.MarshalYAML()
}

// UnmarshalYAML reads a mapping node in document order.
func (t *TypeMethods) UnmarshalYAML(node *yaml.Node) error {
	t.m = orderedmap.New[string, []CompletionItem]()
	if err := t.m.UnmarshalYAML(node); err != nil {
		return errors.Wrap(err, "failed to decode type_methods")
	}
	t.fillEmpty()
	return nil
}

// fillEmpty turns null method lists into empty ones so they encode as [].
func (t *TypeMethods) fillEmpty() {
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = []CompletionItem{}
		}
	}
}

// marshalNoEscape marshals v without turning <, > and & into \u escapes, which
// would make documentation text harder to review in diffs.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
