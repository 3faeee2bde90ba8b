package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       string
		kind     string
		typeName string
		ok       bool
	}{
		{id: "builtins", kind: "builtins", ok: true},
		{id: "module", kind: "module", ok: true},
		{id: TypeGroup("str"), kind: "type", typeName: "str", ok: true},
		{id: "type:", ok: false},
		{id: "methods", ok: false},
	}

	for _, tt := range tests {
		kind, typeName, ok := ParseGroup(tt.id)
		assert.Equal(t, tt.ok, ok, tt.id)
		assert.Equal(t, tt.kind, kind, tt.id)
		assert.Equal(t, tt.typeName, typeName, tt.id)
	}
}

func TestEscapeLiteral(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a\\b \"c\"  d`, EscapeLiteral("a\\b \"c\"\r\nd"))
	assert.Equal(t, "plain", EscapeLiteral("plain"))
	assert.Equal(t, "end=' '", EscapeLiteral("end='\n'"))
}
