package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQNSegments(t *testing.T) {
	tests := []struct {
		name string
		qn   QN
		want []string
	}{
		{"empty", "", nil},
		{"single", "project", []string{"project"}},
		{"dotted", "project.pkg.Class.method", []string{"project", "pkg", "Class", "method"}},
		{"rust path", "crate::module::Type", []string{"crate", "module", "Type"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.qn.Segments())
		})
	}
}

func TestQNLastSegment(t *testing.T) {
	assert.Equal(t, "method", QN("project.pkg.Class.method").LastSegment())
	assert.Equal(t, "", QN("").LastSegment())
}

func TestQNParent(t *testing.T) {
	assert.Equal(t, QN("project.pkg.Class"), QN("project.pkg.Class.method").Parent())
	assert.Equal(t, QN(""), QN("project").Parent())
	assert.Equal(t, QN(""), QN("").Parent())
}

func TestNodeKindString(t *testing.T) {
	assert.Equal(t, "Class", NodeClass.String())
	assert.Equal(t, "Method", NodeMethod.String())
	assert.Equal(t, "Unknown", NodeUnknown.String())
	assert.Equal(t, "Unknown", NodeKind(255).String())
}

func TestEdgeKindString(t *testing.T) {
	assert.Equal(t, "CALLS", EdgeCalls.String())
	assert.Equal(t, "OVERRIDES", EdgeOverrides.String())
	assert.Equal(t, "UNKNOWN", EdgeKind(255).String())
}
