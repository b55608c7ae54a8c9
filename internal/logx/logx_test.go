package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugfSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetDebug(false)

	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())
}

func TestDebugfEmitsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetDebug(true)
	defer SetDebug(false)

	Debugf("visible %d", 42)
	assert.Contains(t, buf.String(), "[DEBUG]")
	assert.Contains(t, buf.String(), "visible 42")
}

func TestInfofAndWarnfAlwaysEmit(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetDebug(false)

	Infof("starting %s", "pass1")
	Warnf("skip %s", "file.py")

	out := buf.String()
	assert.True(t, strings.Contains(out, "[INFO]") && strings.Contains(out, "starting pass1"))
	assert.True(t, strings.Contains(out, "[WARN]") && strings.Contains(out, "skip file.py"))
}
