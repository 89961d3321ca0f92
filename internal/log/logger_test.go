package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	l := New("test")
	SetLevel(Warning)
	l.Info("hidden")
	l.Warningf("shown %d", 42)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 42")
	assert.Contains(t, buf.String(), "[test]")

	SetLevel(Debug)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestSetSinkKeepsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLevel(Error)
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	New("test").Warning("dropped")
	assert.Empty(t, buf.String())
}
