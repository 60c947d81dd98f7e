package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(WARN, &buf)

	l.Info("hidden %d", 1)
	require.Empty(t, buf.String())

	l.Warn("shown %d", 2)
	require.Contains(t, buf.String(), "[WARN] shown 2")
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(DEBUG, &buf).Named("reports").Named("draft")

	l.Debug("state=%s", "editing")
	require.Contains(t, buf.String(), "[DEBUG] [reports.draft] state=editing")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLevel("debug"))
	require.Equal(t, WARN, ParseLevel(" warning "))
	require.Equal(t, ERROR, ParseLevel("ERROR"))
	require.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestNamedLoggersFollowRootLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithWriter(INFO, &buf)
	child := root.Named("submission")

	child.Debug("hidden")
	require.Empty(t, buf.String())

	root.SetLevel(DEBUG)
	child.Debug("draft %s", "d1")
	require.Contains(t, buf.String(), "[DEBUG] [submission] draft d1")
	require.Equal(t, DEBUG, child.GetLevel())
}
