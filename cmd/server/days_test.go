package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDaysCount(t *testing.T) {
	out, err := runRoot(t, "days", "count", "2024-01-08", "2024-01-19")
	require.NoError(t, err)
	assert.Contains(t, out, "10 business day(s)")
}

func TestDaysEnd(t *testing.T) {
	out, err := runRoot(t, "days", "end", "2024-01-06", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-08 .. 2024-01-12")
}

func TestDaysRejectsBadInput(t *testing.T) {
	_, err := runRoot(t, "days", "end", "2024-01-06", "0")
	assert.Error(t, err)

	_, err = runRoot(t, "days", "count", "2024-13-01", "2024-01-02")
	assert.Error(t, err)

	_, err = runRoot(t, "days", "count", "2024-01-01")
	assert.Error(t, err)
}
