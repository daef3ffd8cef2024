package output

import (
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureOutput is a helper function that redirects os.Stdout to a buffer,
// executes the provided function 'f', and returns the captured output string.
func captureOutput(f func()) string {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}

	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout
	}()
	os.Stdout = w

	f()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}
	return string(out)
}

func withColor(t *testing.T, enabled bool) {
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func TestPrintFunctions(t *testing.T) {
	withColor(t, false)
	const testMsg = "Test message content"

	tests := []struct {
		name     string
		callFunc func(msg string)
		expected string
	}{
		{"Info", Info, "[INFO] " + testMsg + "\n"},
		{"Warn", Warn, "[WARN] " + testMsg + "\n"},
		{"Error", Error, "[ERROR] " + testMsg + "\n"},
		{"Success", Success, "[SUCCESS] " + testMsg + "\n"},
		{"Debug", Debug, "[DEBUG] " + testMsg + "\n"},
		{"Plain", Plain, testMsg + "\n"},
		{"Dim", Dim, testMsg + "\n"},
		{"Prompt", Prompt, "> " + testMsg + "\n"},
		{"Heading", Heading, testMsg + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured := captureOutput(func() {
				tt.callFunc(testMsg)
			})
			assert.Equal(t, tt.expected, captured)
		})
	}
}

func TestPrintFunctions_Colored(t *testing.T) {
	withColor(t, true)

	captured := captureOutput(func() { Error("boom") })
	assert.Equal(t, "\x1b[31;1m[ERROR]\x1b[0m \x1b[31mboom\x1b[0m\n", captured)

	captured = captureOutput(func() { Dim("quiet") })
	assert.Equal(t, "\x1b[90mquiet\x1b[0m\n", captured)
}

func TestPairs(t *testing.T) {
	withColor(t, false)

	captured := captureOutput(func() {
		Pairs([][2]string{{"type", "string"}, {"ttl", "No expiration"}})
	})
	assert.Equal(t, "  type  string\n  ttl   No expiration\n", captured)
}
