package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecCommand(t *testing.T) {
	mr := setupLens(t, false)

	out := run(t, NewExecCommand(), "SET", "greeting", "hello world")
	assert.Contains(t, out, "OK")
	assert.NotContains(t, out, "> SET")
	got, err := mr.Get("greeting")
	assert.NoError(t, err)
	assert.Equal(t, "hello world", got)

	out = run(t, NewExecCommand(), "GET", "missing")
	assert.Contains(t, out, "(nil)")

	out = run(t, NewExecCommand(), "NOSUCHCOMMAND")
	assert.Contains(t, out, "[ERROR]")
}

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, `SET k v`, joinArgs([]string{"SET", "k", "v"}))
	assert.Equal(t, `SET k "a b"`, joinArgs([]string{"SET", "k", "a b"}))
	assert.Equal(t, `SET k ""`, joinArgs([]string{"SET", "k", ""}))
	assert.Equal(t, `SET k "say \"hi\""`, joinArgs([]string{"SET", "k", `say "hi"`}))
}

func TestConsoleCommand(t *testing.T) {
	mr := setupLens(t, false)

	script := strings.Join([]string{
		"SET lang go",
		"GET lang",
		"",
		":history",
		":prev",
		"",
		"help",
		"clear",
		":quit",
		"SET after quit",
	}, "\n")

	cmd := NewConsoleCommand()
	cmd.SetIn(strings.NewReader(script))
	out := run(t, cmd)

	assert.Contains(t, out, "> SET lang go")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "> GET lang")
	assert.Contains(t, out, "  1  GET lang\n  2  SET lang go")
	assert.Contains(t, out, "recalled: GET lang")
	assert.Equal(t, 2, strings.Count(out, "> GET lang"))
	assert.Contains(t, out, "Try these commands:")
	assert.Contains(t, out, "Console cleared")
	assert.False(t, mr.Exists("after"))
}
