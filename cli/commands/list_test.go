package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListCommand(t *testing.T) {
	mr := setupLens(t, false)
	for _, k := range []string{"user:1", "user:2", "user:3", "order:1"} {
		mr.Set(k, "v")
	}

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "AllKeys",
			args:     nil,
			contains: []string{"order:1", "user:3", "Page 1 of 1 (4 keys match '*')"},
		},
		{
			name:     "PatternArgument",
			args:     []string{"user:*"},
			contains: []string{"user:1", "user:2", "user:3", "(3 keys match 'user:*')"},
			excludes: []string{"order:1"},
		},
		{
			name:     "PatternFlag",
			args:     []string{"-p", "order:*"},
			contains: []string{"order:1", "Page 1 of 1"},
		},
		{
			name:     "SecondPage",
			args:     []string{"user:*", "--per-page", "2", "--page", "2"},
			contains: []string{"   3  user:3", "Page 2 of 2 (3 keys match 'user:*')"},
			excludes: []string{"user:1"},
		},
		{
			name:     "NoMatches",
			args:     []string{"nothing:*"},
			contains: []string{"[INFO] No keys match 'nothing:*'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, NewListCommand(), tt.args...)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestListCommand_Direct(t *testing.T) {
	mr := setupLens(t, true)
	mr.Set("direct:key", "v")

	out := run(t, NewListCommand())
	assert.Contains(t, out, "direct:key")
	assert.Contains(t, out, "(1 keys match '*')")
}

func TestListCommand_ServerDown(t *testing.T) {
	mr := setupLens(t, true)
	mr.Close()

	out := run(t, NewListCommand())
	assert.Contains(t, out, "[ERROR]")
}
