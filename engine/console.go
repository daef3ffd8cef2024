package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/himakhaitan/redislens/value"
	"go.uber.org/zap"
)

const DefaultHistoryLimit = 50

type RecordKind string

const (
	KindCommand RecordKind = "command"
	KindResult  RecordKind = "result"
	KindError   RecordKind = "error"
	KindInfo    RecordKind = "info"
	KindSystem  RecordKind = "system"
)

// Record is one immutable transcript line.
type Record struct {
	Text string     `json:"text"`
	Kind RecordKind `json:"kind"`
}

// Command is parsed console input.
type Command struct {
	Name string
	Args []string
}

var helpLines = []string{
	"Try these commands:",
	"GET [key] - Get the value of a key",
	"SET [key] [value] - Set the value of a key",
	"KEYS * - List all keys",
	"HGETALL [hash-key] - Get all fields and values in a hash",
	"LRANGE [list-key] 0 -1 - Get all elements in a list",
	"clear - Clear the console",
}

// Parse splits text on whitespace into a command name and arguments.
// Single or double quotes group words, and a backslash escapes the next
// character inside double quotes. It returns false for blank input.
func Parse(text string) (Command, bool) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Command{}, false
	}
	return Command{Name: tokens[0], Args: tokens[1:]}, true
}

func tokenize(text string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inToken bool
		quote   rune
		escaped bool
	)
	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote == '"' && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// Console is the command console: a transcript, a bounded history and the
// input buffer with its history cursor.
type Console struct {
	conn   *Connection
	logger *zap.Logger
	limit  int

	mu         sync.Mutex
	transcript []Record
	// history is most recent first.
	history []string
	// cursor is the history index being shown, -1 when not navigating.
	cursor int
	input  string
}

func NewConsole(conn *Connection, logger *zap.Logger, historyLimit int) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Console{
		conn:   conn,
		logger: logger,
		limit:  historyLimit,
		cursor: -1,
	}
}

// Execute runs text and returns the records it appended. Blank input does
// nothing. clear and help are handled locally and never sent.
func (c *Console) Execute(ctx context.Context, text string) []Record {
	cmd, ok := Parse(text)
	if !ok {
		return nil
	}
	line := strings.TrimSpace(text)

	c.mu.Lock()
	c.pushHistory(line)
	c.cursor = -1
	c.input = ""

	switch strings.ToLower(cmd.Name) {
	case "clear":
		c.transcript = nil
		c.mu.Unlock()
		return nil
	case "help":
		added := []Record{{Text: line, Kind: KindCommand}}
		for _, l := range helpLines {
			added = append(added, Record{Text: l, Kind: KindInfo})
		}
		c.transcript = append(c.transcript, added...)
		c.mu.Unlock()
		return added
	}

	cmdRec := Record{Text: line, Kind: KindCommand}
	c.transcript = append(c.transcript, cmdRec)
	c.mu.Unlock()

	out := c.run(ctx, cmd)

	c.mu.Lock()
	c.transcript = append(c.transcript, out)
	c.mu.Unlock()

	return []Record{cmdRec, out}
}

func (c *Console) run(ctx context.Context, cmd Command) Record {
	params, err := c.conn.Params()
	if err != nil {
		return Record{Text: "Not connected. Connect to a server first.", Kind: KindError}
	}
	res, err := c.conn.Gateway().Execute(ctx, params, cmd.Name, cmd.Args)
	if err != nil {
		c.logger.Debug("Console command failed", zap.String("command", cmd.Name), zap.Error(err))
		return Record{Text: err.Error(), Kind: KindError}
	}
	return Record{Text: value.FormatReply(value.ToReply(res)), Kind: KindResult}
}

func (c *Console) pushHistory(line string) {
	if len(c.history) > 0 && c.history[0] == line {
		return
	}
	c.history = append([]string{line}, c.history...)
	if len(c.history) > c.limit {
		c.history = c.history[:c.limit]
	}
}

// System appends a system record, e.g. a connection notice.
func (c *Console) System(text string) Record {
	rec := Record{Text: text, Kind: KindSystem}
	c.mu.Lock()
	c.transcript = append(c.transcript, rec)
	c.mu.Unlock()
	return rec
}

// Previous moves to the next older history entry, stopping at the oldest,
// and returns the input buffer.
func (c *Console) Previous() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return c.input
	}
	if c.cursor < len(c.history)-1 {
		c.cursor++
	}
	c.input = c.history[c.cursor]
	return c.input
}

// Next moves toward the newest entry; past it the buffer is emptied.
func (c *Console) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.cursor < 0:
	case c.cursor == 0:
		c.cursor = -1
		c.input = ""
	default:
		c.cursor--
		c.input = c.history[c.cursor]
	}
	return c.input
}

func (c *Console) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the buffer as if typed; it does not move the cursor.
func (c *Console) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

func (c *Console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.history...)
}

func (c *Console) Transcript() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record{}, c.transcript...)
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = nil
}
