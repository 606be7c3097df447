package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrExit ends Run without an error when returned by an Executor.
var ErrExit = errors.New("repl: exit")

// Executor runs one parsed line.
type Executor func(ctx context.Context, args []string) error

// Config configures a REPL.
type Config struct {
	Prompt    string
	Input     io.Reader
	Output    io.Writer
	Executor  Executor
	Completer *Completer
	History   *History

	// OnLine is called for every non-empty line before it is executed.
	OnLine func()
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	prompt    string
	input     io.Reader
	output    io.Writer
	exec      Executor
	completer *Completer
	history   *History
	onLine    func()
}

// New creates a new REPL instance.
func New(cfg Config) *REPL {
	r := &REPL{
		prompt:    cfg.Prompt,
		input:     cfg.Input,
		output:    cfg.Output,
		exec:      cfg.Executor,
		completer: cfg.Completer,
		history:   cfg.History,
		onLine:    cfg.OnLine,
	}
	if r.prompt == "" {
		r.prompt = "x2conn> "
	}
	if r.completer == nil {
		r.completer = NewCompleter(nil)
	}
	if r.history == nil {
		r.history = NewHistory("")
	}
	return r
}

// Run reads lines until EOF, exit, quit, or ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)
		if r.onLine != nil {
			r.onLine()
		}

		if err := r.execute(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := Split(line)
	if err != nil {
		return err
	}

	switch args[0] {
	case "exit", "quit":
		return ErrExit
	case "help":
		prefix := strings.Join(args[1:], " ")
		for _, c := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, c)
		}
		return nil
	}

	if r.exec == nil {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return r.exec(ctx, args)
}

// Split breaks a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote, inWord = ch, true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
