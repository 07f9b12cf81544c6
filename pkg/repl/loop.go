package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"
)

// Run reads and executes lines until exit, EOF or ctx is done. A terminal
// gets line editing, in-memory history and tab completion; other inputs are
// read line by line without a prompt. Each line finishes before the next one
// is read, and an interrupt cancels only the running line.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return sh.runTerminal(ctx, f)
	}
	return sh.runPlain(ctx, in)
}

func (sh *Shell) runPlain(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if sh.runLine(ctx, scanner.Text()) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (sh *Shell) runTerminal(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, sh.out}, Prompt(sh.session))
	t.AutoCompleteCallback = sh.autoComplete(ctx)

	for ctx.Err() == nil {
		t.SetPrompt(Prompt(sh.session))
		if w, h, err := term.GetSize(fd); err == nil {
			_ = t.SetSize(w, h)
		}

		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to configure terminal: %w", err)
		}
		line, err := t.ReadLine()
		_ = term.Restore(fd, state)
		if err != nil {
			if errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(sh.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if sh.runLine(ctx, line) {
			return nil
		}
	}
	return nil
}

// runLine executes one line under its own interrupt scope and prints the
// result. It reports whether the shell should exit.
func (sh *Shell) runLine(ctx context.Context, line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	lineCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return sh.Write(sh.Execute(lineCtx, line))
}

func (sh *Shell) autoComplete(ctx context.Context) func(line string, pos int, key rune) (string, int, bool) {
	return func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' {
			return "", 0, false
		}
		prefix := line[:pos]
		candidates := sh.Complete(ctx, prefix)
		if len(candidates) == 0 {
			return "", 0, false
		}

		partial := ""
		if !strings.HasSuffix(prefix, " ") {
			if i := strings.LastIndex(prefix, " "); i >= 0 {
				partial = prefix[i+1:]
			} else {
				partial = prefix
			}
		}

		replacement := commonPrefix(candidates)
		if len(candidates) == 1 {
			replacement += " "
		}
		if len(replacement) <= len(partial) {
			return "", 0, false
		}
		head := prefix[:len(prefix)-len(partial)] + replacement
		return head + line[pos:], len(head), true
	}
}

func commonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
