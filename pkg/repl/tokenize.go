package repl

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Tokenize splits a line into words. Single and double quotes group words;
// environment variables are not expanded.
func Tokenize(line string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false
	words, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return words, nil
}

// LineOptions are the global flags found on a line.
type LineOptions struct {
	Output  string
	NoColor bool
}

// ExtractLineOptions removes --no-color from words and reports it together
// with the --output/-o value. The output flag stays in place so commands
// that parse their own flags still see it.
func ExtractLineOptions(words []string) ([]string, LineOptions) {
	var opts LineOptions
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case w == "--no-color":
			opts.NoColor = true
			continue
		case (w == "--output" || w == "-o") && i+1 < len(words):
			opts.Output = words[i+1]
		case strings.HasPrefix(w, "--output="):
			opts.Output = strings.TrimPrefix(w, "--output=")
		case strings.HasPrefix(w, "-o="):
			opts.Output = strings.TrimPrefix(w, "-o=")
		}
		out = append(out, w)
	}
	return out, opts
}
