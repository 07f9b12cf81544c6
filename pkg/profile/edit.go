package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"
)

// EditOutcome is the result of an edit session.
type EditOutcome int

const (
	EditUnchanged EditOutcome = iota
	EditSaved
)

// Editor launches an external editor on a file.
type Editor struct {
	// Command overrides $EDITOR and $VISUAL. It may carry arguments.
	Command string
	// Run executes argv and blocks until it exits. Nil runs the process
	// attached to the terminal.
	Run func(ctx context.Context, argv []string) error
}

// EditorCommand returns $EDITOR, then $VISUAL, then "vi".
func EditorCommand() string {
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	return "vi"
}

// Name returns the editor command that Edit runs.
func (e *Editor) Name() string {
	return e.command()
}

func (e *Editor) command() string {
	if e != nil && e.Command != "" {
		return e.Command
	}
	return EditorCommand()
}

func runAttached(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to launch editor '%s': %w", argv[0], err)
	}
	return nil
}

// Edit opens profile name in an editor and saves the result. The profile is
// written to a private temporary file that is removed on every return path.
// A file whose modification time did not change counts as unchanged.
func (m *Manager) Edit(ctx context.Context, name string, ed *Editor) (EditOutcome, *Profile, error) {
	existing, err := m.Get(ctx, name)
	if err != nil {
		return EditUnchanged, nil, err
	}

	argv, err := shellwords.Parse(ed.command())
	if err != nil || len(argv) == 0 {
		return EditUnchanged, nil, fmt.Errorf("invalid editor command %q", ed.command())
	}

	f, err := os.CreateTemp("", "xcsh-profile-"+name+"-*.yaml")
	if err != nil {
		return EditUnchanged, nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	data, err := yaml.Marshal(existing)
	if err != nil {
		_ = f.Close()
		return EditUnchanged, nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := f.Chmod(0600); err != nil {
		_ = f.Close()
		return EditUnchanged, nil, fmt.Errorf("failed to restrict temporary file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return EditUnchanged, nil, fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		return EditUnchanged, nil, fmt.Errorf("failed to write temporary file: %w", err)
	}

	before, err := os.Stat(path)
	if err != nil {
		return EditUnchanged, nil, err
	}

	run := runAttached
	if ed != nil && ed.Run != nil {
		run = ed.Run
	}
	if err := run(ctx, append(argv, path)); err != nil {
		return EditUnchanged, nil, err
	}

	after, err := os.Stat(path)
	if err != nil {
		return EditUnchanged, nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	if after.ModTime().Equal(before.ModTime()) {
		return EditUnchanged, existing, nil
	}

	edited, err := parseEdited(path, name)
	if err != nil {
		return EditUnchanged, nil, err
	}
	if err := m.Save(ctx, edited); err != nil {
		return EditUnchanged, nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return EditSaved, edited, nil
}

func parseEdited(path, originalName string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	p.Normalize()
	if p.Name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if p.APIURL == "" {
		return nil, fmt.Errorf("API URL is required")
	}
	if p.Name != originalName {
		return nil, fmt.Errorf("cannot change profile name from '%s' to '%s'; use 'login profile create' to create a new profile instead", originalName, p.Name)
	}
	return &p, nil
}
