package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

const activeFile = "active_profile"

// ErrNotFound is returned for a profile that does not exist.
var ErrNotFound = errors.New("profile not found")

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Dir holds the profile files. It is created on first save.
	Dir string
	// Tokens keeps tokens outside the profile files when set.
	Tokens TokenStore
	Logger *pterm.Logger
}

// Manager reads and writes profiles.
type Manager struct {
	mu     sync.Mutex
	dir    string
	tokens TokenStore
	logger *pterm.Logger
}

// NewManager creates a profile manager.
func NewManager(config *ManagerConfig) (*Manager, error) {
	if config == nil || config.Dir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Manager{dir: config.Dir, tokens: config.Tokens, logger: logger}, nil
}

// Dir returns the profile directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".yaml")
}

// List returns every profile sorted by name. Tokens are not resolved.
func (m *Manager) List(ctx context.Context) ([]*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}
	var out []*Profile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		p, err := m.readFile(filepath.Join(m.dir, e.Name()))
		if err != nil {
			m.logger.Warn("skipping unreadable profile", m.logger.Args("file", e.Name(), "error", err.Error()))
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names returns the sorted profile names.
func (m *Manager) Names(ctx context.Context) []string {
	profiles, err := m.List(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names
}

// Exists reports whether a profile file exists.
func (m *Manager) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(m.path(name))
	return err == nil
}

// Get loads a profile and resolves its token.
func (m *Manager) Get(ctx context.Context, name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.readFile(m.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	if p.APIToken == "" && m.tokens != nil {
		token, err := m.tokens.LoadToken(ctx, name)
		switch {
		case err == nil:
			p.APIToken = token
		case !errors.Is(err, ErrTokenNotFound):
			return nil, err
		}
	}
	return p, nil
}

// Save validates and writes a profile. With a TokenStore the token is kept
// out of the file.
func (m *Manager) Save(ctx context.Context, p *Profile) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	onDisk := *p
	if m.tokens != nil {
		if p.APIToken != "" {
			if err := m.tokens.SaveToken(ctx, p.Name, p.APIToken); err != nil {
				return err
			}
		}
		onDisk.APIToken = ""
	}

	data, err := yaml.Marshal(&onDisk)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(m.path(p.Name), data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	m.logger.Debug("saved profile", m.logger.Args("profile", p.Name))
	return nil
}

// Delete removes a profile and its stored token. Deleting the active profile
// clears the active selection.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if m.tokens != nil {
		if err := m.tokens.DeleteToken(ctx, name); err != nil {
			m.logger.Warn("failed to delete stored token", m.logger.Args("profile", name, "error", err.Error()))
		}
	}
	if active, _ := m.activeLocked(); active == name {
		if err := os.Remove(filepath.Join(m.dir, activeFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to clear active profile: %w", err)
		}
	}
	return nil
}

// Active returns the active profile name, or "" when none is set.
func (m *Manager) Active() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, activeFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read active profile: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetActive marks an existing profile as active.
func (m *Manager) SetActive(name string) error {
	if !m.Exists(name) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, activeFile), []byte(name+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write active profile: %w", err)
	}
	return nil
}

// Overlay returns the settings of the named profile, or of the active one
// when name is empty. It matches config.ProfileOverlay.
func (m *Manager) Overlay(ctx context.Context) func(name string) (map[string]any, error) {
	return func(name string) (map[string]any, error) {
		explicit := name != ""
		if !explicit {
			active, err := m.Active()
			if err != nil || active == "" {
				return nil, err
			}
			name = active
		}
		p, err := m.Get(ctx, name)
		if err != nil {
			if !explicit && errors.Is(err, ErrNotFound) {
				m.logger.Warn("active profile no longer exists", m.logger.Args("profile", name))
				return nil, nil
			}
			return nil, err
		}
		return p.Settings(), nil
	}
}

func (m *Manager) readFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", filepath.Base(path), err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &p, nil
}
