package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/reconcile"
	"github.com/skelly-dev/marktree/internal/state"
)

const (
	FileName          = ".marktree.toml"
	DefaultDebounceMS = 300
)

// Config is the per-workspace configuration read from .marktree.toml.
type Config struct {
	Marker       string `toml:"marker"`
	GeneratedTag string `toml:"generated_tag"`
	StateDir     string `toml:"state_dir"`
	Codec        string `toml:"codec"`
	PathIdentity string `toml:"path_identity"`
	// Editor is a command template such as "code --goto {file}:{line}".
	Editor string `toml:"editor,omitempty"`
	Watch  Watch  `toml:"watch"`
}

type Watch struct {
	DebounceMS int      `toml:"debounce_ms"`
	Include    []string `toml:"include,omitempty"`
	Exclude    []string `toml:"exclude,omitempty"`
}

func Default() Config {
	return Config{
		Marker:       reconcile.DefaultMarker,
		GeneratedTag: reconcile.DefaultGeneratedTag,
		StateDir:     state.DefaultDir,
		Codec:        state.JSONCodec{}.Name(),
		PathIdentity: annotation.IdentityExact.String(),
		Watch:        Watch{DebounceMS: DefaultDebounceMS},
	}
}

// Load reads FileName from root. A missing file yields the defaults; keys the
// file leaves out keep their default values.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("failed to parse %s: %s", FileName, strict.String())
		}
		return Config{}, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of marktree cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Marker) == "" {
		return errors.New("marker cannot be empty")
	}
	if strings.TrimSpace(c.GeneratedTag) == "" {
		return errors.New("generated_tag cannot be empty")
	}
	if strings.Contains(strings.ToLower(c.Marker), strings.ToLower(c.GeneratedTag)) {
		return fmt.Errorf("marker %q cannot contain generated_tag %q", c.Marker, c.GeneratedTag)
	}
	if strings.TrimSpace(c.StateDir) == "" {
		return errors.New("state_dir cannot be empty")
	}
	if _, err := state.ParseCodec(c.Codec); err != nil {
		return err
	}
	if _, err := annotation.ParsePathIdentity(c.PathIdentity); err != nil {
		return err
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	for _, pattern := range append(append([]string(nil), c.Watch.Include...), c.Watch.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid watch pattern %q", pattern)
		}
	}
	return nil
}

// StatePath resolves the state directory against root.
func (c Config) StatePath(root string) string {
	if filepath.IsAbs(c.StateDir) {
		return c.StateDir
	}
	return filepath.Join(root, c.StateDir)
}

func (c Config) StateCodec() (state.Codec, error) {
	return state.ParseCodec(c.Codec)
}

func (c Config) Identity() (annotation.PathIdentity, error) {
	return annotation.ParsePathIdentity(c.PathIdentity)
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// Marshal renders c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
