// Package preset loads named plot selections from YAML files.
package preset

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// Preset is a saved plot form. Fields mirror the trace form.
type Preset struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description,omitempty"`
	Type        string            `yaml:"type" json:"type"`
	Filter      string            `yaml:"filter" json:"filter"`
	FCoeff      string            `yaml:"fcoeff" json:"fCoeff"`
	Group       []string          `yaml:"group" json:"group"`
	DataX       []string          `yaml:"datax" json:"datax"`
	XAxis       string            `yaml:"xaxis" json:"xaxis"`
	YAxis       string            `yaml:"yaxis" json:"yaxis"`
	Match       map[string]string `yaml:"match" json:"match,omitempty"`
	Fingerprint string            `yaml:"-" json:"fingerprint"` // SHA-256 of the raw YAML file
}

// Repository serves presets by name.
type Repository interface {
	Get(ctx context.Context, name string) (*Preset, error)
	List(ctx context.Context) ([]Preset, error)
}

// FileSystemRepository loads one preset per *.yaml file in a directory,
// once, at construction.
type FileSystemRepository struct {
	dir     string
	presets map[string]Preset
}

// NewFileSystemRepository eagerly loads every preset in dir. A missing
// directory yields an empty repository.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:     dir,
		presets: make(map[string]Preset),
	}
	if dir == "" {
		return repo, nil
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("preset dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("preset path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading preset dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading preset file %s: %w", path, err)
		}

		var p Preset
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parsing preset file %s: %w", path, err)
		}
		if p.Name == "" {
			continue // comment-only file
		}
		if len(p.DataX) == 0 {
			return fmt.Errorf("preset %q: datax must name at least one value field", p.Name)
		}
		if p.XAxis == "" {
			return fmt.Errorf("preset %q: xaxis is required", p.Name)
		}
		if _, exists := r.presets[p.Name]; exists {
			return fmt.Errorf("preset %q: duplicate preset name (check multiple YAML files)", p.Name)
		}

		p.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		r.presets[p.Name] = p
	}
	return nil
}

// Get returns the preset with the given name.
func (r *FileSystemRepository) Get(_ context.Context, name string) (*Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &p, nil
}

// List returns all presets sorted by name.
func (r *FileSystemRepository) List(_ context.Context) ([]Preset, error) {
	out := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Len returns the number of loaded presets.
func (r *FileSystemRepository) Len() int {
	return len(r.presets)
}
