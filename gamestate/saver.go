package gamestate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Saver persists game state.
type Saver interface {
	Save(ctx context.Context, s State) error
	// Load returns the saved state and whether one existed.
	Load(ctx context.Context) (State, bool, error)
}

// NopSaver keeps nothing.
type NopSaver struct{}

func (NopSaver) Save(context.Context, State) error { return nil }

func (NopSaver) Load(context.Context) (State, bool, error) { return State{}, false, nil }

// FileSaver keeps the state in a YAML file.
type FileSaver struct {
	Path string
}

func (f *FileSaver) Save(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("save: marshal: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (f *FileSaver) Load(ctx context.Context) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return State{}, false, err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load save: %w", err)
	}
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return State{}, false, fmt.Errorf("load save %q: %w", f.Path, err)
	}
	return s, true, nil
}
