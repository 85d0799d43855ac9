package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps profiles on disk under root/provider/model/file.json.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Root() string { return s.root }

// List returns every valid profile path, sorted. A missing root is empty.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	out := []string{}
	providers, err := s.dirs(s.root)
	if err != nil {
		return nil, err
	}
	for _, provider := range providers {
		models, err := s.dirs(filepath.Join(s.root, provider))
		if err != nil {
			return nil, err
		}
		for _, model := range models {
			entries, err := os.ReadDir(filepath.Join(s.root, provider, model))
			if err != nil {
				return nil, fmt.Errorf("list %s/%s: %w", provider, model, err)
			}
			for _, e := range entries {
				name := e.Name()
				if !e.Type().IsRegular() || !SafeSegment(name) || !strings.HasSuffix(name, ".json") {
					continue
				}
				out = append(out, provider+"/"+model+"/"+name)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// dirs returns the safe subdirectory names of dir.
func (s *FileStore) dirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && SafeSegment(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	p, err := ParsePath(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

func (s *FileStore) Save(_ context.Context, name string, raw []byte) error {
	p, err := ParsePath(name)
	if err != nil {
		return err
	}
	pretty, err := Pretty(raw)
	if err != nil {
		return err
	}
	target := s.abs(p)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, pretty, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (s *FileStore) abs(p Path) string {
	return filepath.Join(s.root, p.Provider, p.Model, p.File)
}
