package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader loads declarative policy documents from YAML files and directories,
// and can watch those paths for changes.
type Loader struct {
	logger   zerolog.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	cache   map[string][]Policy
	watcher *fsnotify.Watcher
}

// NewLoader creates a policy loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger:   logger.With().Str("component", "policy-loader").Logger(),
		validate: validator.New(),
		cache:    make(map[string][]Policy),
	}
}

// LoadFromPaths loads policies from a list of file or directory paths.
func (l *Loader) LoadFromPaths(ctx context.Context, paths []string) ([]Policy, error) {
	var all []Policy

	for _, path := range paths {
		policies, err := l.loadFromPath(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load from path %s: %w", path, err)
		}
		all = append(all, policies...)
	}

	l.logger.Info().
		Int("total", len(all)).
		Int("sources", len(paths)).
		Msg("Policies loaded")

	return all, nil
}

// loadFromPath loads policies from a single file or directory path.
func (l *Loader) loadFromPath(ctx context.Context, path string) ([]Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return l.loadFromDirectory(ctx, path)
	}
	return l.loadFromFile(path)
}

// loadFromDirectory loads all .yaml/.yml policy files from a directory
// recursively. Unparseable files are logged and skipped so one bad document
// does not take out the whole directory.
func (l *Loader) loadFromDirectory(_ context.Context, dirPath string) ([]Policy, error) {
	var all []Policy

	err := filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		policies, err := l.loadFromFile(path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", path).Msg("Failed to load policy file")
			return nil
		}
		all = append(all, policies...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return all, nil
}

// loadFromFile parses and validates one policy document.
func (l *Loader) loadFromFile(path string) ([]Policy, error) {
	l.mu.RLock()
	if cached, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	for i := range file.Policies {
		p := &file.Policies[i]
		if err := l.validate.Struct(p); err != nil {
			return nil, fmt.Errorf("invalid policy in %s: %w", path, err)
		}
		if p.Filter == "" && p.Rego == "" {
			return nil, fmt.Errorf("policy %s must declare a filter or a rego body", p.Name)
		}
		p.Source = path
	}

	l.mu.Lock()
	l.cache[path] = file.Policies
	l.mu.Unlock()

	return file.Policies, nil
}

// Invalidate drops a path from the cache so the next load re-reads it.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}

// Watch watches the given paths for policy file changes and invokes onChange
// with the changed path. It blocks until the context is cancelled.
func (l *Loader) Watch(ctx context.Context, paths []string, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	l.mu.Lock()
	l.watcher = watcher
	l.mu.Unlock()

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	l.logger.Info().Strs("paths", paths).Msg("Watching policy paths")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}
			l.Invalidate(event.Name)
			l.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Policy file changed")
			if onChange != nil {
				onChange(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn().Err(err).Msg("Policy watcher error")
		}
	}
}
