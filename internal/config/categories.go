package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/platform/logger"
)

const watchDebounce = 500 * time.Millisecond

type categoriesFile struct {
	Categories []domain.Category `yaml:"categories"`
}

// CategoryTable is the id -> display-name table (spec §6), loaded from
// a YAML artifact at startup and hot-reloadable via fsnotify.
type CategoryTable struct {
	mu   sync.RWMutex
	byID map[string]domain.Category

	path    string
	log     *logger.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// LoadCategoryTable reads and parses the category table YAML file.
func LoadCategoryTable(path string, log *logger.Logger) (*CategoryTable, error) {
	t := &CategoryTable{path: path, log: log.With("component", "CategoryTable")}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *CategoryTable) reload() error {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read category table %s: %w", t.path, err)
	}
	var parsed categoriesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse category table %s: %w", t.path, err)
	}
	byID := make(map[string]domain.Category, len(parsed.Categories))
	for _, c := range parsed.Categories {
		if c.ID == "" {
			continue
		}
		byID[c.ID] = c
	}
	t.mu.Lock()
	t.byID = byID
	t.mu.Unlock()
	return nil
}

// Known reports whether categoryID is present in the table (spec §6
// input validation: "categoryIds must be a non-empty array of known
// category ids").
func (t *CategoryTable) Known(categoryID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byID[categoryID]
	return ok
}

// All returns every category id currently in the table.
func (t *CategoryTable) All() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

func (t *CategoryTable) Get(categoryID string) (domain.Category, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byID[categoryID]
	return c, ok
}

// Watch starts an fsnotify watcher on the category table's directory
// and reloads on any write/create/rename touching the file, debounced
// so a burst of writes triggers one reload.
func (t *CategoryTable) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create category table watcher: %w", err)
	}
	dir := filepath.Dir(t.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch category table dir %s: %w", dir, err)
	}
	t.watcher = w
	t.stopCh = make(chan struct{})
	target := filepath.Clean(t.path)

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-t.stopCh:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					if err := t.reload(); err != nil {
						t.log.Warn("category table reload failed", "error", err)
					} else {
						t.log.Info("category table reloaded", "path", t.path)
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				t.log.Warn("category table watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (t *CategoryTable) Stop() {
	if t.stopCh != nil {
		close(t.stopCh)
	}
	if t.watcher != nil {
		_ = t.watcher.Close()
	}
}
