/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package reload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// Filter selects paths whose changes are reported.
type Filter func(path string) bool

// Handler receives the distinct paths changed within one debounce window, sorted.
type Handler func(paths []string) error

// Watcher watches directory trees and reports changes after a quiet period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	delay    time.Duration
	lock     sync.Mutex
	filters  []Filter
	handlers []Handler
	pending  map[string]struct{}
	timer    *time.Timer
}

func NewWatcher(delay time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		watcher: watcher,
		delay:   delay,
		pending: map[string]struct{}{},
	}, nil
}

func (w *Watcher) AddFilter(filter Filter) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.filters = append(w.filters, filter)
}

func (w *Watcher) AddHandler(handler Handler) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddRecursive watches root and all directories below it. Hidden directories are skipped.
func (w *Watcher) AddRecursive(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch [%s]", path)
		}
		return nil
	})
}

// Run processes events until ctx is done. Directories created while running are watched as well.
func (w *Watcher) Run(ctx context.Context) {
	log := pfxlog.Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.AddRecursive(event.Name); err != nil {
						log.WithError(err).Warn("could not watch new directory")
					}
				}
			}
			w.record(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("file watcher error")
		}
	}
}

func (w *Watcher) record(path string) {
	w.lock.Lock()
	defer w.lock.Unlock()

	for _, filter := range w.filters {
		if !filter(path) {
			return
		}
	}

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.lock.Lock()
	if len(w.pending) == 0 {
		w.lock.Unlock()
		return
	}
	var paths []string
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = map[string]struct{}{}
	handlers := append([]Handler(nil), w.handlers...)
	w.lock.Unlock()

	sort.Strings(paths)
	pfxlog.Logger().Debugf("detected changes in %d files", len(paths))
	for _, handler := range handlers {
		if err := handler(paths); err != nil {
			pfxlog.Logger().WithError(err).Error("reload handler failed")
		}
	}
}

func (w *Watcher) Close() error {
	w.lock.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.lock.Unlock()
	return w.watcher.Close()
}

// IgnoreEditorFiles skips temporary files written by common editors.
func IgnoreEditorFiles(path string) bool {
	base := filepath.Base(path)
	return !(strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp"))
}
