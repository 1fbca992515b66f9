package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

// DebounceDelay coalesces the burst of events an editor or a ConfigMap
// update produces into one reload.
const DebounceDelay = 500 * time.Millisecond

// Watch calls onChange with the reloaded configuration each time the file
// at path changes, until ctx is done. Files that fail to load are logged
// and skipped. The directory is watched so that atomic renames are seen.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	log := logging.NewLogger(logging.ComponentConfig).WithValues("path", abs)
	log.InfoEvent("Watching configuration file")

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DebounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, err := Load(abs)
			if err != nil {
				log.ErrorEvent(err, "Ignoring invalid configuration")
				continue
			}
			log.InfoEvent("Configuration reloaded")
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.ErrorEvent(err, "Watcher error")
		}
	}
}
