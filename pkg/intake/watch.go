package intake

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"e261-voice-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// WatchScript reloads the script at path into holder whenever the file
// changes, until ctx is done. A file that fails to parse leaves the current
// script in place. The directory is watched so editors that replace the
// file on save are handled.
func WatchScript(ctx context.Context, path string, holder *ScriptHolder, log logger.ILogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		s, err := LoadScript(abs)
		if err != nil {
			log.Error("INTAKE", "Script reload failed, keeping previous script", map[string]interface{}{
				"path":  abs,
				"error": err.Error(),
			})
			return
		}
		holder.Store(s)
		log.Info("INTAKE", "Script reloaded", map[string]interface{}{"path": abs, "required": s.Required})
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, reload)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("INTAKE", "Script watcher error", map[string]interface{}{"error": err.Error()})
			}
		}
	}()
	return nil
}
