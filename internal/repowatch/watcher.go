package repowatch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatcher mirrors the teacher's own watcher.go: fsnotify does not
// recurse, so refs/heads, refs/tags, and refs/remotes are walked and
// watched explicitly to catch branch/tag creation and deletion (which
// fsnotify only sees as an event on the containing directory). The index
// and HEAD files are watched directly since they live one level above.
func (s *Server) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	metaDir := s.handle.MetaDir
	if err := watcher.Add(metaDir); err != nil {
		return err
	}
	for _, f := range []string{"index", "HEAD"} {
		_ = watcher.Add(filepath.Join(metaDir, f))
	}
	for _, sub := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		walkAndWatch(watcher, filepath.Join(metaDir, sub), s.logger)
	}

	s.wg.Add(1)
	go s.watchLoop(watcher)

	s.logger.Info("watching repository for changes", "metaDir", metaDir)
	return nil
}

func walkAndWatch(watcher *fsnotify.Watcher, dir string, logger interface {
	Warn(msg string, args ...any)
}) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	_ = filepath.Walk(dir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if fi.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				logger.Warn("failed to watch directory", "dir", path, "err", addErr)
			}
		}
		return nil
	})
}

func (s *Server) watchLoop(watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer func() {
		if err := watcher.Close(); err != nil {
			s.logger.Error("closing watcher", "err", err)
		}
	}()

	var debounceTimer *time.Timer

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			s.logger.Debug("change detected", "file", filepath.Base(event.Name), "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.pollInterval, func() {
				if s.ctx.Err() != nil {
					return
				}
				s.broadcastStatus()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", "err", err)
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	base := filepath.Base(event.Name)
	return base == "config.toml" || filepath.Ext(base) == ".tmp"
}

func (s *Server) broadcastStatus() {
	msg, err := s.currentStatus()
	if err != nil {
		s.logger.Error("recomputing status", "err", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshaling status", "err", err)
		return
	}
	s.sendToAllClients(data)
}
