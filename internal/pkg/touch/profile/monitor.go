package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/evtouch/evtouch/internal/pkg/logger"
)

// DetectChanges signals whenever a profile file in the given directory is
// written, so the caller can reload and reconfigure the mapper mid-stream
func DetectChanges(ctx context.Context, root string) <-chan bool {
	var change = make(chan bool)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		err = watcher.Add(root)
		if err != nil {
			log.Info(fmt.Sprintf("watching %s failed: %v", root, err), logger.Warning)
			return
		}

		for event := range watcher.Events {
			if event.Op != fsnotify.Write {
				continue
			}

			name := strings.ToLower(event.Name)
			if strings.HasSuffix(name, "yml") || strings.HasSuffix(name, "yaml") {
				log.Info(fmt.Sprintf("profile change detected: %s", event.Name), logger.Debug)
				change <- true
			}
		}
	}()

	return change
}
