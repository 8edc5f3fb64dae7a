package i18n

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDelay debounces bursts of editor writes into one reload.
const reloadDelay = 500 * time.Millisecond

// Watch reloads c from dir whenever a dictionary file changes, until ctx is
// done. A dictionary that fails to parse leaves the previous one in place.
func Watch(ctx context.Context, dir string, c *Catalog) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	reload := make(chan struct{}, 1)
	go scheduleReload(ctx, reload, func() { reloadDir(dir, c) })
	go handleWatcher(ctx, watcher, reload)
	return nil
}

func reloadDir(dir string, c *Catalog) {
	dicts, err := readDictionaries(os.DirFS(dir))
	if err != nil {
		log.Err(err).Str("dir", dir).Msg("i18n reload failed, keeping previous dictionaries")
		return
	}
	c.Replace(dicts)
	log.Info().Str("dir", dir).Msg("i18n dictionaries reloaded")
}

func handleWatcher(ctx context.Context, watcher *fsnotify.Watcher, reload chan<- struct{}) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				select {
				case reload <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Err(err).Msg("i18n watcher error")
		}
	}
}

func scheduleReload(ctx context.Context, reload <-chan struct{}, callback func()) {
	var timer *time.Timer
	var c <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-reload:
			if timer != nil {
				timer.Reset(reloadDelay)
			} else {
				timer = time.NewTimer(reloadDelay)
				c = timer.C
			}
		case <-c:
			c = nil
			timer = nil
			callback()
		}
	}
}
