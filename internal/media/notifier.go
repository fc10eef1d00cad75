package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fruitsalade/filenav/internal/logging"
)

// Counter reports the current number of storage roots. *storage.Registry
// implements it.
type Counter interface {
	Count() int
}

// Config configures a Notifier.
type Config struct {
	// MediaDirs are the parent directories volumes get mounted under.
	MediaDirs []string
	// PollInterval is how often the root count is compared; 0 means 5s and a
	// negative value disables polling.
	PollInterval time.Duration
	// Debounce coalesces a burst of directory events; 0 means 250ms.
	Debounce time.Duration
}

// Notifier publishes an Event whenever a volume appears or disappears. It
// watches the media directories with fsnotify and also polls the root count,
// which catches mounts that produce no directory events.
type Notifier struct {
	*Broadcaster

	roots Counter
	cfg   Config

	mu        sync.Mutex
	lastCount int
	// burst is set while a debounced directory event is waiting to fire;
	// polling stays silent meanwhile.
	burst bool
	// polledAt is when polling last published; a directory burst landing
	// at the count it already reported is the same mount.
	polledAt time.Time

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNotifier creates a notifier over roots.
func NewNotifier(roots Counter, cfg Config) *Notifier {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	return &Notifier{
		Broadcaster: NewBroadcaster(),
		roots:       roots,
		cfg:         cfg,
		done:        make(chan struct{}),
	}
}

// Start begins watching. Media directories that cannot be watched are
// skipped with a warning.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	n.lastCount = n.roots.Count()
	n.mu.Unlock()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	watched := 0
	for _, dir := range n.cfg.MediaDirs {
		if err := w.Add(dir); err != nil {
			logging.Warn("cannot watch media directory", logging.Path(dir), logging.Err(err))
			continue
		}
		watched++
	}
	n.watcher = w

	n.wg.Add(1)
	go n.watchLoop(ctx)
	if n.cfg.PollInterval > 0 {
		n.wg.Add(1)
		go n.pollLoop(ctx)
	}

	logging.Info("media notifier started",
		logging.Int("watched_dirs", watched),
		logging.Duration("poll_interval", n.cfg.PollInterval))
	return nil
}

// Stop stops watching and waits for the loops to exit. Safe to call more
// than once.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)
		n.wg.Wait()
		if n.watcher != nil {
			n.watcher.Close()
		}
	})
}

func (n *Notifier) watchLoop(ctx context.Context) {
	defer n.wg.Done()

	var (
		pending *Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			typ, relevant := eventType(ev)
			if !relevant {
				continue
			}
			logging.Debug("media directory event", logging.Path(ev.Name), logging.String("op", ev.Op.String()))
			if pending == nil {
				n.setBurst(true)
				pending = &Event{Type: typ, Path: ev.Name}
			} else {
				if pending.Type != typ {
					pending.Type = EventChanged
				}
				pending.Path = ev.Name
			}
			if timer == nil {
				timer = time.NewTimer(n.cfg.Debounce)
			} else {
				timer.Reset(n.cfg.Debounce)
			}
			fire = timer.C
		case <-fire:
			n.publish(*pending)
			n.setBurst(false)
			pending = nil
			fire = nil
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("media watcher error", logging.Err(err))
		case <-n.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) pollLoop(ctx context.Context) {
	defer n.wg.Done()
	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.poll()
		case <-n.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) setBurst(on bool) {
	n.mu.Lock()
	n.burst = on
	n.mu.Unlock()
}

func (n *Notifier) poll() {
	count := n.roots.Count()
	n.mu.Lock()
	if n.burst {
		n.mu.Unlock()
		return
	}
	last := n.lastCount
	n.lastCount = count
	if count != last {
		n.polledAt = time.Now()
	}
	n.mu.Unlock()

	switch {
	case count > last:
		n.Publish(Event{Type: EventMounted, Count: count})
	case count < last:
		n.Publish(Event{Type: EventUnmounted, Count: count})
	}
}

// publish reports a debounced directory burst, unless polling already
// reported the same count within the last poll interval plus debounce.
func (n *Notifier) publish(ev Event) {
	ev.Count = n.roots.Count()
	n.mu.Lock()
	seen := ev.Count == n.lastCount && !n.polledAt.IsZero() &&
		time.Since(n.polledAt) < n.cfg.PollInterval+n.cfg.Debounce
	n.lastCount = ev.Count
	n.polledAt = time.Time{}
	n.mu.Unlock()

	if seen {
		logging.Debug("media burst already reported by polling",
			logging.Path(ev.Path), logging.Int("count", ev.Count))
		return
	}
	n.Publish(ev)
}

func eventType(ev fsnotify.Event) (string, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return EventMounted, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return EventUnmounted, true
	default:
		return "", false
	}
}
