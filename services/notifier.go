package services

import (
	"sync"
	"time"

	"notespace/model"

	"github.com/rs/zerolog/log"
)

// Notifier receives the user-visible messages produced by the store and the
// session manager.
type Notifier interface {
	Notify(level model.NotificationLevel, message string)
}

const defaultFeedSize = 100

// NotificationFeed buffers notifications until the UI drains them. When full
// the oldest entries are dropped.
type NotificationFeed struct {
	mu    sync.Mutex
	items []model.Notification
	max   int
	now   func() time.Time
}

func NewNotificationFeed(max int) *NotificationFeed {
	if max <= 0 {
		max = defaultFeedSize
	}
	return &NotificationFeed{max: max, now: time.Now}
}

func (f *NotificationFeed) Notify(level model.NotificationLevel, message string) {
	log.Debug().Str("notification", string(level)).Msg(message)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, model.Notification{Level: level, Message: message, At: f.now()})
	if over := len(f.items) - f.max; over > 0 {
		f.items = append([]model.Notification(nil), f.items[over:]...)
	}
}

// Drain returns everything buffered so far and empties the feed.
func (f *NotificationFeed) Drain() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.items
	f.items = nil
	if items == nil {
		return []model.Notification{}
	}
	return items
}

func (f *NotificationFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
