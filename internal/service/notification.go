package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/signal"
)

// NotificationService holds the list of transient messages shown to the user.
//
// AUTO-DISMISS:
// Each notification with a positive Duration gets a time.AfterFunc timer that
// removes it. AfterFunc does not park a goroutine while waiting; the callback
// runs on its own goroutine only when the timer fires. Close stops every
// pending timer so nothing fires after shutdown.
type NotificationService struct {
	mu     sync.Mutex
	items  *signal.Signal[[]model.Notification]
	timers map[string]*time.Timer
	closed bool
	logger *slog.Logger
}

func NewNotificationService(logger *slog.Logger) *NotificationService {
	return &NotificationService{
		items:  signal.New([]model.Notification{}),
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Notifications is the live list, oldest first.
func (s *NotificationService) Notifications() signal.Readable[[]model.Notification] {
	return s.items
}

// Show appends n and returns its id. n.ID is overwritten with a fresh xid.
// A Duration <= 0 keeps the notification until Dismiss or Clear.
func (s *NotificationService) Show(n model.Notification) string {
	n.ID = xid.New().String()

	s.items.Update(func(list []model.Notification) []model.Notification {
		out := make([]model.Notification, 0, len(list)+1)
		out = append(out, list...)
		return append(out, n)
	})

	s.logger.Debug("notification shown",
		slog.String("id", n.ID),
		slog.String("type", string(n.Type)),
		slog.String("message", n.Message),
	)

	if n.Duration > 0 {
		s.mu.Lock()
		if !s.closed {
			id := n.ID
			s.timers[id] = time.AfterFunc(n.Duration, func() { s.Dismiss(id) })
		}
		s.mu.Unlock()
	}

	return n.ID
}

func (s *NotificationService) Success(message string, duration ...time.Duration) string {
	return s.show(model.NotificationSuccess, message, duration)
}

func (s *NotificationService) Error(message string, duration ...time.Duration) string {
	return s.show(model.NotificationError, message, duration)
}

func (s *NotificationService) Info(message string, duration ...time.Duration) string {
	return s.show(model.NotificationInfo, message, duration)
}

func (s *NotificationService) Warning(message string, duration ...time.Duration) string {
	return s.show(model.NotificationWarning, message, duration)
}

// show applies the default duration when the caller gave none.
func (s *NotificationService) show(t model.NotificationType, message string, duration []time.Duration) string {
	d := model.DefaultNotificationDuration
	if len(duration) > 0 {
		d = duration[0]
	}
	return s.Show(model.Notification{Type: t, Message: message, Duration: d})
}

// Dismiss removes one notification. Unknown ids are ignored.
func (s *NotificationService) Dismiss(id string) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.items.Update(func(list []model.Notification) []model.Notification {
		out := make([]model.Notification, 0, len(list))
		for _, n := range list {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	})
}

// Clear removes every notification and cancels their timers.
func (s *NotificationService) Clear() {
	s.stopTimers()
	s.items.Set([]model.Notification{})
}

// Close cancels pending timers. Notifications shown afterwards stay until
// dismissed.
func (s *NotificationService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stopTimers()
}

func (s *NotificationService) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
