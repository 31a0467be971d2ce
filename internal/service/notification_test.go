package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sakif/portfolio/internal/model"
)

func TestNotification_ShowAssignsIDAndDefaults(t *testing.T) {
	s := NewNotificationService(testLogger())
	defer s.Close()

	id := s.Success("Saved")

	list := s.Notifications().Get()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, model.NotificationSuccess, list[0].Type)
	assert.Equal(t, 5*time.Second, list[0].Duration)
}

func TestNotification_IDsAreUnique(t *testing.T) {
	s := NewNotificationService(testLogger())
	defer s.Close()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := s.Info("hello", 0)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestNotification_AutoDismiss(t *testing.T) {
	s := NewNotificationService(testLogger())
	defer s.Close()

	s.Error("short-lived", 10*time.Millisecond)
	s.Warning("sticky", 0)

	assert.Eventually(t, func() bool {
		return len(s.Notifications().Get()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "sticky", s.Notifications().Get()[0].Message)
}

func TestNotification_DismissAndClear(t *testing.T) {
	s := NewNotificationService(testLogger())
	defer s.Close()

	a := s.Info("a")
	s.Info("b")
	s.Info("c")

	s.Dismiss(a)
	s.Dismiss("unknown")
	assert.Len(t, s.Notifications().Get(), 2)

	s.Clear()
	assert.Empty(t, s.Notifications().Get())
}

func TestNotification_SubscribersSeeEveryChange(t *testing.T) {
	s := NewNotificationService(testLogger())
	defer s.Close()

	var lengths []int
	unsubscribe := s.Notifications().Subscribe(func(list []model.Notification) {
		lengths = append(lengths, len(list))
	})
	defer unsubscribe()

	id := s.Info("one", 0)
	s.Info("two", 0)
	s.Dismiss(id)

	assert.Equal(t, []int{1, 2, 1}, lengths)
}

func TestNotification_CloseLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewNotificationService(testLogger())
	for i := 0; i < 10; i++ {
		s.Info("pending", time.Hour)
	}
	s.Close()
}
