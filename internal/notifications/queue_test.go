package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushAndList_NewestFirst(t *testing.T) {
	q := NewQueue(time.Minute)

	q.Success("first")
	q.Error("second")

	items := q.List()
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Message)
	assert.Equal(t, TypeError, items[0].Type)
	assert.Equal(t, "first", items[1].Message)
	assert.False(t, items[0].Read)
	assert.NotEmpty(t, items[0].ID)
}

func TestQueue_AutoExpiry(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)

	q.Info("transient")
	require.Len(t, q.List(), 1)

	assert.Eventually(t, func() bool {
		return len(q.List()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_DismissCancelsTimer(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)

	keep := q.Success("keep")
	drop := q.Warning("drop")
	q.Dismiss(drop)

	items := q.List()
	require.Len(t, items, 1)
	assert.Equal(t, keep, items[0].ID)

	// Dismissing one never affects the others' timers.
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, q.List())
}

func TestQueue_DismissUnknownIDIsNoop(t *testing.T) {
	q := NewQueue(time.Minute)
	q.Info("only")
	q.Dismiss("no-such-id")
	assert.Len(t, q.List(), 1)
}

func TestQueue_MarkRead_DoesNotStopExpiry(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)

	id := q.Info("read me")
	q.MarkRead(id)

	items := q.List()
	require.Len(t, items, 1)
	assert.True(t, items[0].Read)

	assert.Eventually(t, func() bool {
		return len(q.List()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_Reset(t *testing.T) {
	q := NewQueue(time.Minute)
	q.Success("a")
	q.Info("b")

	q.Reset()
	assert.Empty(t, q.List())
}

type countingObserver struct {
	kinds []string
}

func (c *countingObserver) ObserveNotification(kind string) {
	c.kinds = append(c.kinds, kind)
}

func TestQueue_ObserverSeesTypes(t *testing.T) {
	q := NewQueue(time.Minute)
	obs := &countingObserver{}
	q.SetObserver(obs)

	q.Success("ok")
	q.Warning("hm")

	assert.Equal(t, []string{"success", "warning"}, obs.kinds)
}
