package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdesk/transitdesk/internal/event"
)

func TestMailbox_DrainInPostOrder(t *testing.T) {
	m := event.NewMailbox[int]()

	m.Post(1)
	m.Post(2)
	m.Post(3)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []int{1, 2, 3}, m.Drain())
	assert.Empty(t, m.Drain())
	assert.Equal(t, 0, m.Len())
}

func TestMailbox_ReadySignal(t *testing.T) {
	m := event.NewMailbox[string]()

	select {
	case <-m.Ready():
		t.Fatal("ready before any post")
	default:
	}

	m.Post("a")
	m.Post("b")

	select {
	case <-m.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready not signalled")
	}
	assert.Equal(t, []string{"a", "b"}, m.Drain())
}

func TestMailbox_ConcurrentPostersNeverBlock(t *testing.T) {
	m := event.NewMailbox[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			m.Post(v)
		}(i)
	}
	wg.Wait()

	got := m.Drain()
	require.Len(t, got, 50)

	seen := map[int]bool{}
	for _, v := range got {
		seen[v] = true
	}
	assert.Len(t, seen, 50)
}
