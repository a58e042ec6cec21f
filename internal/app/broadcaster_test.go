package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathtoys-quiz/internal/domain"
)

func TestBroadcasterDeliversInitialAndUpdates(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("s:q", domain.Progress{Answered: 0})
	defer cancel()

	assert.Equal(t, 0, (<-ch).Answered)
	b.Publish("s:q", domain.Progress{Answered: 1})
	b.Publish("other:q", domain.Progress{Answered: 7})
	assert.Equal(t, 1, (<-ch).Answered)
	assert.Len(t, ch, 0)
}

func TestBroadcasterDropsStaleSnapshots(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("k", domain.Progress{})
	defer cancel()

	for i := 1; i <= 20; i++ {
		b.Publish("k", domain.Progress{Answered: i})
	}
	var last domain.Progress
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, 20, last.Answered)
}

func TestBroadcasterCancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("k", domain.Progress{})
	require.Equal(t, 1, b.Subscribers("k"))
	<-ch

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers("k"))
}
