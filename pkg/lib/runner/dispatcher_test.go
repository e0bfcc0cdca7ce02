package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLoopOrder(t *testing.T) {
	loop := NewEventLoop()

	var got []int
	for i := 0; i < 1000; i++ {
		require.True(t, loop.Dispatch(func() { got = append(got, i) }))
	}
	loop.Close()

	select {
	case <-loop.Done():
	case <-time.After(testTimeout):
		t.Fatalf("event loop did not drain")
	}

	require.Len(t, got, 1000)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestEventLoopDispatchAfterClose(t *testing.T) {
	loop := NewEventLoop()
	loop.Close()
	loop.Close()

	assert.False(t, loop.Dispatch(func() {}))
	<-loop.Done()
}

func TestEventLoopNestedDispatch(t *testing.T) {
	loop := NewEventLoop()
	defer loop.Close()

	done := make(chan []string, 1)
	var order []string
	loop.Dispatch(func() {
		order = append(order, "outer")
		loop.Dispatch(func() {
			order = append(order, "inner")
			done <- order
		})
		order = append(order, "outer-end")
	})

	select {
	case got := <-done:
		assert.Equal(t, []string{"outer", "outer-end", "inner"}, got)
	case <-time.After(testTimeout):
		t.Fatalf("nested callback did not run")
	}
}
