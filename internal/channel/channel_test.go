package channel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenClose(t *testing.T) {
	c := New()
	assert.False(t, c.IsOpen())
	c.Open()
	assert.True(t, c.IsOpen())
	c.Close()
	assert.False(t, c.IsOpen())
}

func TestReceiveBeforeSendIsEmpty(t *testing.T) {
	c := New()
	got := c.Receive()
	assert.Len(t, got, 0)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	c := New()
	frame := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	c.Send(frame)
	got := c.Receive()
	assert.Equal(t, frame, got)
}

func TestConcurrentSendReceiveNeverPartial(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	frameA := make([]byte, 12)
	frameB := []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	for i := range frameA {
		frameA[i] = byte(i)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Send(frameA)
			c.Send(frameB)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			got := c.Receive()
			assert.True(t, len(got) == 0 || len(got) == 12)
		}
	}()
	wg.Wait()
}
