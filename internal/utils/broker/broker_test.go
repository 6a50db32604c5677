package broker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBroker_DeliversInOrder(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("upload-1")
	defer b.Unsubscribe("upload-1", ch)

	b.Publish("upload-1", "extracting")
	b.Publish("upload-1", "summarizing")
	b.Publish("other", "ignored")

	assert.Equal(t, "extracting", <-ch)
	assert.Equal(t, "summarizing", <-ch)
	assert.Empty(t, ch)
}

func TestBroker_PublishNeverBlocks(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("slow")

	for i := 0; i < subscriberBuffer*3; i++ {
		b.Publish("slow", i)
	}
	assert.Len(t, ch, subscriberBuffer)

	b.Unsubscribe("slow", ch)
	assert.Equal(t, 0, b.Subscribers("slow"))
}

func TestBroker_ConcurrentSubscribers(t *testing.T) {
	b := NewBroker()
	var wg sync.WaitGroup
	received := make([]int, 4)
	subs := make([]<-chan interface{}, len(received))

	for i := range received {
		subs[i] = b.Subscribe("topic")
		wg.Add(1)
		go func(i int, ch <-chan interface{}) {
			defer wg.Done()
			for range ch {
				received[i]++
			}
		}(i, subs[i])
	}

	b.Publish("topic", "a")
	b.Publish("topic", "b")

	// closing the channels ends the readers after they drain
	for _, ch := range subs {
		b.Unsubscribe("topic", ch)
	}
	wg.Wait()

	for _, n := range received {
		assert.Equal(t, 2, n)
	}
}
