package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/models"
)

func publishN(bus *ProgressBus, requestID string, n int) {
	for i := 0; i < n; i++ {
		bus.Publish(models.ProgressEvent{
			RequestID: requestID,
			Type:      models.ProgressInfo,
			Message:   string(rune('a' + i)),
		})
	}
}

func TestProgressBusOrdering(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch, cancel := bus.Subscribe("req-1")
	defer cancel()

	publishN(bus, "req-1", 5)

	for i := 0; i < 5; i++ {
		select {
		case ev := <-ch:
			assert.Equal(t, string(rune('a'+i)), ev.Message, "events must arrive in publish order")
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestProgressBusMultipleSubscribers(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe("req-1")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("req-1")
	defer cancel2()

	bus.Publish(models.ProgressEvent{RequestID: "req-1", Message: "hello"})

	for _, ch := range []<-chan models.ProgressEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "hello", ev.Message)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestProgressBusRequestIsolation(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch, cancel := bus.Subscribe("req-1")
	defer cancel()

	bus.Publish(models.ProgressEvent{RequestID: "req-2", Message: "other"})

	select {
	case ev := <-ch:
		t.Fatalf("received event for wrong request: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressBusTimestampAssigned(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch, cancel := bus.Subscribe("req-1")
	defer cancel()

	bus.Publish(models.ProgressEvent{RequestID: "req-1", Message: "stamp me"})

	ev := <-ch
	assert.False(t, ev.Timestamp.IsZero(), "publish must assign a timestamp when absent")
}

func TestProgressBusUnsubscribeIsolation(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe("req-1")
	ch2, cancel2 := bus.Subscribe("req-1")
	defer cancel2()

	cancel1()
	cancel1() // second call is a no-op

	bus.Publish(models.ProgressEvent{RequestID: "req-1", Message: "still flowing"})

	select {
	case ev := <-ch2:
		assert.Equal(t, "still flowing", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber did not receive event")
	}

	// Dropped subscriber's channel is closed
	_, open := <-ch1
	assert.False(t, open)
}

func TestProgressBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	// Never drained; fills its buffer
	_, cancelSlow := bus.Subscribe("req-1")
	defer cancelSlow()

	done := make(chan struct{})
	go func() {
		publishN(bus, "req-1", subscriberBuffer+50)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestProgressBusPublishAfterClose(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())

	ch, cancel := bus.Subscribe("req-1")
	defer cancel()

	bus.Close()

	// Must not panic
	bus.Publish(models.ProgressEvent{RequestID: "req-1", Message: "late"})

	_, open := <-ch
	assert.False(t, open, "close must close subscriber channels")
}

func TestReporterVocabulary(t *testing.T) {
	bus := NewProgressBus(arbor.NewLogger())
	defer bus.Close()

	ch, cancel := bus.Subscribe("req-1")
	defer cancel()

	reporter := NewReporter(bus, "req-1", 0)
	reporter.TickersFound([]string{"AAPL", "MSFT"})

	select {
	case ev := <-ch:
		require.Equal(t, models.ProgressSuccess, ev.Type)
		assert.Contains(t, ev.Message, "AAPL, MSFT")
		assert.Equal(t, []string{"AAPL", "MSFT"}, ev.Data["tickers"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
