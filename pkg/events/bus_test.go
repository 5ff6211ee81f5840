package events

import (
	"context"
	"sync"
	"testing"
)

func TestPublishDeliversToTopicSubscribersOnly(t *testing.T) {
	bus := NewBus()

	var stock, application int
	bus.Subscribe(TopicStockMovement, func(ctx context.Context, e Event) {
		stock++
	})
	bus.Subscribe(TopicApplicationSubmitted, func(ctx context.Context, e Event) {
		application++
	})

	bus.Publish(context.Background(), Event{Topic: TopicStockMovement, Payload: "WID-001"})
	bus.Publish(context.Background(), Event{Topic: TopicStockMovement, Payload: "WID-002"})

	if stock != 2 {
		t.Fatalf("expected 2 stock deliveries, got %d", stock)
	}
	if application != 0 {
		t.Fatalf("expected 0 application deliveries, got %d", application)
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe(TopicApplicationUpdated, func(ctx context.Context, e Event) {
		delivered = true
	})
	bus.Publish(context.Background(), Event{Topic: TopicApplicationUpdated})

	if !delivered {
		t.Fatal("expected delivery before Publish returned")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus()
	bus.Publish(context.Background(), Event{Topic: "unknown.topic"})
}

func TestConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(TopicStockMovement, func(ctx context.Context, e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), Event{Topic: TopicStockMovement})
		}()
	}
	wg.Wait()

	if count != 16 {
		t.Fatalf("expected 16 deliveries, got %d", count)
	}
}
