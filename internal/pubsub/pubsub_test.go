package pubsub

import "testing"

func TestPublishOrder(t *testing.T) {
	var topic Topic[int]
	var order []string

	topic.Subscribe(func(v int) { order = append(order, "first") })
	topic.Subscribe(func(v int) { order = append(order, "second") })
	topic.Publish(1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected delivery in subscription order, got %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	var topic Topic[string]
	var got []string

	unsub := topic.Subscribe(func(v string) { got = append(got, v) })
	topic.Publish("a")
	unsub()
	unsub() // second call is a no-op
	topic.Publish("b")

	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected only pre-unsubscribe delivery, got %v", got)
	}
	if topic.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", topic.Len())
	}
}

func TestNoDeliveryToLateSubscriber(t *testing.T) {
	var topic Topic[int]
	topic.Publish(42)

	called := false
	topic.Subscribe(func(int) { called = true })
	if called {
		t.Fatal("subscriber must not observe events published before subscription")
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	var topic Topic[int]
	var lateCalled bool
	topic.Subscribe(func(int) {
		topic.Subscribe(func(int) { lateCalled = true })
	})
	topic.Publish(1)
	if lateCalled {
		t.Fatal("handler added during publish must not receive that event")
	}
}
