package notify

import (
	"testing"
	"time"

	"github.com/yildizm/mlstudio/internal/clock"
)

func newTestQueue() (*Queue, *clock.Fake) {
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewQueue(clk, DefaultTTL), clk
}

func TestQueue_PushVisibleImmediately(t *testing.T) {
	q, clk := newTestQueue()

	n := q.Push("Dataset uploaded", KindSuccess)

	list := q.List()
	if len(list) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(list))
	}
	if list[0].ID != n.ID || list[0].Message != "Dataset uploaded" || list[0].Kind != KindSuccess {
		t.Errorf("Unexpected notification: %+v", list[0])
	}
	if !list[0].CreatedAt.Equal(clk.Now()) {
		t.Errorf("Expected CreatedAt %v, got %v", clk.Now(), list[0].CreatedAt)
	}
}

func TestQueue_ExpiresAfterTTL(t *testing.T) {
	q, clk := newTestQueue()
	q.Push("hello", KindInfo)

	clk.Advance(3999 * time.Millisecond)
	if q.Len() != 1 {
		t.Fatalf("Expected notification to survive until 4000ms, got len %d", q.Len())
	}

	clk.Advance(time.Millisecond)
	if q.Len() != 0 {
		t.Errorf("Expected notification to expire at 4000ms, got len %d", q.Len())
	}
}

func TestQueue_DismissCancelsTimer(t *testing.T) {
	q, clk := newTestQueue()

	changes := 0
	q.SetListener(func() { changes++ })

	n := q.Push("bye", KindError)
	if !q.Dismiss(n.ID) {
		t.Fatal("Expected dismiss to find the notification")
	}
	if q.Len() != 0 {
		t.Fatalf("Expected empty queue after dismiss, got %d", q.Len())
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected dismissed timer to be cancelled, %d pending", clk.Pending())
	}

	before := changes
	clk.Advance(10 * time.Second)
	if changes != before {
		t.Errorf("Expiry fired after dismissal: %d extra changes", changes-before)
	}
	if q.Dismiss(n.ID) {
		t.Error("Second dismiss should report false")
	}
}

func TestQueue_IndependentTimers(t *testing.T) {
	q, clk := newTestQueue()

	first := q.Push("first", KindInfo)
	clk.Advance(time.Second)
	second := q.Push("second", KindInfo)
	third := q.Push("third", KindSuccess)

	q.Dismiss(second.ID)

	clk.Advance(3 * time.Second)
	list := q.List()
	if len(list) != 1 || list[0].ID != third.ID {
		t.Fatalf("Expected only third to remain, got %+v", list)
	}

	clk.Advance(time.Second)
	if q.Len() != 0 {
		t.Errorf("Expected third to expire, got %d", q.Len())
	}
	if first.ID >= second.ID || second.ID >= third.ID {
		t.Errorf("IDs must increase: %d %d %d", first.ID, second.ID, third.ID)
	}
}

func TestQueue_OrderAndNoDedup(t *testing.T) {
	q, _ := newTestQueue()

	q.Push("same", KindInfo)
	q.Push("same", KindInfo)
	q.Push("other", KindError)

	list := q.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("Expected insertion order, got %+v", list)
		}
	}
}

func TestQueue_Clear(t *testing.T) {
	q, clk := newTestQueue()
	q.Success("a")
	q.Error("b")

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got %d", q.Len())
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected timers cancelled, got %d", clk.Pending())
	}
}
