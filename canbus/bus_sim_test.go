package canbus

import "testing"

func TestSimulatedBusSendRecordsFrames(t *testing.T) {
	b := NewSimulatedBus()
	if err := b.Send(Frame{ID: 0x200, Data: []byte{1, 2, 3}}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, ok := b.LastSent(0x200)
	if !ok {
		t.Fatal("expected a sent frame with ID 0x200")
	}
	if len(got.Data) != 3 || got.Data[1] != 2 {
		t.Errorf("unexpected sent frame: %+v", got)
	}
}

func TestSimulatedBusInjectAndRecv(t *testing.T) {
	b := NewSimulatedBus()
	b.Inject(Frame{ID: 0x680, Data: []byte{1}})

	f, ok := b.Recv()
	if !ok {
		t.Fatal("expected an injected frame")
	}
	if f.ID != 0x680 {
		t.Errorf("ID = %#x, want 0x680", f.ID)
	}

	if _, ok := b.Recv(); ok {
		t.Error("queue should be empty after draining the single frame")
	}
}

func TestDroppingQueueOverflow(t *testing.T) {
	q := newDroppingQueue(2)
	q.push(Frame{ID: 1})
	q.push(Frame{ID: 2})
	q.push(Frame{ID: 3})

	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
	first, _ := q.pop()
	if first.ID != 2 {
		t.Errorf("oldest surviving frame ID = %d, want 2 (frame 1 should have been dropped)", first.ID)
	}
}
