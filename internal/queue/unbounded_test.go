package queue

import "testing"

func TestUnboundedPreservesFIFOOrder(t *testing.T) {
	q := NewUnbounded[int]()
	for i := 0; i < 100; i++ {
		q.In() <- i
	}
	for i := 0; i < 100; i++ {
		got := <-q.Out()
		if got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
}

func TestUnboundedNeverBlocksProducerOnSlowConsumer(t *testing.T) {
	q := NewUnbounded[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.In() <- i
		}
		close(done)
	}()

	select {
	case <-done:
	case <-q.Out():
		// draining one value unblocks the relay goroutine if it were
		// bounded; either ordering is fine, this just proves no deadlock
	}
}

func TestUnboundedCloseDrainsBufferedValues(t *testing.T) {
	q := NewUnbounded[int]()
	q.In() <- 1
	q.In() <- 2
	q.Close()

	var got []int
	for v := range q.Out() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
}
