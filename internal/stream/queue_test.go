package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/consortium/internal/errors"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()
	for i := range 5 {
		q.Push(i)
	}

	ctx := context.Background()
	for want := range 5 {
		got, err := q.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_NextWaitsForPush(t *testing.T) {
	q := New[string]()
	done := make(chan string)

	go func() {
		v, err := q.Next(context.Background())
		if err != nil {
			t.Errorf("Next() error: %v", err)
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-done:
		if v != "hello" {
			t.Errorf("Next() = %q, want hello", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not wake up after Push")
	}
}

func TestQueue_CancelDoesNotLoseItems(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := q.Next(ctx)
		errc <- err
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Next() error = %v, want context.Canceled", err)
	}

	q.Push(1)
	q.Push(2)

	// A cancelled context with items available still never drops them.
	got, err := q.Next(context.Background())
	if err != nil || got != 1 {
		t.Fatalf("Next() = (%d, %v), want (1, nil)", got, err)
	}
	got, err = q.Next(context.Background())
	if err != nil || got != 2 {
		t.Fatalf("Next() = (%d, %v), want (2, nil)", got, err)
	}
}

func TestQueue_CloseDrainsThenErrors(t *testing.T) {
	q := New[int]()
	q.Push(7)
	q.Close()

	if q.Push(8) {
		t.Error("Push after Close should report false")
	}

	got, err := q.Next(context.Background())
	if err != nil || got != 7 {
		t.Fatalf("Next() = (%d, %v), want (7, nil)", got, err)
	}
	if _, err := q.Next(context.Background()); !errors.Is(err, errors.ErrStreamClosed) {
		t.Fatalf("Next() error = %v, want ErrStreamClosed", err)
	}
	if !q.Closed() {
		t.Error("Closed() = false")
	}
}

func TestQueue_CloseWakesWaiter(t *testing.T) {
	q := New[int]()
	errc := make(chan error)
	go func() {
		_, err := q.Next(context.Background())
		errc <- err
	}()

	time.Sleep(5 * time.Millisecond)
	q.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, errors.ErrStreamClosed) {
			t.Errorf("Next() error = %v, want ErrStreamClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the waiting consumer")
	}
}

func TestQueue_ConcurrentProducersPreservePerProducerOrder(t *testing.T) {
	q := New[[2]int]()
	const producers, perProducer = 4, 500

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Push([2]int{p, i})
			}
		}()
	}
	wg.Wait()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for range producers * perProducer {
		v, ok := q.TryNext()
		if !ok {
			t.Fatal("TryNext() ran dry early")
		}
		if v[1] != last[v[0]]+1 {
			t.Fatalf("producer %d: got %d after %d", v[0], v[1], last[v[0]])
		}
		last[v[0]] = v[1]
	}
	if _, ok := q.TryNext(); ok {
		t.Error("queue should be empty")
	}
}
