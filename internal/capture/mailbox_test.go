package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMailbox_LatestWins(t *testing.T) {
	var dropped []int
	mb := NewMailbox(func(v int) { dropped = append(dropped, v) })

	for i := 1; i <= 3; i++ {
		if err := mb.Put(i); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}

	got, err := mb.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != 3 {
		t.Errorf("Receive() = %d, want 3", got)
	}
	if len(dropped) != 2 || dropped[0] != 1 || dropped[1] != 2 {
		t.Errorf("dropped = %v, want [1 2]", dropped)
	}
	if mb.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", mb.Dropped())
	}

	if _, ok := mb.TryReceive(); ok {
		t.Error("TryReceive() on empty mailbox should fail")
	}
}

func TestMailbox_ReceiveWaits(t *testing.T) {
	mb := NewMailbox[string](nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		mb.Put("frame")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := mb.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != "frame" {
		t.Errorf("Receive() = %q, want frame", got)
	}
}

func TestMailbox_ReceiveContextDone(t *testing.T) {
	mb := NewMailbox[int](nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mb.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() error = %v, want context.Canceled", err)
	}
}

func TestMailbox_Close(t *testing.T) {
	var mu sync.Mutex
	var dropped []int
	mb := NewMailbox(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		dropped = append(dropped, v)
	})

	mb.Put(7)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	empty := NewMailbox[int](nil)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := empty.Receive(context.Background())
		errCh <- err
	}()

	mb.Close()
	mb.Close()
	empty.Close()
	wg.Wait()

	if err := <-errCh; !errors.Is(err, ErrMailboxClosed) {
		t.Errorf("blocked Receive() error = %v, want ErrMailboxClosed", err)
	}
	if _, err := mb.Receive(context.Background()); !errors.Is(err, ErrMailboxClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrMailboxClosed", err)
	}
	if err := mb.Put(8); !errors.Is(err, ErrMailboxClosed) {
		t.Errorf("Put() after Close error = %v, want ErrMailboxClosed", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(dropped) != 2 || dropped[0] != 7 || dropped[1] != 8 {
		t.Errorf("dropped = %v, want [7 8]", dropped)
	}
}
