package jobs

import (
	"errors"
	"testing"
)

func TestSubmitDeliversResultToCallback(t *testing.T) {
	r := NewRunner()

	var got int
	var gotErr error
	Submit(r, func() (int, error) {
		return 42, nil
	}, func(v int, err error) {
		got, gotErr = v, err
	})

	r.Wait()

	if got != 42 || gotErr != nil {
		t.Fatalf("got %d, %v", got, gotErr)
	}
}

func TestSubmitDeliversError(t *testing.T) {
	r := NewRunner()

	wantErr := errors.New("boom")
	var gotErr error
	Submit(r, func() (string, error) {
		return "", wantErr
	}, func(_ string, err error) {
		gotErr = err
	})

	r.Wait()

	if !errors.Is(gotErr, wantErr) {
		t.Fatalf("got %v, want %v", gotErr, wantErr)
	}
}

func TestCallbacksRunOnWaitingGoroutine(t *testing.T) {
	r := NewRunner()

	// The callback mutates state without synchronization; the race
	// detector fails this test if it ever runs off the Wait goroutine.
	counter := 0
	for i := 0; i < 5; i++ {
		Submit(r, func() (int, error) {
			return 1, nil
		}, func(v int, _ error) {
			counter += v
		})
	}

	r.Wait()

	if counter != 5 {
		t.Fatalf("counter = %d, want 5", counter)
	}
}
