package codes

import (
	"context"
	"errors"
	"testing"
)

// fakeCounter returns a fixed count per prefix.
type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f *fakeCounter) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[prefix], nil
}

func TestNext_FirstCode(t *testing.T) {
	c := &fakeCounter{counts: map[string]int{}}
	code, err := Next(context.Background(), c, "ACME")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if code != "ACME-1" {
		t.Errorf("got %q, want ACME-1", code)
	}
}

func TestNext_Sequence(t *testing.T) {
	c := &fakeCounter{counts: map[string]int{"ACME": 1}}
	code, err := Next(context.Background(), c, "ACME")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if code != "ACME-2" {
		t.Errorf("got %q, want ACME-2", code)
	}
}

func TestNext_ProjectPrefix(t *testing.T) {
	c := &fakeCounter{counts: map[string]int{"P-7": 11}}
	code, err := Next(context.Background(), c, "P-7")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if code != "P-7-12" {
		t.Errorf("got %q, want P-7-12", code)
	}
}

func TestNext_CounterError(t *testing.T) {
	c := &fakeCounter{err: errors.New("db down")}
	_, err := Next(context.Background(), c, "ACME")
	if err == nil {
		t.Fatal("expected error from counter")
	}
}

// TestNext_NotAtomic pins the count-then-format race: two calls that observe
// the same count produce the same code. Uniqueness is enforced at insert time
// by the storage layer, not here. If this test ever fails, Next has grown an
// atomicity guarantee and the insert-retry loop in the handlers should be
// revisited as part of the same change.
func TestNext_NotAtomic(t *testing.T) {
	c := &fakeCounter{counts: map[string]int{"X": 4}}
	first, err := Next(context.Background(), c, "X")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	second, err := Next(context.Background(), c, "X")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first != second {
		t.Errorf("expected identical codes from identical counts, got %q and %q", first, second)
	}
	if first != "X-5" {
		t.Errorf("got %q, want X-5", first)
	}
}
