package election_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/CampusElect/CE-Backend/internal/election"
	"github.com/google/uuid"
)

// TestResolveVoter_Idempotent verifies that resolving the same external id
// twice returns the same internal id.
func TestResolveVoter_Idempotent(t *testing.T) {
	svc := newTestService(t)

	first := mustResolve(t, svc, "idp-user-1")
	second := mustResolve(t, svc, "idp-user-1")

	if first != second {
		t.Errorf("expected stable internal id, got %s then %s", first, second)
	}
	if first == uuid.Nil {
		t.Error("internal id should not be the zero uuid")
	}
}

// TestResolveVoter_DistinctUsers verifies that different external ids map to
// different internal ids.
func TestResolveVoter_DistinctUsers(t *testing.T) {
	svc := newTestService(t)

	a := mustResolve(t, svc, "idp-user-a")
	b := mustResolve(t, svc, "idp-user-b")

	if a == b {
		t.Errorf("distinct external ids mapped to the same internal id %s", a)
	}
}

// TestResolveVoter_EmptyExternalID verifies the resolver refuses a blank id
// with an IdentityResolutionError.
func TestResolveVoter_EmptyExternalID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ResolveVoter(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected an error for an empty external id")
	}
	var resErr *election.IdentityResolutionError
	if !errors.As(err, &resErr) {
		t.Errorf("expected IdentityResolutionError, got %T: %v", err, err)
	}
}

// TestResolveVoter_ConcurrentFirstUse verifies that concurrent first-time
// resolutions for one external id converge on a single internal id.
func TestResolveVoter_ConcurrentFirstUse(t *testing.T) {
	svc := newTestService(t)

	const workers = 10
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.ResolveVoter(context.Background(), "idp-racer")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got %s, worker 0 got %s", i, ids[i], ids[0])
		}
	}
}

// TestResolveVoter_EagerThenLazy simulates the webhook creating the mapping
// first and a later ballot-time resolve finding the same id.
func TestResolveVoter_EagerThenLazy(t *testing.T) {
	svc := newTestService(t)

	eager := mustResolve(t, svc, "idp-webhook-user") // webhook path
	lazy := mustResolve(t, svc, "idp-webhook-user")  // first vote path

	if eager != lazy {
		t.Errorf("eager mapping %s and lazy resolve %s disagree", eager, lazy)
	}
}
