package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/tuma-pay/tuma_pay/internal/logging"
	"github.com/tuma-pay/tuma_pay/internal/store"
)

func TestLifecycle(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), logging.Discard())
	ctx := context.Background()

	if tr.Completed(ctx) {
		t.Fatalf("fresh install should not be onboarded")
	}
	if !tr.ShouldShow(ctx) {
		t.Fatalf("fresh install should show onboarding")
	}

	if err := tr.MarkComplete(ctx); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if !tr.Completed(ctx) || tr.ShouldShow(ctx) {
		t.Fatalf("completed install should skip onboarding")
	}

	if err := tr.SetForceShow(ctx, true); err != nil {
		t.Fatalf("force show: %v", err)
	}
	if !tr.ShouldShow(ctx) {
		t.Fatalf("force flag should override completion")
	}
	if err := tr.SetForceShow(ctx, false); err != nil {
		t.Fatalf("unset force: %v", err)
	}
	if tr.ShouldShow(ctx) {
		t.Fatalf("override removed, completion should win")
	}

	if err := tr.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !tr.ShouldShow(ctx) {
		t.Fatalf("cleared install should show onboarding again")
	}
}

func TestStorageFailureReadsAsNotCompleted(t *testing.T) {
	tr := NewTracker(store.FaultyStore{Err: errors.New("storage down")}, logging.Discard())
	if tr.Completed(context.Background()) {
		t.Fatalf("storage failure must read as not completed")
	}
}
