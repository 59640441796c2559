package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearmatch/internal/types"
)

func TestMemoryStoreListForUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := base
	store.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	for _, other := range []string{"b", "c", "d"} {
		if _, err := store.CreateMatch(ctx, NewMatch{UserA: "a", UserB: types.ID(other)}); err != nil {
			t.Fatalf("create %s: %v", other, err)
		}
	}
	if _, err := store.CreateMatch(ctx, NewMatch{UserA: "c", UserB: "a"}); !errors.Is(err, ErrDuplicatePair) {
		t.Fatalf("expected duplicate for reversed pair, got %v", err)
	}

	got, err := store.ListForUser(ctx, "a", base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records inside the window, got %d", len(got))
	}
	if got[0].Other("a") != "d" || got[1].Other("a") != "c" {
		t.Fatalf("expected newest first, got %s then %s", got[0].Other("a"), got[1].Other("a"))
	}
}
