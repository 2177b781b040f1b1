package memory

import (
	"context"
	"testing"
)

func TestKVStoreGetManySkipsAbsentKeys(t *testing.T) {
	store := NewKVStore()
	ctx := context.Background()

	if err := store.SetMany(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.GetMany(ctx, "a", "c")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got["a"] != "1" {
		t.Fatalf("unexpected values %v", got)
	}
}
