package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/erazemk/listings/internal/db"
	"github.com/erazemk/listings/internal/model"
	"github.com/erazemk/listings/internal/store"
)

func seeded(t *testing.T) (*Repository, store.Backend) {
	t.Helper()
	backend := store.NewSQLite(db.NewTestDB(t))
	r := New(backend)
	if err := r.Replace(context.Background(), model.Defaults()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return r, backend
}

func TestGetAllEmpty(t *testing.T) {
	r := New(store.NewMemory())
	props, err := r.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if props == nil || len(props) != 0 {
		t.Errorf("expected empty non-nil collection, got %v", props)
	}
}

func TestAddToEmptyAssignsOne(t *testing.T) {
	r := New(store.NewMemory())
	p, err := r.Add(context.Background(), model.Property{Location: "Luton LU2", Rent: 3100})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("expected id 1, got %d", p.ID)
	}
	if p.Contract != model.DefaultContract {
		t.Errorf("expected default contract, got %q", p.Contract)
	}
}

func TestAddAssignsNextID(t *testing.T) {
	r, _ := seeded(t)
	ctx := context.Background()

	// Ids need not be contiguous; the next one follows the maximum.
	if _, err := r.Delete(ctx, 4); err != nil {
		t.Fatal(err)
	}
	before, _ := r.GetAll(ctx)

	p, err := r.Add(ctx, model.Property{Location: "Leeds LS6", Beds: 3, Baths: 1, Rent: 1300})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	after, _ := r.GetAll(ctx)
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d records, got %d", len(before)+1, len(after))
	}
	for _, old := range before {
		if p.ID <= old.ID {
			t.Errorf("new id %d not greater than existing %d", p.ID, old.ID)
		}
	}
	if p.ID != 11 {
		t.Errorf("expected id 11, got %d", p.ID)
	}
	if after[len(after)-1].Location != "Leeds LS6" {
		t.Error("new record should be appended at the end")
	}
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	r, _ := seeded(t)
	ctx := context.Background()

	before, _ := r.Get(ctx, 1)
	rent := 2600
	avail := "From June"
	got, err := r.Update(ctx, 1, model.Patch{Rent: &rent, Availability: &avail})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := before
	want.Rent = 2600
	want.Availability = "From June"
	if got != want {
		t.Errorf("Update result mismatch:\n got %+v\nwant %+v", got, want)
	}

	stored, _ := r.Get(ctx, 1)
	if stored != want {
		t.Error("update was not persisted")
	}
	other, _ := r.Get(ctx, 2)
	if other.Rent != 6249 {
		t.Error("update touched another record")
	}
}

func TestUpdateMissingID(t *testing.T) {
	r, backend := seeded(t)
	ctx := context.Background()
	before, _, _ := backend.Get(ctx, store.KeyProperties)

	rent := 1
	_, err := r.Update(ctx, 42, model.Patch{Rent: &rent})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	after, _, _ := backend.Get(ctx, store.KeyProperties)
	if before != after {
		t.Error("failed update changed the collection")
	}
}

func TestDelete(t *testing.T) {
	r, _ := seeded(t)
	ctx := context.Background()

	removed, err := r.Delete(ctx, 3)
	if err != nil || !removed {
		t.Fatalf("Delete(3) = %v, %v", removed, err)
	}
	props, _ := r.GetAll(ctx)
	if len(props) != 9 {
		t.Errorf("expected 9 records, got %d", len(props))
	}
	for _, p := range props {
		if p.ID == 3 {
			t.Error("record 3 still present")
		}
	}

	removed, err = r.Delete(ctx, 3)
	if err != nil || removed {
		t.Errorf("second Delete(3) = %v, %v; want no-op", removed, err)
	}
	if props, _ := r.GetAll(ctx); len(props) != 9 {
		t.Error("no-op delete changed the collection")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	r, _ := seeded(t)
	ctx := context.Background()

	data, err := r.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var decoded []model.Property
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}

	other := New(store.NewMemory())
	n, err := other.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 10 {
		t.Errorf("expected 10 imported, got %d", n)
	}
	got, _ := other.GetAll(ctx)
	if len(got) != 10 || got[8].Location != "Berkshire SL1" {
		t.Errorf("imported collection differs: %+v", got)
	}
}

func TestImportRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"object", `{"id":1,"location":"x"}`, model.ErrInvalid},
		{"number", `3`, model.ErrInvalid},
		{"duplicate ids", `[{"id":1},{"id":1}]`, model.ErrInvalid},
		{"not json", `properties`, model.ErrMalformed},
		{"truncated", `[{"id":1,`, model.ErrMalformed},
	}

	for _, tt := range tests {
		r, backend := seeded(t)
		ctx := context.Background()
		before, _, _ := backend.Get(ctx, store.KeyProperties)

		_, err := r.Import(ctx, []byte(tt.data))
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}

		after, _, _ := backend.Get(ctx, store.KeyProperties)
		if before != after {
			t.Errorf("%s: rejected import changed the cache", tt.name)
		}
	}
}

func TestCorruptCacheIsReported(t *testing.T) {
	backend := store.NewMemory()
	backend.Set(context.Background(), store.KeyProperties, `{broken`)
	r := New(backend)

	if _, err := r.GetAll(context.Background()); !errors.Is(err, model.ErrMalformed) {
		t.Errorf("GetAll: expected ErrMalformed, got %v", err)
	}
	if _, err := r.Add(context.Background(), model.Property{Location: "x"}); !errors.Is(err, model.ErrMalformed) {
		t.Errorf("Add: expected ErrMalformed, got %v", err)
	}
	if raw, _, _ := backend.Get(context.Background(), store.KeyProperties); raw != `{broken` {
		t.Error("Add wrote over a corrupt cache")
	}
}

func TestClear(t *testing.T) {
	r, backend := seeded(t)
	ctx := context.Background()

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := backend.Get(ctx, store.KeyProperties); ok {
		t.Error("expected cache key removed")
	}
	if props, _ := r.GetAll(ctx); len(props) != 0 {
		t.Errorf("expected empty collection, got %d", len(props))
	}
	if dirty, _ := r.Unpublished(ctx); dirty {
		t.Error("expected Clear to drop the unpublished flag")
	}
}

func TestMutationsFlagUnpublished(t *testing.T) {
	r := New(store.NewMemory())
	ctx := context.Background()

	if dirty, _ := r.Unpublished(ctx); dirty {
		t.Fatal("fresh repository reports unpublished changes")
	}
	if _, err := r.Add(ctx, model.Property{Location: "Luton LU2", Rent: 3100}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if dirty, _ := r.Unpublished(ctx); !dirty {
		t.Error("expected Add to flag unpublished changes")
	}

	if err := r.MarkPublished(ctx); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if dirty, _ := r.Unpublished(ctx); dirty {
		t.Error("expected MarkPublished to drop the flag")
	}
	if props, _ := r.GetAll(ctx); len(props) != 1 {
		t.Errorf("MarkPublished touched the collection: %d records", len(props))
	}
}

func TestAddAfterMaxIntID(t *testing.T) {
	r := New(store.NewMemory())
	ctx := context.Background()

	if _, err := r.Import(ctx, []byte(`[{"id":9223372036854775807}]`)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	before, _ := r.Export(ctx)

	if _, err := r.Add(ctx, model.Property{Location: "Luton LU2"}); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if after, _ := r.Export(ctx); string(after) != string(before) {
		t.Error("rejected add changed the collection")
	}
}
