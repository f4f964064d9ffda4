package store

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

func TestFirestoreStoreWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	store := NewFirestoreStore(client)
	for _, id := range []string{"w1", "w2"} {
		if _, err := client.Collection(widgetsCollection).Doc(id).Delete(ctx); err != nil {
			t.Fatalf("cleanup error: %v", err)
		}
	}

	n, err := store.ImportDataStream(ctx, []models.DataStreamEntry{
		models.DataStreamEntry(`{"content":{"sourceIdentifier":"chart-1","title":"Revenue"}}`),
	})
	if err != nil || n != 1 {
		t.Fatalf("import data stream error: %v (n=%d)", err, n)
	}

	first := models.Widget{ID: "w1", Title: "Revenue", Type: "chart", Source: "chart-1", Width: 50, Height: 250, Order: 1}
	second := models.Widget{ID: "w2", Title: "Notes", Type: "custom-text", Source: "hi", Width: 100, Height: 100, Order: 2}

	rev1, err := store.Create(ctx, first)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	rev2, err := store.Create(ctx, second)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if rev2 != rev1+1 {
		t.Fatalf("expected revision %d, got %d", rev1+1, rev2)
	}

	if _, err := store.Create(ctx, first); err == nil {
		t.Fatal("expected duplicate create to fail")
	} else if _, ok := err.(*errs.AlreadyExistsError); !ok {
		t.Fatalf("expected AlreadyExistsError, got %T", err)
	}

	widgets, rev, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if rev != rev2 {
		t.Fatalf("expected list revision %d, got %d", rev2, rev)
	}
	if len(widgets) < 2 || widgets[len(widgets)-2] != first || widgets[len(widgets)-1] != second {
		t.Fatalf("unexpected widgets: %+v", widgets)
	}

	entries, err := store.DataStream(ctx, "chart-1")
	if err != nil {
		t.Fatalf("data stream error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 data stream entry, got %d", len(entries))
	}

	if _, err := store.Delete(ctx, "w1"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := store.Delete(ctx, "w1"); err == nil {
		t.Fatal("expected second delete to fail")
	} else if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
}
