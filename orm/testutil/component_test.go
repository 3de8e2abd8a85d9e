package testutil

import (
	"context"
	"testing"

	fxtestutil "github.com/kbukum/fixkit/testutil"
)

type tcItem struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestComponentLifecycle(t *testing.T) {
	comp := NewComponent(t.Name()).WithModels(&tcItem{})
	fxtestutil.T(t).Setup(comp)

	db := comp.DB()
	if db == nil {
		t.Fatal("DB() is nil after Start")
	}
	if err := db.GormDB.Create(&tcItem{Name: "a"}).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if h := comp.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("health = %s, want healthy", h.Status)
	}
}

func TestComponentReset(t *testing.T) {
	comp := NewComponent(t.Name()).WithModels(&tcItem{})
	fxtestutil.T(t).Setup(comp)
	ctx := context.Background()

	if err := comp.DB().GormDB.Create(&tcItem{Name: "a"}).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := comp.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	var count int64
	if err := comp.DB().GormDB.Model(&tcItem{}).Count(&count).Error; err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count after Reset = %d, want 0", count)
	}
}

func TestComponentSnapshotRestore(t *testing.T) {
	comp := NewComponent(t.Name()).WithModels(&tcItem{})
	fxtestutil.T(t).Setup(comp)
	ctx := context.Background()

	if err := comp.DB().GormDB.Create(&tcItem{Name: "keep"}).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	snap, err := comp.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if err := comp.DB().GormDB.Create(&tcItem{Name: "extra"}).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := comp.Restore(ctx, snap); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	var items []tcItem
	if err := comp.DB().GormDB.Find(&items).Error; err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "keep" {
		t.Errorf("items after restore = %v, want just the snapshotted row", items)
	}

	if err := comp.Restore(ctx, 42); err == nil {
		t.Error("Restore with a foreign snapshot type should fail")
	}
}

func TestComponentNotStarted(t *testing.T) {
	comp := NewComponent(t.Name())
	if comp.DB() != nil {
		t.Error("DB() should be nil before Start")
	}
	if err := comp.Reset(context.Background()); err == nil {
		t.Error("Reset() before Start should fail")
	}
	if h := comp.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("health = %s, want unhealthy", h.Status)
	}
}
