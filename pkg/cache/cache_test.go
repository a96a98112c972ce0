package cache

import (
	"context"
	"path/filepath"
	"testing"

	"posterforge/pkg/db"
)

func TestSQLiteCache(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "cache_test.db")
	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	defer d.Close()
	c := NewSQLiteCache(d)

	// Miss before any write
	val, hit := c.GetCache(context.Background(), "geocode:paris")
	if hit {
		t.Error("Expected cache miss, got hit")
	}
	if val != nil {
		t.Error("Expected nil value, got bytes")
	}

	// Write and read back
	if err := c.SetCache(context.Background(), "geocode:paris", []byte(`{"lat":"48.85"}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	val, hit = c.GetCache(context.Background(), "geocode:paris")
	if !hit {
		t.Fatal("Expected cache hit")
	}
	if string(val) != `{"lat":"48.85"}` {
		t.Errorf("Got %q", val)
	}

	// Overwrite
	if err := c.SetCache(context.Background(), "geocode:paris", []byte("v2")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	val, _ = c.GetCache(context.Background(), "geocode:paris")
	if string(val) != "v2" {
		t.Errorf("Got %q after overwrite", val)
	}
}

func TestNullCache(t *testing.T) {
	c := NullCache{}
	if err := c.SetCache(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, hit := c.GetCache(context.Background(), "k"); hit {
		t.Error("NullCache must never hit")
	}
}
