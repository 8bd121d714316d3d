// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"io/fs"
	"os"
	"testing"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	for _, url := range []string{"", "   "} {
		if err := Init(testContext(), Config{URL: url}); !errors.Is(err, ErrDatabaseURLNotSet) {
			t.Fatalf("Init(%q): expected ErrDatabaseURLNotSet, got %v", url, err)
		}
	}
}

func TestInitInvalidDatabaseURL(t *testing.T) {
	t.Parallel()

	if err := Init(testContext(), Config{URL: "postgres://", CreateDatabase: true}); err == nil {
		t.Fatalf("expected error for invalid database url")
	}
}

func TestConfigMaxConns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		maxConns int32
		want     int32
	}{
		{maxConns: 0, want: DefaultMaxConns},
		{maxConns: -3, want: DefaultMaxConns},
		{maxConns: 12, want: 12},
	}

	for _, tt := range tests {
		if got := (Config{MaxConns: tt.maxConns}).maxConns(); got != tt.want {
			t.Fatalf("maxConns(%d) = %d, want %d", tt.maxConns, got, tt.want)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(GetEmbeddedMigrations(), "migrations")
	if err != nil {
		t.Fatalf("expected embedded migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(entries))
	}
}

func TestEnabledAndClose(t *testing.T) {
	resetDatabase(t)

	if !Enabled() {
		t.Fatalf("expected pool to be initialized")
	}

	Close()

	if Enabled() {
		t.Fatalf("expected pool to be cleared after Close")
	}

	if err := initTestPool(testContext(), os.Getenv("DATABASE_URL"), testSchemaName); err != nil {
		t.Fatalf("failed to re-init pool: %v", err)
	}
}

func TestSyncSchema(t *testing.T) {
	resetDatabase(t)

	searchPathURL, err := withSearchPath(os.Getenv("DATABASE_URL"), testSchemaName)
	if err != nil {
		t.Fatalf("withSearchPath failed: %v", err)
	}

	originalURL := poolURL
	poolURL = searchPathURL

	t.Cleanup(func() {
		poolURL = originalURL
	})

	if err := SyncSchema(testContext()); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}
}
