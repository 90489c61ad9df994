package postgres

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestMigratorRejectsBadDatabaseURL(t *testing.T) {
	m := NewMigrator("not-a-url", t.TempDir(), zerolog.Nop())

	if err := m.Up(); err == nil {
		t.Fatal("expected error for invalid database URL")
	}
	if _, _, err := m.Version(); err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
