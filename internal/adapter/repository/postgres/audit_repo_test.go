package postgres

import (
	"strings"
	"testing"

	"github.com/iho/digipay/internal/domain"
)

func TestBuildAuditQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildAuditQuery(domain.AuditFilter{
		ActorID:      "admin",
		ResourceType: domain.ResourceWallet,
		Limit:        10,
		Offset:       20,
	})

	for _, want := range []string{"actor_id = $1", "resource_type = $2", "LIMIT $3", "OFFSET $4"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q:\n%s", want, query)
		}
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestBuildAuditQueryWithoutFilters(t *testing.T) {
	query, args := buildAuditQuery(domain.AuditFilter{})

	if strings.Contains(query, "$") || len(args) != 0 {
		t.Fatalf("unexpected placeholders in %q with %v", query, args)
	}
}
