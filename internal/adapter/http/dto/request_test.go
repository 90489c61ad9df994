package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
)

func TestCreateIdentityRequest_ToUseCaseInput(t *testing.T) {
	opening := decimal.NewFromInt(10)

	tests := []struct {
		name     string
		request  CreateIdentityRequest
		wantRole domain.Role
	}{
		{
			name:     "defaults to user",
			request:  CreateIdentityRequest{Name: "Ann", Email: "ann@example.com"},
			wantRole: domain.RoleUser,
		},
		{
			name:     "normalises role",
			request:  CreateIdentityRequest{Name: "Bob", Email: "bob@example.com", Role: " Agent "},
			wantRole: domain.RoleAgent,
		},
		{
			name:     "keeps opening balance",
			request:  CreateIdentityRequest{Name: "Cy", Email: "cy@example.com", Role: "user", InitialBalance: &opening},
			wantRole: domain.RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.request.ToUseCaseInput()

			if got.Role != tt.wantRole {
				t.Fatalf("role = %q, want %q", got.Role, tt.wantRole)
			}
			if got.Name != tt.request.Name || got.Email != tt.request.Email {
				t.Fatalf("unexpected input %+v", got)
			}
			if got.InitialBalance != tt.request.InitialBalance {
				t.Fatalf("initial balance pointer not carried over")
			}
		})
	}
}

func TestAmountRequest_AcceptsStringAndNumber(t *testing.T) {
	for _, body := range []string{`{"amount":"10.25"}`, `{"amount":10.25}`} {
		var req AmountRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if !req.Amount.Equal(decimal.RequireFromString("10.25")) {
			t.Fatalf("amount = %s, want 10.25", req.Amount)
		}
	}
}

func TestBlockRequest_OmittedFlagToggles(t *testing.T) {
	var req BlockRequest
	if err := json.Unmarshal([]byte(`{}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Blocked != nil {
		t.Fatalf("expected nil flag, got %v", *req.Blocked)
	}

	if err := json.Unmarshal([]byte(`{"blocked":false}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Blocked == nil || *req.Blocked {
		t.Fatalf("expected explicit false")
	}
}
