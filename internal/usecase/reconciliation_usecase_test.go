package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/digipay/internal/domain"
)

func TestReconciliationUseCase_CleanLedger(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 100)
	bob := h.seed(t, "bob", domain.RoleUser, 0)
	ctx := context.Background()

	if _, err := h.transfers.Send(ctx, alice, bob.Subject(), dec("30")); err != nil {
		t.Fatalf("send: %v", err)
	}

	report, err := h.recon.Report(ctx, h.admin)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if report.TotalWallets != 3 || report.ReconciledWallets != 3 {
		t.Fatalf("total=%d reconciled=%d, want 3/3", report.TotalWallets, report.ReconciledWallets)
	}
	if report.NegativeBalances != 0 || len(report.Discrepancies) != 0 {
		t.Fatalf("unexpected discrepancies %+v", report.Discrepancies)
	}
}

func TestReconciliationUseCase_ReportRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 0)

	_, err := h.recon.Report(context.Background(), alice)
	assertKind(t, err, domain.KindForbidden)
}

func TestReconciliationUseCase_DetectsAndRepairsDrift(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 100)
	ctx := context.Background()

	if err := h.deps.profileRepo.SetBalance(ctx, alice.Subject(), dec("7"), time.Now()); err != nil {
		t.Fatalf("skew profile: %v", err)
	}

	report, err := h.recon.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("discrepancies = %d, want 1", len(report.Discrepancies))
	}
	d := report.Discrepancies[0]
	if d.OwnerID != alice.Subject() || len(d.DriftFields) != 1 || d.DriftFields[0] != "balance" {
		t.Fatalf("unexpected discrepancy %+v", d)
	}
	if got := testutil.ToFloat64(h.metrics.ProfileDrift); got != 1 {
		t.Fatalf("drift gauge = %v, want 1", got)
	}

	repaired, err := h.recon.RepairProfiles(ctx)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}

	profile, err := h.deps.profileRepo.Get(ctx, alice.Subject())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	assertBalance(t, profile.Balance, "100")

	logs, err := h.deps.auditRepo.List(ctx, domain.AuditFilter{Action: domain.AuditActionProfileRepair})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(logs) != 1 || logs[0].ActorID != "system" {
		t.Fatalf("unexpected audit trail %+v", logs)
	}

	report, err = h.recon.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("report after repair: %v", err)
	}
	if len(report.Discrepancies) != 0 {
		t.Fatalf("discrepancies after repair = %+v", report.Discrepancies)
	}
}

func TestReconciliationUseCase_MissingProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	ghost := &domain.Identity{ID: "ghost", Name: "ghost", Email: "ghost@example.com", Principal: domain.UserPrincipal{ID: "ghost"}}
	if err := h.deps.identityRepo.CreateTx(ctx, tx, ghost); err != nil {
		t.Fatalf("identity: %v", err)
	}
	if _, err := h.wallets.CreateWalletTx(ctx, tx, ghost.ID, nil); err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	report, err := h.recon.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Discrepancies) != 1 || report.Discrepancies[0].DriftFields[0] != "missing" {
		t.Fatalf("unexpected discrepancies %+v", report.Discrepancies)
	}

	repaired, err := h.recon.RepairProfiles(ctx)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("repaired = %d, want 0", repaired)
	}
}
