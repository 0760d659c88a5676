package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/job"
	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/role"
	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/tenancy"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "letlog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetTenancyRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	endDate := now.AddDate(1, 0, 0)
	input := tenancy.Tenancy{
		ID:                 "ten-1",
		PropertyID:         "prop-1",
		LandlordID:         "landlord-1",
		LeadTenantID:       "tenant-1",
		SecondaryTenantIDs: []string{"tenant-2", "tenant-3"},
		StartDate:          now,
		EndDate:            &endDate,
		Status:             tenancy.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := store.PutTenancy(context.Background(), input); err != nil {
		t.Fatalf("put tenancy: %v", err)
	}

	got, err := store.GetTenancy(context.Background(), "ten-1")
	if err != nil {
		t.Fatalf("get tenancy: %v", err)
	}
	if got.Status != tenancy.StatusActive {
		t.Fatalf("status = %v, want active", got.Status)
	}
	if got.EndDate == nil || !got.EndDate.Equal(endDate) {
		t.Fatalf("end_date = %v, want %v", got.EndDate, endDate)
	}
	if got.EndedAt != nil {
		t.Fatalf("ended_at = %v, want nil", got.EndedAt)
	}
	if len(got.SecondaryTenantIDs) != 2 || got.SecondaryTenantIDs[1] != "tenant-3" {
		t.Fatalf("secondary tenants = %v", got.SecondaryTenantIDs)
	}
}

func TestGetTenancyNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetTenancy(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUpdateTenancyPersistsTransition(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	input := tenancy.Tenancy{
		ID:           "ten-1",
		PropertyID:   "prop-1",
		LandlordID:   "landlord-1",
		LeadTenantID: "tenant-1",
		StartDate:    now,
		Status:       tenancy.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutTenancy(context.Background(), input); err != nil {
		t.Fatalf("put tenancy: %v", err)
	}

	endedAt := now.AddDate(0, 6, 0)
	input.Status = tenancy.StatusEnded
	input.EndedAt = &endedAt
	input.UpdatedAt = endedAt
	if err := store.UpdateTenancy(context.Background(), input); err != nil {
		t.Fatalf("update tenancy: %v", err)
	}

	got, err := store.GetTenancy(context.Background(), "ten-1")
	if err != nil {
		t.Fatalf("get tenancy: %v", err)
	}
	if got.Status != tenancy.StatusEnded {
		t.Fatalf("status = %v, want ended", got.Status)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(endedAt) {
		t.Fatalf("ended_at = %v, want %v", got.EndedAt, endedAt)
	}

	if err := store.UpdateTenancy(context.Background(), tenancy.Tenancy{ID: "missing", Status: tenancy.StatusEnded}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing err = %v, want %v", err, storage.ErrNotFound)
	}
}

func pendingInvitation(id string, token string, email string, now time.Time) invitation.Invitation {
	return invitation.Invitation{
		ID:        id,
		Token:     token,
		TenancyID: "ten-1",
		Email:     email,
		InviterID: "landlord-1",
		Status:    invitation.StatusPending,
		IssuedAt:  now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPutInvitationDuplicatePending(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-1", "token-1", "a@example.com", now)); err != nil {
		t.Fatalf("put invitation: %v", err)
	}

	err := store.PutInvitation(context.Background(), pendingInvitation("inv-2", "token-2", "a@example.com", now))
	if !errors.Is(err, storage.ErrDuplicatePending) {
		t.Fatalf("duplicate pending err = %v, want %v", err, storage.ErrDuplicatePending)
	}

	// Other email for the same tenancy is fine.
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-3", "token-3", "b@example.com", now)); err != nil {
		t.Fatalf("put second invitation: %v", err)
	}
}

func TestPutInvitationAllowsReissueAfterTerminal(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	first := pendingInvitation("inv-1", "token-1", "a@example.com", now)
	if err := store.PutInvitation(context.Background(), first); err != nil {
		t.Fatalf("put invitation: %v", err)
	}
	if err := store.MarkInvitationExpired(context.Background(), "inv-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("mark expired: %v", err)
	}

	// The partial index only guards pending rows, so a fresh invitation
	// for the same pair succeeds once the first is terminal.
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-2", "token-2", "a@example.com", now)); err != nil {
		t.Fatalf("reissue after expiry: %v", err)
	}
}

func TestGetInvitationByToken(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-1", "token-1", "a@example.com", now)); err != nil {
		t.Fatalf("put invitation: %v", err)
	}

	got, err := store.GetInvitationByToken(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if got.ID != "inv-1" || got.Status != invitation.StatusPending {
		t.Fatalf("invitation = %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expires_at = %v", got.ExpiresAt)
	}

	if _, err := store.GetInvitationByToken(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing token err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestMarkInvitationAcceptedIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-1", "token-1", "a@example.com", now)); err != nil {
		t.Fatalf("put invitation: %v", err)
	}

	acceptedAt := now.Add(time.Hour)
	first, err := store.MarkInvitationAccepted(context.Background(), "inv-1", acceptedAt)
	if err != nil {
		t.Fatalf("mark accepted: %v", err)
	}
	if first.Status != invitation.StatusAccepted {
		t.Fatalf("status = %v, want accepted", first.Status)
	}
	if first.AcceptedAt == nil || !first.AcceptedAt.Equal(acceptedAt) {
		t.Fatalf("accepted_at = %v, want %v", first.AcceptedAt, acceptedAt)
	}

	// A retry with a later timestamp returns the stored record untouched.
	retry, err := store.MarkInvitationAccepted(context.Background(), "inv-1", acceptedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("retry mark accepted: %v", err)
	}
	if retry.AcceptedAt == nil || !retry.AcceptedAt.Equal(acceptedAt) {
		t.Fatalf("retry accepted_at = %v, want %v", retry.AcceptedAt, acceptedAt)
	}
}

func TestMarkInvitationAcceptedConflictsWithRevocation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := store.PutInvitation(context.Background(), pendingInvitation("inv-1", "token-1", "a@example.com", now)); err != nil {
		t.Fatalf("put invitation: %v", err)
	}
	if err := store.MarkInvitationRevoked(context.Background(), "inv-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark revoked: %v", err)
	}

	if _, err := store.MarkInvitationAccepted(context.Background(), "inv-1", now.Add(time.Hour)); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("accept revoked err = %v, want %v", err, storage.ErrConflict)
	}
}

func TestListPendingInvitationsExpiringBefore(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	soon := pendingInvitation("inv-1", "token-1", "a@example.com", now)
	soon.ExpiresAt = now.Add(time.Hour)
	later := pendingInvitation("inv-2", "token-2", "b@example.com", now)
	later.ExpiresAt = now.Add(48 * time.Hour)
	for _, inv := range []invitation.Invitation{soon, later} {
		if err := store.PutInvitation(context.Background(), inv); err != nil {
			t.Fatalf("put invitation %s: %v", inv.ID, err)
		}
	}

	due, err := store.ListPendingInvitationsExpiringBefore(context.Background(), now.Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(due) != 1 || due[0].ID != "inv-1" {
		t.Fatalf("due = %+v, want only inv-1", due)
	}

	// Once marked expired the row drops out of the sweep query.
	if err := store.MarkInvitationExpired(context.Background(), "inv-1", now.Add(2*time.Hour)); err != nil {
		t.Fatalf("mark expired: %v", err)
	}
	due, err = store.ListPendingInvitationsExpiringBefore(context.Background(), now.Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due after expiry = %+v, want none", due)
	}
}

func TestPutReviewRejectsSecondReview(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	first := review.Review{
		ID:         "rev-1",
		ReviewerID: "tenant-1",
		RevieweeID: "landlord-1",
		Kind:       review.KindLandlordReview,
		Rating:     4,
		SubRatings: review.SubRatings{Communication: 5, Reliability: 3},
		Text:       "Responsive and fair",
		TenancyID:  "ten-1",
		CreatedAt:  now,
	}
	if err := store.PutReview(context.Background(), first); err != nil {
		t.Fatalf("put review: %v", err)
	}

	has, err := store.HasReview(context.Background(), "tenant-1", "ten-1", review.KindLandlordReview)
	if err != nil {
		t.Fatalf("has review: %v", err)
	}
	if !has {
		t.Fatal("expected review to exist")
	}

	second := first
	second.ID = "rev-2"
	second.Rating = 1
	if err := store.PutReview(context.Background(), second); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("second review err = %v, want %v", err, storage.ErrAlreadyExists)
	}

	// Another kind against the same link is a distinct relationship.
	has, err = store.HasReview(context.Background(), "tenant-1", "ten-1", review.KindContractorReview)
	if err != nil {
		t.Fatalf("has review: %v", err)
	}
	if has {
		t.Fatal("contractor-review should not exist for this link")
	}
}

func TestPutGetJobRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	input := job.Job{
		ID:           "job-1",
		TenderID:     "tender-1",
		LandlordID:   "landlord-1",
		ContractorID: "contractor-1",
		TenderStatus: job.TenderStatusCompleted,
		QuoteStatus:  job.QuoteStatusAccepted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutJob(context.Background(), input); err != nil {
		t.Fatalf("put job: %v", err)
	}

	got, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if !got.IsCompleted() || !got.QuoteEngaged() {
		t.Fatalf("job = %+v, want completed and engaged", got)
	}
}

func TestPropertyAndUserRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := store.PutProperty(context.Background(), storage.Property{
		ID:         "prop-1",
		LandlordID: "landlord-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("put property: %v", err)
	}
	property, err := store.GetProperty(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if property.LandlordID != "landlord-1" {
		t.Fatalf("landlord_id = %q", property.LandlordID)
	}

	if err := store.PutUser(context.Background(), storage.User{
		ID:        "user-1",
		Role:      role.Contractor,
		Email:     "c@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put user: %v", err)
	}
	user, err := store.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Role != role.Contractor {
		t.Fatalf("role = %v, want contractor", user.Role)
	}
}

func TestAppendDecision(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	record := storage.DecisionRecord{
		ID:        "dec-1",
		Action:    "end_tenancy",
		ActorID:   "landlord-1",
		ActorRole: role.Landlord,
		Resource:  "ten-1",
		Allowed:   false,
		Code:      "OWNERSHIP_REQUIRED",
		DecidedAt: now,
	}
	if err := store.AppendDecision(context.Background(), record); err != nil {
		t.Fatalf("append decision: %v", err)
	}

	if err := store.AppendDecision(context.Background(), storage.DecisionRecord{Action: "x"}); err == nil {
		t.Fatal("expected missing id error")
	}
}
