package httpapi

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aarons2222/letlog/internal/identity"
	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/tenancy"
)

const (
	testIssuer   = "https://id.letlog.test"
	testAudience = "letlog-api"
)

func testClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

// fakeEngine allows route checks and replies to everything else with a
// scripted decision.
type fakeEngine struct {
	decision policy.Decision
	err      error
	requests []policy.Request
}

func (f *fakeEngine) Decide(_ context.Context, req policy.Request) (policy.Decision, error) {
	f.requests = append(f.requests, req)
	if req.Action == policy.ActionAccessRoute {
		return policy.Decision{Allowed: true}, nil
	}
	return f.decision, f.err
}

type fakeStore struct {
	tenancies      map[string]tenancy.Tenancy
	invitations    map[string]invitation.Invitation // keyed by ID
	expiredMarked  []string
	acceptedMarked []string
	reviews        []review.Review
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenancies:   map[string]tenancy.Tenancy{},
		invitations: map[string]invitation.Invitation{},
	}
}

func (f *fakeStore) PutTenancy(_ context.Context, t tenancy.Tenancy) error {
	f.tenancies[t.ID] = t
	return nil
}

func (f *fakeStore) GetTenancy(_ context.Context, id string) (tenancy.Tenancy, error) {
	t, ok := f.tenancies[id]
	if !ok {
		return tenancy.Tenancy{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) UpdateTenancy(_ context.Context, t tenancy.Tenancy) error {
	if _, ok := f.tenancies[t.ID]; !ok {
		return storage.ErrNotFound
	}
	f.tenancies[t.ID] = t
	return nil
}

func (f *fakeStore) PutInvitation(_ context.Context, inv invitation.Invitation) error {
	for _, existing := range f.invitations {
		if existing.Email == inv.Email && existing.TenancyID == inv.TenancyID && existing.Status == invitation.StatusPending {
			return storage.ErrDuplicatePending
		}
	}
	f.invitations[inv.ID] = inv
	return nil
}

func (f *fakeStore) GetInvitationByToken(_ context.Context, token string) (invitation.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return invitation.Invitation{}, storage.ErrNotFound
}

func (f *fakeStore) FindPendingInvitation(_ context.Context, email string, tenancyID string) (invitation.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Email == email && inv.TenancyID == tenancyID && inv.Status == invitation.StatusPending {
			return inv, nil
		}
	}
	return invitation.Invitation{}, storage.ErrNotFound
}

func (f *fakeStore) MarkInvitationAccepted(_ context.Context, invitationID string, acceptedAt time.Time) (invitation.Invitation, error) {
	inv, ok := f.invitations[invitationID]
	if !ok {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	if inv.Status == invitation.StatusPending {
		inv.Status = invitation.StatusAccepted
		inv.AcceptedAt = &acceptedAt
		f.invitations[invitationID] = inv
	}
	f.acceptedMarked = append(f.acceptedMarked, invitationID)
	return inv, nil
}

func (f *fakeStore) MarkInvitationExpired(_ context.Context, invitationID string, _ time.Time) error {
	inv, ok := f.invitations[invitationID]
	if !ok {
		return storage.ErrNotFound
	}
	inv.Status = invitation.StatusExpired
	f.invitations[invitationID] = inv
	f.expiredMarked = append(f.expiredMarked, invitationID)
	return nil
}

func (f *fakeStore) MarkInvitationRevoked(_ context.Context, invitationID string, _ time.Time) error {
	inv, ok := f.invitations[invitationID]
	if !ok {
		return storage.ErrNotFound
	}
	inv.Status = invitation.StatusRevoked
	f.invitations[invitationID] = inv
	return nil
}

func (f *fakeStore) ListPendingInvitationsExpiringBefore(_ context.Context, cutoff time.Time, _ int) ([]invitation.Invitation, error) {
	var due []invitation.Invitation
	for _, inv := range f.invitations {
		if inv.Status == invitation.StatusPending && inv.ExpiresAt.Before(cutoff) {
			due = append(due, inv)
		}
	}
	return due, nil
}

func (f *fakeStore) PutReview(_ context.Context, r review.Review) error {
	for _, existing := range f.reviews {
		if existing.ReviewerID == r.ReviewerID && existing.LinkID() == r.LinkID() && existing.Kind == r.Kind {
			return storage.ErrAlreadyExists
		}
	}
	f.reviews = append(f.reviews, r)
	return nil
}

func (f *fakeStore) HasReview(_ context.Context, reviewerID string, linkID string, kind review.Kind) (bool, error) {
	for _, existing := range f.reviews {
		if existing.ReviewerID == reviewerID && existing.LinkID() == linkID && existing.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

type testAPI struct {
	handler *Handler
	engine  *fakeEngine
	store   *fakeStore
	mux     *http.ServeMux
	private ed25519.PrivateKey
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	engine := &fakeEngine{}
	store := newFakeStore()
	handler := NewHandler(HandlerOptions{
		Engine: engine,
		Store:  store,
		Identity: identity.Config{
			Issuer:   testIssuer,
			Audience: testAudience,
			Key:      public,
			Now:      testClock,
		},
		Now: testClock,
	})
	mux := http.NewServeMux()
	handler.Register(mux)
	return &testAPI{handler: handler, engine: engine, store: store, mux: mux, private: private}
}

func (a *testAPI) bearer(t *testing.T, subject string, roleLabel string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":  testIssuer,
		"aud":  testAudience,
		"sub":  subject,
		"role": roleLabel,
		"exp":  testClock().Add(time.Hour).Unix(),
		"iat":  testClock().Add(-time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(a.private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func (a *testAPI) do(t *testing.T, method string, path string, body string, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	a.mux.ServeHTTP(recorder, req)
	return recorder
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/up", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}

func TestEndTenancyRequiresActor(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/tenancies/ten-1/end", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestEndTenancyRejectsInvalidToken(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/tenancies/ten-1/end", "", "Bearer not-a-token")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestEndTenancyPersistsDecision(t *testing.T) {
	api := newTestAPI(t)
	endedAt := testClock()
	ended := tenancy.Tenancy{
		ID:         "ten-1",
		PropertyID: "prop-1",
		LandlordID: "landlord-1",
		Status:     tenancy.StatusEnded,
		EndedAt:    &endedAt,
	}
	api.store.tenancies["ten-1"] = tenancy.Tenancy{ID: "ten-1", Status: tenancy.StatusActive}
	api.engine.decision = policy.Decision{Allowed: true, Tenancy: &ended}

	resp := api.do(t, http.MethodPost, "/tenancies/ten-1/end", "", api.bearer(t, "landlord-1", "landlord"))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if api.store.tenancies["ten-1"].Status != tenancy.StatusEnded {
		t.Fatalf("stored status = %v, want ended", api.store.tenancies["ten-1"].Status)
	}
}

func TestEndTenancyOwnershipDenialHidesResource(t *testing.T) {
	api := newTestAPI(t)
	api.engine.decision = policy.Decision{Code: "OWNERSHIP_REQUIRED", Reason: "not yours"}

	resp := api.do(t, http.MethodPost, "/tenancies/ten-1/end", "", api.bearer(t, "landlord-2", "landlord"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "NOT_FOUND" || body.Reason != "" {
		t.Fatalf("body = %+v, want anonymized NOT_FOUND", body)
	}
}

func TestIssueInvitation(t *testing.T) {
	api := newTestAPI(t)
	api.store.tenancies["ten-1"] = tenancy.Tenancy{ID: "ten-1", Status: tenancy.StatusActive}
	issued := invitation.Invitation{
		ID:        "inv-1",
		Token:     "secret-token",
		TenancyID: "ten-1",
		Email:     "a@example.com",
		InviterID: "landlord-1",
		Status:    invitation.StatusPending,
		ExpiresAt: testClock().Add(7 * 24 * time.Hour),
	}
	api.engine.decision = policy.Decision{Allowed: true, Invitation: &issued}

	resp := api.do(t, http.MethodPost, "/tenancies/ten-1/invitations",
		`{"email":"a@example.com"}`, api.bearer(t, "landlord-1", "landlord"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}
	if _, ok := api.store.invitations["inv-1"]; !ok {
		t.Fatal("invitation was not persisted")
	}
	var body invitationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != "inv-1" || body.Status != "pending" {
		t.Fatalf("body = %+v", body)
	}
}

func TestAcceptInvitationPersistsExpiry(t *testing.T) {
	api := newTestAPI(t)
	expired := invitation.Invitation{
		ID:        "inv-1",
		Token:     "stale-token",
		TenancyID: "ten-1",
		Email:     "a@example.com",
		Status:    invitation.StatusExpired,
		ExpiresAt: testClock().Add(-time.Hour),
	}
	api.store.invitations["inv-1"] = invitation.Invitation{
		ID:        "inv-1",
		Token:     "stale-token",
		TenancyID: "ten-1",
		Email:     "a@example.com",
		Status:    invitation.StatusPending,
		ExpiresAt: testClock().Add(-time.Hour),
	}
	api.engine.decision = policy.Decision{Code: "INVITATION_EXPIRED", Invitation: &expired}

	resp := api.do(t, http.MethodPost, "/invitations/accept", `{"token":"stale-token"}`, "")
	if resp.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410: %s", resp.Code, resp.Body.String())
	}
	if len(api.store.expiredMarked) != 1 || api.store.expiredMarked[0] != "inv-1" {
		t.Fatalf("expired marks = %v, want [inv-1]", api.store.expiredMarked)
	}
}

func TestAcceptInvitation(t *testing.T) {
	api := newTestAPI(t)
	acceptedAt := testClock()
	accepted := invitation.Invitation{
		ID:         "inv-1",
		Token:      "fresh-token",
		TenancyID:  "ten-1",
		Email:      "a@example.com",
		Status:     invitation.StatusAccepted,
		AcceptedAt: &acceptedAt,
		ExpiresAt:  testClock().Add(time.Hour),
	}
	api.store.invitations["inv-1"] = invitation.Invitation{
		ID:        "inv-1",
		Token:     "fresh-token",
		TenancyID: "ten-1",
		Email:     "a@example.com",
		Status:    invitation.StatusPending,
		ExpiresAt: testClock().Add(time.Hour),
	}
	api.store.tenancies["ten-1"] = tenancy.Tenancy{ID: "ten-1", Status: tenancy.StatusPending}
	activated := tenancy.Tenancy{ID: "ten-1", Status: tenancy.StatusActive}
	api.engine.decision = policy.Decision{Allowed: true, Invitation: &accepted, Tenancy: &activated}

	resp := api.do(t, http.MethodPost, "/invitations/accept", `{"token":"fresh-token"}`, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if api.store.invitations["inv-1"].Status != invitation.StatusAccepted {
		t.Fatal("invitation was not marked accepted")
	}
	if api.store.tenancies["ten-1"].Status != tenancy.StatusActive {
		t.Fatal("tenancy was not activated")
	}
}

func TestInvitationLookupReportsExpiry(t *testing.T) {
	api := newTestAPI(t)
	api.store.invitations["inv-1"] = invitation.Invitation{
		ID:        "inv-1",
		Token:     "old-token",
		TenancyID: "ten-1",
		Email:     "a@example.com",
		Status:    invitation.StatusPending,
		ExpiresAt: testClock().Add(-time.Minute),
	}

	resp := api.do(t, http.MethodGet, "/invitations/old-token", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body invitationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "expired" {
		t.Fatalf("status = %q, want expired", body.Status)
	}

	missing := api.do(t, http.MethodGet, "/invitations/unknown", "", "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing token status = %d, want 404", missing.Code)
	}
}

func TestCreateReview(t *testing.T) {
	api := newTestAPI(t)
	api.engine.decision = policy.Decision{Allowed: true, ReviewKind: review.KindLandlordReview, RevieweeID: "landlord-1"}

	resp := api.do(t, http.MethodPost, "/reviews",
		`{"tenancy_id":"ten-1","rating":4,"communication":5}`,
		api.bearer(t, "tenant-1", "tenant"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}
	if len(api.store.reviews) != 1 {
		t.Fatalf("reviews = %d, want 1", len(api.store.reviews))
	}
	stored := api.store.reviews[0]
	if stored.Kind != review.KindLandlordReview || stored.ReviewerID != "tenant-1" {
		t.Fatalf("review = %+v", stored)
	}
	if stored.RevieweeID != "landlord-1" {
		t.Fatalf("reviewee = %s, want landlord-1", stored.RevieweeID)
	}

	// The unique index backstops a duplicate that slipped past the engine.
	dup := api.do(t, http.MethodPost, "/reviews",
		`{"tenancy_id":"ten-1","rating":4}`,
		api.bearer(t, "tenant-1", "tenant"))
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", dup.Code)
	}
}

func TestCreateReviewIgnoresClientReviewee(t *testing.T) {
	api := newTestAPI(t)
	api.engine.decision = policy.Decision{Allowed: true, ReviewKind: review.KindLandlordReview, RevieweeID: "landlord-1"}

	resp := api.do(t, http.MethodPost, "/reviews",
		`{"tenancy_id":"ten-1","reviewee_id":"victim-9","rating":4}`,
		api.bearer(t, "tenant-1", "tenant"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", resp.Code, resp.Body.String())
	}
	if len(api.store.reviews) != 0 {
		t.Fatalf("reviews = %d, want 0", len(api.store.reviews))
	}
}

func TestReviewEligibility(t *testing.T) {
	api := newTestAPI(t)
	api.engine.decision = policy.Decision{
		Code:       "REVIEW_WINDOW_CLOSED",
		Reason:     "The review window closed 35 days ago",
		ReviewKind: review.KindLandlordReview,
	}

	resp := api.do(t, http.MethodGet, "/tenancies/ten-1/review-eligibility", "", api.bearer(t, "tenant-1", "tenant"))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body eligibilityResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Eligible {
		t.Fatal("expected ineligible")
	}
	if body.Code != "REVIEW_WINDOW_CLOSED" || body.Reason == "" {
		t.Fatalf("body = %+v", body)
	}
}
