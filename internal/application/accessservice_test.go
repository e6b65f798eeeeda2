package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
)

// --- Mock GrantStore for AccessService tests ---

type mockGrantStore struct {
	grants map[string]model.Grant // keyed by credentialID + "/" + userID
}

func newMockGrantStore() *mockGrantStore {
	return &mockGrantStore{grants: map[string]model.Grant{}}
}

func (m *mockGrantStore) Get(_ context.Context, credentialID, userID string) (*model.Grant, error) {
	g, ok := m.grants[credentialID+"/"+userID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *mockGrantStore) Upsert(_ context.Context, grant model.Grant) error {
	m.grants[grant.CredentialID+"/"+grant.UserID] = grant
	return nil
}

func (m *mockGrantStore) Delete(_ context.Context, credentialID, userID string) error {
	delete(m.grants, credentialID+"/"+userID)
	return nil
}

func (m *mockGrantStore) ListByCredential(_ context.Context, credentialID string) ([]model.Grant, error) {
	var out []model.Grant
	for _, g := range m.grants {
		if g.CredentialID == credentialID {
			out = append(out, g)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

var testAudit = model.AuditContext{ActorID: "test", RemoteAddr: "127.0.0.1"}

func ownedCredential(id, ownerID string) model.Credential {
	return model.Credential{ID: id, Title: "t", OwnerID: ownerID}
}

// --- Authorize ---

func TestAuthorize_OwnerHasAllRights(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	// A grant row for the owner must not exist, but even a hostile one with
	// both flags false would not matter: owner rights are derived.
	store.grants["c1/u1"] = model.Grant{CredentialID: "c1", UserID: "u1"}

	ok, err := svc.Authorize(context.Background(), cred, "u1", RightView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authorize(context.Background(), cred, "u1", RightEdit)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthorize_DefaultDeny(t *testing.T) {
	svc := NewAccessService(newMockGrantStore(), testLogger())
	cred := ownedCredential("c1", "u1")

	for _, right := range []Right{RightView, RightEdit} {
		ok, err := svc.Authorize(context.Background(), cred, "u2", right)
		require.NoError(t, err)
		assert.False(t, ok, "user without a grant row must be denied %s", right)
	}
}

func TestAuthorize_PartialGrant(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	store.grants["c1/u2"] = model.Grant{CredentialID: "c1", UserID: "u2", CanView: true, CanEdit: false}

	ok, err := svc.Authorize(context.Background(), cred, "u2", RightView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authorize(context.Background(), cred, "u2", RightEdit)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorize_EditDoesNotImplyView(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	store.grants["c1/u2"] = model.Grant{CredentialID: "c1", UserID: "u2", CanView: false, CanEdit: true}

	ok, err := svc.Authorize(context.Background(), cred, "u2", RightEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authorize(context.Background(), cred, "u2", RightView)
	require.NoError(t, err)
	assert.False(t, ok, "the flags are independent")
}

// --- Grant / Revoke ---

func TestGrant_OwnerOnly(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	err := svc.Grant(context.Background(), cred, "u2", "u3", true, false, testAudit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, store.grants, "rejected grant must not write")
}

func TestGrant_UpsertsFlags(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, cred, "u1", "u2", true, false, testAudit))
	require.NoError(t, svc.Grant(ctx, cred, "u1", "u2", true, true, testAudit))

	require.Len(t, store.grants, 1)
	g := store.grants["c1/u2"]
	assert.True(t, g.CanView)
	assert.True(t, g.CanEdit)
}

func TestGrant_ToOwnerRejected(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	err := svc.Grant(context.Background(), cred, "u1", "u1", true, true, testAudit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, store.grants, "owner rights are derived, never stored")
}

func TestRevoke_OwnerOnly(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	store.grants["c1/u2"] = model.Grant{CredentialID: "c1", UserID: "u2", CanView: true}

	err := svc.Revoke(context.Background(), cred, "u2", "u2", testAudit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Len(t, store.grants, 1, "rejected revoke must not delete")
}

func TestRevoke_DeletesGrant(t *testing.T) {
	store := newMockGrantStore()
	svc := NewAccessService(store, testLogger())
	cred := ownedCredential("c1", "u1")

	store.grants["c1/u2"] = model.Grant{CredentialID: "c1", UserID: "u2", CanView: true}

	require.NoError(t, svc.Revoke(context.Background(), cred, "u1", "u2", testAudit))
	assert.Empty(t, store.grants)
}

func TestRevoke_MissingGrantIsNoOp(t *testing.T) {
	svc := NewAccessService(newMockGrantStore(), testLogger())
	cred := ownedCredential("c1", "u1")

	err := svc.Revoke(context.Background(), cred, "u1", "u2", testAudit)
	assert.NoError(t, err)
}
