package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jacrowe/clientbook/internal/config"
	"github.com/jacrowe/clientbook/internal/model"
	"github.com/jacrowe/clientbook/internal/utils"
)

func testKeys(t *testing.T) config.KeyPair {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return config.KeyPair{Private: key, Public: &key.PublicKey}
}

func accountHandler(users *fakeUsers, authn *fakeAuth, keys config.KeyPair, notify Notifier) *AccountHandler {
	return &AccountHandler{
		Users:      users,
		Auth:       authn,
		Keys:       keys,
		Hash:       cheapHash,
		ConfirmTTL: time.Hour,
		Log:        zerolog.Nop(),
		Notify:     notify,
	}
}

// principalCtx builds a context with the acting user already attached, as
// the auth gate would have done.
func principalCtx(method, path, body string, u model.User) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := jsonCtx(method, path, body)
	c.Set("principal", u)
	return c, rec
}

func TestChangePassword_RotatesDigest(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	h := accountHandler(users, &fakeAuth{}, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodPut, "/v1/account/password",
		`{"current_password":"hunter22","new_password":"correct horse"}`, u)
	require.NoError(t, h.ChangePassword(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "correct horse"))
	require.False(t, utils.VerifyPassword(stored.PasswordHash, "hunter22"))
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	h := accountHandler(users, &fakeAuth{}, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodPut, "/v1/account/password",
		`{"current_password":"guessed","new_password":"correct horse"}`, u)
	require.NoError(t, h.ChangePassword(c))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "current password")

	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "hunter22"))
}

func TestRequestEmailChange_IssuesBoundToken(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	keys := testKeys(t)
	notify := &fakeNotifier{}
	h := accountHandler(users, &fakeAuth{}, keys, notify)

	c, rec := principalCtx(http.MethodPost, "/v1/account/email",
		`{"new_email":"New@Example.com"}`, u)
	require.NoError(t, h.RequestEmailChange(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, notify.emailChanges, 1)
	ev := notify.emailChanges[0]
	require.Equal(t, "alice", ev.Username)
	require.Equal(t, "new@example.com", ev.NewEmail)

	// The queued token carries the acting user and the new address.
	claims, err := utils.VerifyToken(keys.Public, ev.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username())
	require.Equal(t, "new@example.com", claims.NewEmail)

	// Nothing changes until the token is confirmed.
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", stored.Email)
}

func TestConfirmEmailChange_AppliesEmbeddedAddress(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	keys := testKeys(t)
	h := accountHandler(users, &fakeAuth{}, keys, nil)

	tok, err := utils.NewEmailChangeToken(keys.Private, "alice", "new@example.com", time.Hour)
	require.NoError(t, err)

	c, rec := principalCtx(http.MethodPut, "/v1/account/email",
		`{"token":"`+tok.Token+`"}`, u)
	require.NoError(t, h.ConfirmEmailChange(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", stored.Email)
}

func TestConfirmEmailChange_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	keys := testKeys(t)
	h := accountHandler(users, &fakeAuth{}, keys, nil)

	foreign, err := utils.NewEmailChangeToken(keys.Private, "mallory", "new@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := utils.NewEmailChangeToken(keys.Private, "alice", "new@example.com", -time.Second)
	require.NoError(t, err)
	// An auth token has no email payload, so it cannot change the address.
	noPayload, err := utils.NewAuthToken(keys.Private, "alice", time.Hour)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":          "not.a.jwt",
		"foreign subject":  foreign.Token,
		"expired":          expired.Token,
		"no email payload": noPayload.Token,
	} {
		c, rec := principalCtx(http.MethodPut, "/v1/account/email",
			`{"token":"`+raw+`"}`, u)
		require.NoError(t, h.ConfirmEmailChange(c))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, name)
		require.Contains(t, rec.Body.String(), "invalid or has expired", name)
	}

	// No rejected token mutated the account.
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", stored.Email)
}

func TestConfirm_MarksAccountConfirmed(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	keys := testKeys(t)
	h := accountHandler(users, &fakeAuth{}, keys, nil)

	tok, err := utils.NewConfirmToken(keys.Private, "alice", time.Hour)
	require.NoError(t, err)

	c, rec := principalCtx(http.MethodPut, "/v1/account/confirm",
		`{"token":"`+tok.Token+`"}`, u)
	require.NoError(t, h.Confirm(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, stored.Confirmed)
}

func TestConfirm_RejectsForeignSubject(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	keys := testKeys(t)
	h := accountHandler(users, &fakeAuth{}, keys, nil)

	tok, err := utils.NewConfirmToken(keys.Private, "mallory", time.Hour)
	require.NoError(t, err)

	c, rec := principalCtx(http.MethodPut, "/v1/account/confirm",
		`{"token":"`+tok.Token+`"}`, u)
	require.NoError(t, h.Confirm(c))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, stored.Confirmed)
}

func TestDelete_SoftByDefault(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := accountHandler(users, authn, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodDelete, "/v1/account",
		`{"password":"hunter22"}`, u)
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []uint64{u.ID}, users.deleted)
	require.Empty(t, users.purged)
	require.Equal(t, 1, authn.cleared)
}

func TestDelete_PermanentRemovesRow(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := accountHandler(users, authn, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodDelete, "/v1/account",
		`{"password":"hunter22","permanent":true}`, u)
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []uint64{u.ID}, users.purged)
	require.Empty(t, users.deleted)
	require.Equal(t, 1, authn.cleared)
}

func TestDelete_WrongPasswordKeepsAccount(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := accountHandler(users, authn, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodDelete, "/v1/account",
		`{"password":"guessed"}`, u)
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Empty(t, users.deleted)
	require.Empty(t, users.purged)
	require.Zero(t, authn.cleared)
}

func TestUpdateProfile_OverwritesNames(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "alice", "hunter22")
	h := accountHandler(users, &fakeAuth{}, config.KeyPair{}, nil)

	c, rec := principalCtx(http.MethodPut, "/v1/account",
		`{"first_name":"Alice","last_name":"Liddell"}`, u)
	require.NoError(t, h.UpdateProfile(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", stored.FirstName)
	require.Equal(t, "Liddell", stored.LastName)
}
