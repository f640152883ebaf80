package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jacrowe/clientbook/internal/model"
	"github.com/jacrowe/clientbook/internal/queue"
	"github.com/jacrowe/clientbook/internal/repository"
	"github.com/jacrowe/clientbook/internal/utils"
	"github.com/jacrowe/clientbook/internal/validation"
)

// cheapHash keeps argon2 fast enough for unit tests.
var cheapHash = utils.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// ----- fakes -----

type fakeUsers struct {
	byName  map[string]model.User
	nextID  uint64
	deleted []uint64 // soft
	purged  []uint64 // hard
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]model.User{}, nextID: 1}
}

func (f *fakeUsers) Create(_ context.Context, u model.User) (uint64, error) {
	if _, ok := f.byName[u.Username]; ok {
		return 0, repository.ErrUsernameExists
	}
	u.ID = f.nextID
	f.nextID++
	f.byName[u.Username] = u
	return u.ID, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) mutate(id uint64, fn func(*model.User)) error {
	for name, u := range f.byName {
		if u.ID == id {
			fn(&u)
			f.byName[name] = u
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uint64, firstName, lastName string) error {
	return f.mutate(id, func(u *model.User) { u.FirstName, u.LastName = firstName, lastName })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, digest string) error {
	return f.mutate(id, func(u *model.User) { u.PasswordHash = digest })
}

func (f *fakeUsers) UpdateEmail(_ context.Context, id uint64, email string) error {
	return f.mutate(id, func(u *model.User) { u.Email = email })
}

func (f *fakeUsers) Confirm(_ context.Context, id uint64) error {
	return f.mutate(id, func(u *model.User) { u.Confirmed = true })
}

func (f *fakeUsers) SoftDelete(_ context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) HardDelete(_ context.Context, id uint64) error {
	f.purged = append(f.purged, id)
	return nil
}

type fakeAuth struct {
	established []string
	cleared     int
}

func (f *fakeAuth) Establish(_ echo.Context, handle string) error {
	f.established = append(f.established, handle)
	return nil
}

func (f *fakeAuth) Clear(echo.Context) error {
	f.cleared++
	return nil
}

type fakeNotifier struct {
	registered   []queue.UserRegisteredEvent
	emailChanges []queue.EmailChangeRequestedEvent
	confirms     []queue.ConfirmRequestedEvent
}

func (f *fakeNotifier) UserRegistered(_ context.Context, ev queue.UserRegisteredEvent) {
	f.registered = append(f.registered, ev)
}

func (f *fakeNotifier) EmailChangeRequested(_ context.Context, ev queue.EmailChangeRequestedEvent) {
	f.emailChanges = append(f.emailChanges, ev)
}

func (f *fakeNotifier) ConfirmRequested(_ context.Context, ev queue.ConfirmRequestedEvent) {
	f.confirms = append(f.confirms, ev)
}

// jsonCtx builds an echo context carrying a JSON body, backed by a fresh
// echo instance with the request validator installed.
func jsonCtx(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validation.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// seedUser creates a stored user with a real digest of the given password.
func seedUser(t *testing.T, f *fakeUsers, username, password string) model.User {
	t.Helper()
	digest, err := utils.HashPassword(password, cheapHash)
	require.NoError(t, err)
	id, err := f.Create(context.Background(), model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: digest,
	})
	require.NoError(t, err)
	u := f.byName[username]
	u.ID = id
	return u
}

// ----- Register -----

func TestRegister_CreatesAndAuthenticates(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	authn := &fakeAuth{}
	notify := &fakeNotifier{}
	h := NewAuthHandler(users, authn, cheapHash, zerolog.Nop(), notify)

	c, rec := jsonCtx(http.MethodPost, "/v1/register",
		`{"username":"alice","email":"Alice@Example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/v1/account", rec.Header().Get(echo.HeaderLocation))
	require.Contains(t, rec.Body.String(), `"username":"alice"`)
	require.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)

	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "hunter22"))
	require.NotEqual(t, "hunter22", stored.PasswordHash)

	require.Equal(t, []string{"alice"}, authn.established)
	require.Len(t, notify.registered, 1)
	require.Equal(t, "alice", notify.registered[0].Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := NewAuthHandler(users, authn, cheapHash, zerolog.Nop(), nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/register",
		`{"username":"alice","email":"other@example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already exists")
	require.Empty(t, authn.established)
}

func TestRegister_ValidationFailure(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(newFakeUsers(), &fakeAuth{}, cheapHash, zerolog.Nop(), nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/register",
		`{"username":"al","email":"not-an-email","password":"x"}`)
	require.NoError(t, h.Register(c))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"username"`)
	require.Contains(t, body, `"email"`)
	require.Contains(t, body, `"password"`)
}

// ----- Login -----

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := NewAuthHandler(users, authn, cheapHash, zerolog.Nop(), nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/login",
		`{"username":"alice","password":"hunter22"}`)
	require.NoError(t, h.Login(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"alice"}, authn.established)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "alice", "hunter22")
	authn := &fakeAuth{}
	h := NewAuthHandler(users, authn, cheapHash, zerolog.Nop(), nil)

	// Unknown handle and wrong password must answer identically.
	bodies := []string{
		`{"username":"nobody","password":"hunter22"}`,
		`{"username":"alice","password":"wrong-password"}`,
	}
	var want string
	for _, body := range bodies {
		c, rec := jsonCtx(http.MethodPost, "/v1/login", body)
		require.NoError(t, h.Login(c))
		require.Equal(t, http.StatusUnauthorized, rec.Code, body)
		if want == "" {
			want = rec.Body.String()
		}
		require.Equal(t, want, rec.Body.String(), body)
	}
	require.Empty(t, authn.established)
}

// ----- Logout -----

func TestLogout_ClearsCredential(t *testing.T) {
	t.Parallel()

	authn := &fakeAuth{}
	h := NewAuthHandler(newFakeUsers(), authn, cheapHash, zerolog.Nop(), nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/logout", "")
	require.NoError(t, h.Logout(c))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 1, authn.cleared)
}
