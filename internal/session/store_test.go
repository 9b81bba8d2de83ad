package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAuth struct {
	mu sync.Mutex

	loginToken string
	loginUser  model.User
	loginErr   error

	meUser  model.User
	meErr   error
	meCalls int
	meToken string

	// meStarted and meGate, when set, hold CurrentUser until the test releases it.
	meStarted chan struct{}
	meGate    chan struct{}
}

func (f *fakeAuth) Login(_ context.Context, _ model.Credentials) (string, model.User, error) {
	if f.loginErr != nil {
		return "", model.User{}, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string) (model.User, error) {
	if f.meGate != nil {
		close(f.meStarted)
		<-f.meGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	f.meToken = token
	if f.meErr != nil {
		return model.User{}, f.meErr
	}
	return f.meUser, nil
}

func newStore(t *testing.T, a *fakeAuth, ts TokenStore) *Store {
	t.Helper()
	return NewStore(a, ts, zaptest.NewLogger(t))
}

func TestBootstrap_NoToken(t *testing.T) {
	a := &fakeAuth{}
	s := newStore(t, a, &MemoryTokenStore{})

	require.False(t, s.Resolved())
	s.Bootstrap(context.Background())

	require.True(t, s.Resolved())
	require.False(t, s.IsAuthenticated())
	require.Zero(t, a.meCalls)
}

func TestBootstrap_RestoresSession(t *testing.T) {
	ts := &MemoryTokenStore{}
	require.NoError(t, ts.Save("tok"))
	a := &fakeAuth{meUser: model.User{ID: "u1", Email: "jane@x.com"}}
	s := newStore(t, a, ts)

	s.Bootstrap(context.Background())

	require.True(t, s.IsAuthenticated())
	require.Equal(t, "tok", s.Token())
	require.Equal(t, "tok", a.meToken)
	u, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "u1", u.ID)
}

func TestBootstrap_RejectedTokenIsPurged(t *testing.T) {
	ts := &MemoryTokenStore{}
	require.NoError(t, ts.Save("stale"))
	a := &fakeAuth{meErr: errs.ErrUnauthorized}
	s := newStore(t, a, ts)

	s.Bootstrap(context.Background())

	require.True(t, s.Resolved())
	require.False(t, s.IsAuthenticated())
	_, err := ts.Load()
	require.ErrorIs(t, err, errs.ErrNoToken)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	ts := &MemoryTokenStore{}
	require.NoError(t, ts.Save("tok"))
	a := &fakeAuth{meUser: model.User{ID: "u1"}}
	s := newStore(t, a, ts)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Bootstrap(context.Background())
		}()
	}
	wg.Wait()

	select {
	case <-s.Ready():
	default:
		t.Fatal("ready must be closed")
	}
	require.Equal(t, 1, a.meCalls)
}

// bootstrapRacingLogin runs Bootstrap on the stale token, logs in while
// /auth/me is held, then lets /auth/me answer.
func bootstrapRacingLogin(t *testing.T, a *fakeAuth, ts TokenStore) *Store {
	t.Helper()
	a.meStarted, a.meGate = make(chan struct{}), make(chan struct{})
	a.loginToken, a.loginUser = "fresh", model.User{ID: "u2"}
	s := newStore(t, a, ts)

	go s.Bootstrap(context.Background())
	<-a.meStarted
	if _, err := s.Login(context.Background(), model.Credentials{Email: "jane@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(a.meGate)
	<-s.Ready()
	return s
}

func TestBootstrap_LateRejectionKeepsNewerLogin(t *testing.T) {
	ts := &MemoryTokenStore{}
	require.NoError(t, ts.Save("stale"))
	s := bootstrapRacingLogin(t, &fakeAuth{meErr: errs.ErrUnauthorized}, ts)

	require.True(t, s.IsAuthenticated())
	require.Equal(t, "fresh", s.Token())
	got, err := ts.Load()
	require.NoError(t, err)
	require.Equal(t, "fresh", got)
}

func TestBootstrap_LateSuccessKeepsNewerLogin(t *testing.T) {
	ts := &MemoryTokenStore{}
	require.NoError(t, ts.Save("stale"))
	s := bootstrapRacingLogin(t, &fakeAuth{meUser: model.User{ID: "u1"}}, ts)

	require.Equal(t, "fresh", s.Token())
	u, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "u2", u.ID)
}

func TestLogin_Success(t *testing.T) {
	ts := &MemoryTokenStore{}
	a := &fakeAuth{loginToken: "server-tok", loginUser: model.User{ID: "u1"}}
	s := newStore(t, a, ts)

	u, err := s.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.True(t, s.IsAuthenticated())

	stored, err := ts.Load()
	require.NoError(t, err)
	require.Equal(t, "server-tok", stored)
}

func TestLogin_FailureLeavesSessionUntouched(t *testing.T) {
	ts := &MemoryTokenStore{}
	a := &fakeAuth{loginToken: "t1", loginUser: model.User{ID: "u1"}}
	s := newStore(t, a, ts)
	_, err := s.Login(context.Background(), model.Credentials{})
	require.NoError(t, err)

	a.loginErr = errors.New("Invalid credentials")
	_, err = s.Login(context.Background(), model.Credentials{})
	require.EqualError(t, err, "Invalid credentials")
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "t1", s.Token())
}

func TestLogin_EmptyTokenIsRejected(t *testing.T) {
	a := &fakeAuth{loginUser: model.User{ID: "u1"}}
	s := newStore(t, a, &MemoryTokenStore{})
	_, err := s.Login(context.Background(), model.Credentials{})
	require.ErrorIs(t, err, errs.ErrTransport)
	require.False(t, s.IsAuthenticated())
}

func TestLogout_ClearsEverything(t *testing.T) {
	ts := &MemoryTokenStore{}
	s := newStore(t, &fakeAuth{}, ts)
	s.Establish("tok", model.User{ID: "u1"})
	require.True(t, s.IsAuthenticated())

	s.Logout()

	require.False(t, s.IsAuthenticated())
	require.Empty(t, s.Token())
	_, ok := s.User()
	require.False(t, ok)
	_, err := ts.Load()
	require.ErrorIs(t, err, errs.ErrNoToken)

	// second logout is harmless
	s.Logout()
}

func TestRefresh(t *testing.T) {
	ts := &MemoryTokenStore{}
	a := &fakeAuth{meUser: model.User{ID: "u1", CasesRemaining: 2}}
	s := newStore(t, a, ts)

	_, err := s.Refresh(context.Background())
	require.ErrorIs(t, err, errs.ErrNoToken)

	s.Establish("tok", model.User{ID: "u1", CasesRemaining: 5})
	u, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, u.CasesRemaining)
	cur, _ := s.User()
	require.Equal(t, 2, cur.CasesRemaining)

	a.meErr = errors.New("boom")
	_, err = s.Refresh(context.Background())
	require.Error(t, err)
	require.True(t, s.IsAuthenticated(), "transient failure keeps session")

	a.meErr = errs.ErrUnauthorized
	_, err = s.Refresh(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.False(t, s.IsAuthenticated())
}

func withTmpDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "appealkit")
}

func TestFileTokenStore_SaveLoadClear(t *testing.T) {
	dir := withTmpDir(t)
	fs := NewFileTokenStore(dir)

	if _, err := fs.Load(); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("want ErrNoToken for missing file, got %v", err)
	}
	if err := fs.Save("opaque"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st, err := os.Stat(fs.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode = %v, want 0600", st.Mode().Perm())
	}
	tok, err := fs.Load()
	if err != nil || tok != "opaque" {
		t.Fatalf("Load: %q %v", tok, err)
	}
	if err := fs.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := fs.Clear(); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
	if _, err := fs.Load(); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("want ErrNoToken after clear, got %v", err)
	}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestFileTokenStore_JWTExpiry(t *testing.T) {
	dir := withTmpDir(t)
	fs := NewFileTokenStore(dir)
	now := time.Now()
	fs.now = func() time.Time { return now }

	fresh := signed(t, now.Add(time.Hour))
	require.NoError(t, fs.Save(fresh))
	got, err := fs.Load()
	require.NoError(t, err)
	require.Equal(t, fresh, got)

	fs.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = fs.Load()
	require.ErrorIs(t, err, errs.ErrNoToken)
	_, statErr := os.Stat(fs.Path())
	require.True(t, os.IsNotExist(statErr), "expired token must be purged")
}

func TestFileTokenStore_CorruptFileIsPurged(t *testing.T) {
	dir := withTmpDir(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	fs := NewFileTokenStore(dir)
	require.NoError(t, os.WriteFile(fs.Path(), []byte("{not json"), 0o600))

	_, err := fs.Load()
	require.ErrorIs(t, err, errs.ErrNoToken)
	_, statErr := os.Stat(fs.Path())
	require.True(t, os.IsNotExist(statErr))
}
