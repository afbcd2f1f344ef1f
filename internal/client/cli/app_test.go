package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/config"
	"github.com/dmitrijs2005/certportal/internal/client/guard"
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/services"
	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/dmitrijs2005/certportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/certportal/internal/client/upload"
	"github.com/dmitrijs2005/certportal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

var (
	alice = &models.User{ID: "u1", Email: "alice@example.org", Name: "Alice", Role: models.RoleUser, RewardPoints: 10}
	root  = &models.User{ID: "u2", Email: "root@example.org", Role: models.RoleAdmin}
)

type fakeAuth struct {
	mu sync.Mutex

	me      *models.User
	meErr   error
	meGate  chan struct{}
	meCalls int

	loginUser  *models.User
	loginErr   error
	loginCalls int
}

func (f *fakeAuth) Me(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	f.meCalls++
	gate := f.meGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.me.Clone(), f.meErr
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &client.AuthResponse{Token: "tok-" + email, User: f.loginUser.Clone()}, nil
}

func (f *fakeAuth) Register(ctx context.Context, email, password, name string) (*client.AuthResponse, error) {
	return &client.AuthResponse{Token: "tok-new", User: &models.User{ID: "u9", Email: email, Name: name, Role: models.RoleUser}}, nil
}

type fakeCerts struct {
	certs     []models.Certificate
	err       error
	calls     int
	uploadRes *client.UploadResponse
	uploadErr error
	uploaded  []string
}

func (f *fakeCerts) MyCertificates(ctx context.Context) ([]models.Certificate, error) {
	f.calls++
	return f.certs, f.err
}

func (f *fakeCerts) Upload(ctx context.Context, path string) (*client.UploadResponse, error) {
	f.uploaded = append(f.uploaded, path)
	return f.uploadRes, f.uploadErr
}

type fakeAdmin struct {
	page      *models.CertificatePage
	stats     *models.Stats
	err       error
	listCalls int
	gotPage   int
	verified  []string
	rejected  map[string]string
}

func (f *fakeAdmin) List(ctx context.Context, page int) (*models.CertificatePage, error) {
	f.listCalls++
	f.gotPage = page
	if f.page == nil {
		return &models.CertificatePage{}, f.err
	}
	return f.page, f.err
}

func (f *fakeAdmin) Stats(ctx context.Context) (*models.Stats, error) {
	if f.stats == nil {
		return &models.Stats{}, nil
	}
	return f.stats, nil
}

func (f *fakeAdmin) Verify(ctx context.Context, id string) error {
	f.verified = append(f.verified, id)
	return f.err
}

func (f *fakeAdmin) Reject(ctx context.Context, id, reason string) error {
	if f.rejected == nil {
		f.rejected = map[string]string{}
	}
	f.rejected[id] = reason
	return f.err
}

// syncBuffer is a bytes.Buffer safe for a concurrent writer and reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ---- helpers ----

type harness struct {
	app    *App
	out    *syncBuffer
	auth   *fakeAuth
	tokens *tokenstore.MemoryStore
	sess   *session.Store
	certs  *fakeCerts
	admin  *fakeAdmin
}

// newHarness builds an App over a real session store. Passwords are read
// from the same input as everything else.
func newHarness(t *testing.T, auth *fakeAuth, token string, input ...string) *harness {
	t.Helper()

	old := getPassword
	getPassword = func(r *bufio.Reader, w io.Writer) ([]byte, error) {
		line, err := readLine(r)
		return []byte(line), err
	}
	t.Cleanup(func() { getPassword = old })

	h := &harness{
		out:    &syncBuffer{},
		auth:   auth,
		tokens: tokenstore.NewMemoryStore(token),
		certs:  &fakeCerts{},
		admin:  &fakeAdmin{},
	}
	h.sess = session.NewStore(auth, h.tokens, logging.Discard())
	reader := bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n"))
	h.app = newApp(h.sess, h.certs, h.admin, logging.Discard(), reader, h.out)
	return h
}

// loggedIn returns a harness whose session was restored for u.
func loggedIn(t *testing.T, u *models.User, input ...string) *harness {
	t.Helper()
	h := newHarness(t, &fakeAuth{me: u}, "stored-token", input...)
	h.sess.Bootstrap(context.Background())
	require.NotNil(t, h.sess.Snapshot().User)
	return h
}

func loggedOut(t *testing.T, auth *fakeAuth, input ...string) *harness {
	t.Helper()
	h := newHarness(t, auth, "", input...)
	h.sess.Bootstrap(context.Background())
	return h
}

// ---- navigation through the guard ----

func TestNavigate_GuestIsSentToLoginAndLandsOnDashboard(t *testing.T) {
	h := loggedOut(t, &fakeAuth{loginUser: alice}, "alice@example.org", "pw")

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathDashboard, nil))

	assert.Equal(t, []string{guard.PathLogin, guard.PathDashboard}, h.app.history)
	assert.Equal(t, 1, h.auth.loginCalls)
	assert.Equal(t, 1, h.certs.calls)
	assert.Contains(t, h.out.String(), "Welcome, Alice!")

	tok, _ := h.tokens.Load(context.Background())
	assert.Equal(t, "tok-alice@example.org", tok)
}

func TestNavigate_StandardUserOnAdminLandsOnDashboard(t *testing.T) {
	h := loggedIn(t, alice)
	ctx := context.Background()

	require.NoError(t, h.app.Navigate(ctx, guard.PathHome, nil))
	require.NoError(t, h.app.Navigate(ctx, guard.PathAdmin, nil))

	assert.Equal(t, []string{guard.PathHome, guard.PathDashboard}, h.app.history)
	assert.Zero(t, h.admin.listCalls)
	assert.NotContains(t, h.out.String(), "Admin Dashboard")
	assert.Contains(t, h.out.String(), "My Certificates")
}

func TestNavigate_AdminSeesConsole(t *testing.T) {
	h := loggedIn(t, root)
	h.admin.stats = &models.Stats{Total: 25, Pending: 5, Verified: 15, Rejected: 5}
	h.admin.page = &models.CertificatePage{
		Certificates: []models.Certificate{{ID: "c1", FileName: "vax.pdf", FileType: models.FileTypePDF, Status: models.StatusPending, Owner: "bob@example.org"}},
		Pagination:   models.Pagination{Total: 25, Pages: 3},
	}

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathAdmin, []string{"2"}))

	out := h.out.String()
	assert.Equal(t, 2, h.admin.gotPage)
	assert.Contains(t, out, "Total: 25  Pending: 5  Verified: 15  Rejected: 5")
	assert.Contains(t, out, "bob@example.org")
	assert.Contains(t, out, "Page 2 of 3 (25 total)")
	assert.Equal(t, []string{guard.PathAdmin}, h.app.history)
}

func TestNavigate_AdminBadPage(t *testing.T) {
	h := loggedIn(t, root)

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathAdmin, []string{"zero"}))
	assert.Contains(t, h.out.String(), "Usage: admin [page]")
	assert.Zero(t, h.admin.listCalls)
}

func TestNavigate_WaitsForBootstrap(t *testing.T) {
	auth := &fakeAuth{me: alice, meGate: make(chan struct{})}
	h := newHarness(t, auth, "stored-token")
	ctx := context.Background()

	go h.sess.Bootstrap(ctx)

	done := make(chan error, 1)
	go func() { done <- h.app.Navigate(ctx, guard.PathDashboard, nil) }()

	require.Eventually(t, func() bool { return strings.Contains(h.out.String(), "Loading...") },
		time.Second, 5*time.Millisecond)
	assert.Zero(t, h.certs.calls)

	close(auth.meGate)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("navigation did not resume after bootstrap")
	}
	assert.Equal(t, []string{guard.PathDashboard}, h.app.history)
	assert.Contains(t, h.out.String(), "Welcome, Alice!")
}

func TestNavigate_LoadingHonoursContext(t *testing.T) {
	h := newHarness(t, &fakeAuth{}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.app.Navigate(ctx, guard.PathUpload, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.app.history)
}

func TestNavigate_PublicPagesRenderWhileLoading(t *testing.T) {
	h := newHarness(t, &fakeAuth{}, "")

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathHome, nil))
	assert.NotContains(t, h.out.String(), "Loading...")
	assert.Contains(t, h.out.String(), "Type 'login'")
}

func TestNavigate_UnknownRoute(t *testing.T) {
	h := loggedOut(t, &fakeAuth{})

	err := h.app.Navigate(context.Background(), "/settings", nil)
	require.ErrorIs(t, err, ErrUnknownRoute)
	assert.Contains(t, h.out.String(), "Page not found: /settings")
}

func TestBack(t *testing.T) {
	h := loggedIn(t, alice)
	ctx := context.Background()

	require.NoError(t, h.app.Back(ctx))
	assert.Contains(t, h.out.String(), "No previous page")

	require.NoError(t, h.app.Navigate(ctx, guard.PathHome, nil))
	require.NoError(t, h.app.Navigate(ctx, guard.PathDashboard, nil))
	require.NoError(t, h.app.Back(ctx))

	assert.Equal(t, []string{guard.PathHome}, h.app.history)
}

func TestBack_ReevaluatesGuard(t *testing.T) {
	h := loggedIn(t, alice, "")
	ctx := context.Background()

	require.NoError(t, h.app.Navigate(ctx, guard.PathDashboard, nil))
	require.NoError(t, h.app.Navigate(ctx, guard.PathHome, nil))
	h.sess.Logout(ctx)

	require.NoError(t, h.app.Back(ctx))
	assert.Equal(t, []string{guard.PathLogin}, h.app.history)
}

// ---- auth commands ----

func TestLogin_FailureShowsBackendMessage(t *testing.T) {
	h := loggedOut(t, &fakeAuth{loginErr: client.NewAPIError(401, "Invalid credentials")}, "alice@example.org", "wrong")

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathLogin, nil))

	assert.Contains(t, h.out.String(), "Invalid credentials")
	assert.Equal(t, []string{guard.PathLogin}, h.app.history)
	assert.Nil(t, h.sess.Snapshot().User)
}

func TestLogin_EmptyEmailCancels(t *testing.T) {
	h := loggedOut(t, &fakeAuth{loginUser: alice}, "")

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathLogin, nil))
	assert.Zero(t, h.auth.loginCalls)
}

func TestRegister_LogsInAndOpensDashboard(t *testing.T) {
	h := loggedOut(t, &fakeAuth{}, "Bob", "bob@example.org", "pw")

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathRegister, nil))

	assert.Equal(t, "bob@example.org", h.sess.Snapshot().User.Email)
	assert.Equal(t, []string{guard.PathRegister, guard.PathDashboard}, h.app.history)
	assert.Contains(t, h.out.String(), "Welcome, Bob!")
}

func TestLogout_ClearsSessionAndOpensLogin(t *testing.T) {
	h := loggedIn(t, alice, "")
	ctx := context.Background()

	require.NoError(t, h.app.Navigate(ctx, guard.PathDashboard, nil))
	require.NoError(t, h.app.Logout(ctx))

	tok, _ := h.tokens.Load(ctx)
	assert.Empty(t, tok)
	assert.Nil(t, h.sess.Snapshot().User)
	assert.Equal(t, guard.PathLogin, h.app.current())
	assert.Contains(t, h.app.status(), "guest")
}

func TestWhoAmI(t *testing.T) {
	h := loggedIn(t, root)
	h.app.savedAt = func(context.Context) (time.Time, bool, error) { return time.Now(), true, nil }

	require.NoError(t, h.app.WhoAmI(context.Background()))
	out := h.out.String()
	assert.Contains(t, out, "root@example.org")
	assert.Contains(t, out, "Role:          admin")
	assert.Contains(t, out, "Logged in at:")

	g := loggedOut(t, &fakeAuth{})
	require.NoError(t, g.app.WhoAmI(context.Background()))
	assert.Contains(t, g.out.String(), "Not logged in")
}

func TestRefresh(t *testing.T) {
	h := loggedIn(t, alice, "")
	ctx := context.Background()

	h.auth.me = &models.User{ID: "u1", Email: alice.Email, Role: models.RoleUser, RewardPoints: 20}
	require.NoError(t, h.app.Refresh(ctx))
	assert.Contains(t, h.out.String(), "Reward points: 20")

	h.auth.meErr = client.NewAPIError(401, "")
	require.NoError(t, h.app.Refresh(ctx))
	assert.Contains(t, h.out.String(), "please log in again")
	assert.Equal(t, guard.PathLogin, h.app.current())
	assert.Nil(t, h.sess.Snapshot().User)

	require.NoError(t, h.app.Refresh(ctx))
	assert.Contains(t, h.out.String(), "Not logged in")
}

// ---- certificates ----

func TestDashboard_ListsAndCelebratesVerified(t *testing.T) {
	h := loggedIn(t, alice)
	h.certs.certs = []models.Certificate{
		{ID: "c1", FileName: "first.pdf", FileType: models.FileTypePDF, Status: models.StatusVerified},
		{ID: "c2", FileName: "second.png", FileType: models.FileTypeImage, Status: models.StatusRejected, RejectionReason: "blurry"},
	}

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathDashboard, nil))

	out := h.out.String()
	assert.Contains(t, out, services.MsgHasVerified)
	assert.Contains(t, out, "Reward points: 10")
	assert.Contains(t, out, "second.png")
	assert.Contains(t, out, "blurry")
}

func TestDashboard_Empty(t *testing.T) {
	h := loggedIn(t, alice)

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathDashboard, nil))
	assert.Contains(t, h.out.String(), "No certificates uploaded yet")
	assert.NotContains(t, h.out.String(), services.MsgHasVerified)
}

func TestDashboard_StaleResultIsDropped(t *testing.T) {
	h := loggedIn(t, alice)
	h.certs.err = session.ErrStale

	require.NoError(t, h.app.Navigate(context.Background(), guard.PathDashboard, nil))
	assert.NotContains(t, h.out.String(), "Error fetching")
}

func TestUpload(t *testing.T) {
	t.Run("validation message, stays on page", func(t *testing.T) {
		h := loggedIn(t, alice)
		h.certs.uploadErr = fmt.Errorf("wrapped: %w", upload.ErrFileTooLarge)

		require.NoError(t, h.app.Navigate(context.Background(), guard.PathUpload, []string{"big.pdf"}))
		assert.Contains(t, h.out.String(), upload.MsgFileTooLarge)
		assert.Equal(t, []string{guard.PathUpload}, h.app.history)
	})

	t.Run("backend message wins over fallback", func(t *testing.T) {
		h := loggedIn(t, alice)
		h.certs.uploadErr = client.NewAPIError(400, "Only PDF and image files are allowed")

		require.NoError(t, h.app.Navigate(context.Background(), guard.PathUpload, []string{"a.pdf"}))
		assert.Contains(t, h.out.String(), "Only PDF and image files are allowed")
	})

	t.Run("fallback message", func(t *testing.T) {
		h := loggedIn(t, alice)
		h.certs.uploadErr = client.ErrUnavailable

		require.NoError(t, h.app.Navigate(context.Background(), guard.PathUpload, []string{"a.pdf"}))
		assert.Contains(t, h.out.String(), services.MsgUploadFailed)
	})

	t.Run("success opens dashboard", func(t *testing.T) {
		h := loggedIn(t, alice, "/tmp/my cert.pdf")
		h.certs.uploadRes = &client.UploadResponse{Message: services.MsgUploaded}

		require.NoError(t, h.app.Navigate(context.Background(), guard.PathUpload, nil))
		assert.Equal(t, []string{"/tmp/my cert.pdf"}, h.certs.uploaded)
		assert.Contains(t, h.out.String(), services.MsgUploaded)
		assert.Equal(t, []string{guard.PathUpload, guard.PathDashboard}, h.app.history)
	})
}

// ---- admin commands ----

func TestVerify_StandardUserIsRedirected(t *testing.T) {
	h := loggedIn(t, alice)

	require.NoError(t, h.app.Verify(context.Background(), "c1"))
	assert.Empty(t, h.admin.verified)
	assert.Equal(t, guard.PathDashboard, h.app.current())
}

func TestVerify_AdminReloadsConsole(t *testing.T) {
	h := loggedIn(t, root)

	require.NoError(t, h.app.Verify(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, h.admin.verified)
	assert.Contains(t, h.out.String(), services.MsgVerified)
	assert.Equal(t, 1, h.admin.listCalls)
}

func TestReject_Messages(t *testing.T) {
	h := loggedIn(t, root)
	ctx := context.Background()

	require.NoError(t, h.app.Reject(ctx, "c1", "blurry scan"))
	assert.Equal(t, "blurry scan", h.admin.rejected["c1"])
	assert.Contains(t, h.out.String(), services.MsgRejected)

	h.admin.err = client.NewAPIError(500, "")
	require.NoError(t, h.app.Reject(ctx, "c2", ""))
	assert.Contains(t, h.out.String(), services.MsgRejectFailed)

	h.admin.err = services.ErrInvalidID
	require.NoError(t, h.app.Reject(ctx, "a/b", ""))
	assert.Contains(t, h.out.String(), "Invalid certificate id")
}

func TestStats_GuestIsSentToLogin(t *testing.T) {
	h := loggedOut(t, &fakeAuth{}, "")

	require.NoError(t, h.app.Stats(context.Background()))
	assert.Equal(t, guard.PathLogin, h.app.current())
}

// ---- menu, help, run ----

func TestMenu(t *testing.T) {
	u := loggedIn(t, alice)
	require.NoError(t, u.app.Menu(context.Background()))
	assert.Contains(t, u.out.String(), guard.PathUpload)
	assert.NotContains(t, u.out.String(), guard.PathAdmin)

	a := loggedIn(t, root)
	require.NoError(t, a.app.Menu(context.Background()))
	assert.Contains(t, a.out.String(), guard.PathAdmin)

	g := loggedOut(t, &fakeAuth{})
	require.NoError(t, g.app.Menu(context.Background()))
	assert.Contains(t, g.out.String(), guard.PathRegister)
	assert.NotContains(t, g.out.String(), guard.PathDashboard)
}

func TestHelp(t *testing.T) {
	u := loggedIn(t, alice)
	require.NoError(t, u.app.Help(context.Background()))
	assert.NotContains(t, u.out.String(), "verify")

	a := loggedIn(t, root)
	require.NoError(t, a.app.Help(context.Background()))
	assert.Contains(t, a.out.String(), "verify <id>")
}

func TestStatus(t *testing.T) {
	h := newHarness(t, &fakeAuth{me: root}, "stored-token")
	assert.Equal(t, "(loading) /", h.app.status())

	h.sess.Bootstrap(context.Background())
	assert.Equal(t, "(root@example.org admin) /", h.app.status())
}

func TestRun_ExitsOnCommand(t *testing.T) {
	h := newHarness(t, &fakeAuth{}, "", "help", "exit")

	h.app.Run(context.Background())

	<-h.sess.Ready()
	out := h.out.String()
	assert.Contains(t, out, "Welcome to the vaccination certificate portal")
	assert.Contains(t, out, "Available commands")
	assert.Contains(t, out, "Bye!")
}

func TestNewApp(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoragePath = filepath.Join(t.TempDir(), "session.db")

	app, err := NewApp(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, app.savedAt)
	require.NoError(t, app.Close())

	cfg.ServerBaseURL = "ftp://example.org"
	_, err = NewApp(ctx, cfg, logging.Discard())
	require.Error(t, err)
}
