package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/config"
	"github.com/dmitrijs2005/certportal/internal/client/guard"
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/services"
	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/dmitrijs2005/certportal/internal/client/storage"
	"github.com/dmitrijs2005/certportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/certportal/internal/filex"
	"github.com/dmitrijs2005/certportal/internal/logging"
)

// sessionStore is the part of *session.Store the App uses.
type sessionStore interface {
	Snapshot() session.Snapshot
	Ready() <-chan struct{}
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password string) session.Result
	Register(ctx context.Context, email, password, name string) session.Result
	Logout(ctx context.Context)
	Refresh(ctx context.Context) (*models.User, error)
	TokenInfo(ctx context.Context) (session.TokenInfo, bool)
}

type certificateService interface {
	MyCertificates(ctx context.Context) ([]models.Certificate, error)
	Upload(ctx context.Context, path string) (*client.UploadResponse, error)
}

type adminService interface {
	List(ctx context.Context, page int) (*models.CertificatePage, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Verify(ctx context.Context, id string) error
	Reject(ctx context.Context, id, reason string) error
}

type App struct {
	session sessionStore
	certs   certificateService
	admin   adminService
	log     logging.Logger

	// savedAt reports when the stored token was written; nil when the
	// token store does not track it.
	savedAt func(ctx context.Context) (time.Time, bool, error)

	reader *bufio.Reader
	out    io.Writer

	views     map[string]view
	history   []string
	adminPage int

	db *sql.DB
}

// NewApp opens the session database at c.StoragePath and builds the
// client stack on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	path, err := filex.EnsureParentDir(c.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("preparing session storage: %w", err)
	}

	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	tokens := tokenstore.NewSQLiteStore(db)

	api, err := client.NewHTTPClient(c.ServerBaseURL, tokens, c.RequestTimeout, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sess := session.NewStore(api, tokens, log)

	a := newApp(sess,
		services.NewCertificateService(api, sess, log),
		services.NewAdminService(api, sess, log),
		log, bufio.NewReader(os.Stdin), os.Stdout)
	a.savedAt = tokens.SavedAt
	a.db = db
	return a, nil
}

func newApp(sess sessionStore, certs certificateService, admin adminService, log logging.Logger, r *bufio.Reader, w io.Writer) *App {
	a := &App{
		session:   sess,
		certs:     certs,
		admin:     admin,
		log:       log.With("component", "cli"),
		reader:    r,
		out:       w,
		adminPage: 1,
	}
	a.views = map[string]view{
		guard.PathHome:      a.homeView,
		guard.PathLogin:     a.loginView,
		guard.PathRegister:  a.registerView,
		guard.PathDashboard: a.dashboardView,
		guard.PathUpload:    a.uploadView,
		guard.PathAdmin:     a.adminView,
	}
	return a
}

// Run restores the session in the background and blocks in the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	go a.session.Bootstrap(ctx)

	a.println("Welcome to the vaccination certificate portal (type 'help' for commands)")
	_ = a.Navigate(ctx, guard.PathHome, nil)

	runREPL(ctx, a, a.status, a.reader, a.out)
}

// Close releases the session database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// status is the prompt decoration: who is logged in and where.
func (a *App) status() string {
	snap := a.session.Snapshot()

	who := "guest"
	switch {
	case snap.Loading:
		who = "loading"
	case snap.User != nil:
		who = fmt.Sprintf("%s %s", snap.User.Email, snap.User.Role)
	}
	return fmt.Sprintf("(%s) %s", who, a.current())
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
