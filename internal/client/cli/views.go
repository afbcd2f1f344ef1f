package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/guard"
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/services"
	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/dmitrijs2005/certportal/internal/client/upload"
)

func (a *App) homeView(_ context.Context, _ []string) error {
	a.println("Upload your vaccination certificate and get it verified by our team.")
	a.println("Verified certificates earn reward points.")

	if snap := a.session.Snapshot(); snap.User != nil {
		a.printf("Logged in as %s. Type 'dashboard' to see your certificates.\n", snap.User.DisplayName())
		return nil
	}
	a.println("Type 'login' to sign in or 'register' to create an account.")
	return nil
}

// dashboardView lists the user's own certificates.
func (a *App) dashboardView(ctx context.Context, _ []string) error {
	snap := a.session.Snapshot()
	if snap.User == nil {
		return nil
	}
	a.printf("Welcome, %s!\n", snap.User.DisplayName())
	a.printf("Reward points: %d\n", snap.User.RewardPoints)

	certs, err := a.certs.MyCertificates(ctx)
	if err != nil {
		return a.reportFetchError(ctx, "certificates", err)
	}

	if models.HasVerified(certs) {
		a.println(services.MsgHasVerified)
	}
	if len(certs) == 0 {
		a.println("No certificates uploaded yet. Type 'upload <path>' to add one.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tTYPE\tSTATUS\tUPLOADED\tNOTE")
	for _, c := range certs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.FileName, c.FileType, c.Status.Label(), formatDate(c.CreatedAt), c.RejectionReason)
	}
	return tw.Flush()
}

// uploadView sends a certificate file. The path comes from the first
// argument or a prompt. On success the dashboard is opened.
func (a *App) uploadView(ctx context.Context, args []string) error {
	path := strings.Join(args, " ")
	if path == "" {
		a.println("PDF or image files (JPEG, PNG, GIF) up to 10MB")
		p, err := getSimpleText(a.reader, "Enter path to certificate file", a.out)
		if err != nil {
			return err
		}
		path = p
	}

	resp, err := a.certs.Upload(ctx, path)
	if err != nil {
		switch {
		case upload.Message(err) != "":
			a.println(upload.Message(err))
		case errors.Is(err, session.ErrStale):
			a.println("Session changed during upload, result discarded")
		default:
			a.println(client.ErrorMessage(err, services.MsgUploadFailed))
			a.log.Warn(ctx, "upload failed", "error", err)
		}
		return nil
	}

	a.println(resp.Message)
	return a.Navigate(ctx, guard.PathDashboard, nil)
}

// reportFetchError prints a failed read. Stale results are dropped quietly.
func (a *App) reportFetchError(ctx context.Context, what string, err error) error {
	if errors.Is(err, session.ErrStale) {
		a.log.Debug(ctx, "stale response dropped", "what", what)
		return nil
	}
	a.log.Warn(ctx, "fetching failed", "what", what, "error", err)
	a.printf("Error fetching %s: %s\n", what, client.ErrorMessage(err, err.Error()))
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}
