package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/guard"
	"github.com/dmitrijs2005/certportal/internal/client/services"
	"github.com/dmitrijs2005/certportal/internal/client/session"
)

// adminView shows review statistics and one page of all certificates.
// An optional argument selects the page; otherwise the last one viewed.
func (a *App) adminView(ctx context.Context, args []string) error {
	page := a.adminPage
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			a.println("Usage: admin [page]")
			return nil
		}
		page = n
	}
	return a.renderAdmin(ctx, page)
}

func (a *App) renderAdmin(ctx context.Context, page int) error {
	if err := a.printStats(ctx); err != nil {
		return err
	}

	res, err := a.admin.List(ctx, page)
	if err != nil {
		return a.reportFetchError(ctx, "certificates", err)
	}
	a.adminPage = page

	if len(res.Certificates) == 0 {
		a.println("No certificates on this page.")
	} else {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSER\tFILE\tTYPE\tSTATUS\tUPLOADED")
		for _, c := range res.Certificates {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.ID, c.Owner, c.FileName, c.FileType, c.Status.Label(), formatDate(c.CreatedAt))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	pages := res.Pagination.Pages
	if pages < 1 {
		pages = 1
	}
	a.printf("Page %d of %d (%d total)\n", page, pages, res.Pagination.Total)
	return nil
}

// Stats prints the review counters. Admin only.
func (a *App) Stats(ctx context.Context) error {
	ok, err := a.authorize(ctx, guard.AccessAdminOnly)
	if !ok {
		return err
	}
	return a.printStats(ctx)
}

func (a *App) printStats(ctx context.Context) error {
	st, err := a.admin.Stats(ctx)
	if err != nil {
		return a.reportFetchError(ctx, "stats", err)
	}
	a.printf("Total: %d  Pending: %d  Verified: %d  Rejected: %d\n",
		st.Total, st.Pending, st.Verified, st.Rejected)
	return nil
}

// Verify approves a certificate and reloads the admin page. Admin only.
func (a *App) Verify(ctx context.Context, id string) error {
	ok, err := a.authorize(ctx, guard.AccessAdminOnly)
	if !ok {
		return err
	}

	if err := a.admin.Verify(ctx, id); err != nil {
		a.reportReviewError(ctx, err, services.MsgVerifyFailed)
		return nil
	}
	a.println(services.MsgVerified)
	return a.renderAdmin(ctx, a.adminPage)
}

// Reject turns a certificate down with reason, or the default reason when
// it is blank, and reloads the admin page. Admin only.
func (a *App) Reject(ctx context.Context, id, reason string) error {
	ok, err := a.authorize(ctx, guard.AccessAdminOnly)
	if !ok {
		return err
	}

	if err := a.admin.Reject(ctx, id, reason); err != nil {
		a.reportReviewError(ctx, err, services.MsgRejectFailed)
		return nil
	}
	a.println(services.MsgRejected)
	return a.renderAdmin(ctx, a.adminPage)
}

func (a *App) reportReviewError(ctx context.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		a.println("Invalid certificate id")
	case errors.Is(err, session.ErrStale):
		a.println("Session changed, result discarded")
	default:
		a.log.Warn(ctx, "review failed", "error", err)
		a.println(client.ErrorMessage(err, fallback))
	}
}
