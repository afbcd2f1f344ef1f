package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/guard"
	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/dmitrijs2005/certportal/internal/common"
)

// loginView prompts for credentials. On success the dashboard is opened.
// An empty email leaves the page without contacting the backend.
func (a *App) loginView(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email (empty to cancel)", a.out)
	if err != nil {
		return err
	}
	if email == "" {
		return nil
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.session.Login(ctx, email, string(password))
	return a.afterAuth(ctx, res)
}

// registerView prompts for a new account. On success the user is logged
// in and the dashboard is opened.
func (a *App) registerView(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.session.Register(ctx, email, string(password), name)
	return a.afterAuth(ctx, res)
}

func (a *App) afterAuth(ctx context.Context, res session.Result) error {
	if !res.Success {
		a.println(res.Message)
		return nil
	}
	a.printf("Welcome, %s!\n", res.User.DisplayName())
	return a.Navigate(ctx, guard.PathDashboard, nil)
}

// Logout ends the session locally and opens the login page.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	a.println("Logged out")
	return a.Navigate(ctx, guard.PathLogin, nil)
}

// WhoAmI prints the current user and what is known about the stored token.
func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.session.Snapshot()
	switch {
	case snap.Loading:
		a.println("Loading...")
		return nil
	case snap.User == nil:
		a.println("Not logged in")
		return nil
	}

	u := snap.User
	a.printf("Email:         %s\n", u.Email)
	if u.Name != "" {
		a.printf("Name:          %s\n", u.Name)
	}
	a.printf("Role:          %s\n", u.Role)
	a.printf("Reward points: %d\n", u.RewardPoints)

	if info, ok := a.session.TokenInfo(ctx); ok && !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		a.printf("Token expires: %s (%s)\n", info.ExpiresAt.Local().Format(time.DateTime), state)
	}

	if a.savedAt != nil {
		if at, ok, err := a.savedAt(ctx); err == nil && ok {
			a.printf("Logged in at:  %s\n", at.Local().Format(time.DateTime))
		}
	}
	return nil
}

// Refresh re-reads the current user from the backend.
func (a *App) Refresh(ctx context.Context) error {
	u, err := a.session.Refresh(ctx)
	switch {
	case err == nil:
		a.printf("Reward points: %d\n", u.RewardPoints)
		return nil
	case errors.Is(err, session.ErrNotAuthenticated):
		a.println("Not logged in")
		return nil
	case errors.Is(err, session.ErrStale):
		a.println("Session changed, result discarded")
		return nil
	case errors.Is(err, client.ErrUnauthorized):
		a.println("Your session has expired, please log in again")
		return a.Navigate(ctx, guard.PathLogin, nil)
	default:
		a.println(client.ErrorMessage(err, "Could not refresh: "+err.Error()))
		return err
	}
}
