package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/certportal/internal/client/guard"
)

// ErrUnknownRoute is returned when navigating to a path with no page.
var ErrUnknownRoute = errors.New("unknown route")

type view func(ctx context.Context, args []string) error

// Navigate opens the page at path, pushing it onto the history. The guard
// decides first; a redirect replaces the blocked entry with its target.
func (a *App) Navigate(ctx context.Context, path string, args []string) error {
	return a.open(ctx, path, args, false)
}

// Back returns to the previous page.
func (a *App) Back(ctx context.Context) error {
	if len(a.history) < 2 {
		a.println("No previous page")
		return nil
	}
	a.history = a.history[:len(a.history)-1]
	return a.open(ctx, a.current(), nil, true)
}

func (a *App) open(ctx context.Context, path string, args []string, replace bool) error {
	route, ok := guard.Lookup(path)
	if !ok {
		a.printf("Page not found: %s\n", path)
		return ErrUnknownRoute
	}

	d, err := a.decide(ctx, route.Access)
	if err != nil {
		return err
	}

	a.visit(route.Path, replace)

	if d.Outcome != guard.OutcomeRender {
		a.log.Debug(ctx, "navigation redirected", "from", route.Path, "to", d.Target, "outcome", d.Outcome.String())
		return a.open(ctx, d.Target, nil, d.Replace)
	}

	a.printf("== %s ==\n", route.Title)
	return a.views[route.Path](ctx, args)
}

// decide evaluates the guard, waiting out the startup bootstrap if the
// session is still loading.
func (a *App) decide(ctx context.Context, access guard.Access) (guard.Decision, error) {
	d := guard.Decide(a.session.Snapshot(), access)
	if d.Outcome != guard.OutcomeLoading {
		return d, nil
	}

	a.println("Loading...")
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return guard.Decision{}, ctx.Err()
	}
	return guard.Decide(a.session.Snapshot(), access), nil
}

// authorize checks access for a command that is not a page of its own.
// When the guard refuses, the redirect target is opened as a new page and
// false returned.
func (a *App) authorize(ctx context.Context, access guard.Access) (bool, error) {
	d, err := a.decide(ctx, access)
	if err != nil {
		return false, err
	}
	if d.Outcome == guard.OutcomeRender {
		return true, nil
	}
	return false, a.open(ctx, d.Target, nil, false)
}

func (a *App) visit(path string, replace bool) {
	if replace && len(a.history) > 0 {
		a.history[len(a.history)-1] = path
		return
	}
	a.history = append(a.history, path)
}

func (a *App) current() string {
	if len(a.history) == 0 {
		return guard.PathHome
	}
	return a.history[len(a.history)-1]
}
