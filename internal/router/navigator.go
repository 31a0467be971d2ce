package router

import (
	"fmt"
	"log/slog"
	"sync"
)

// Navigation is the outcome of one Navigate call.
type Navigation struct {
	// Route is where the user is now: the target, a redirect's target, or
	// unchanged when the navigation was blocked.
	Route *ActivatedRoute
	// Blocked is true when a guard denied the move.
	Blocked bool
	// Redirects lists the paths guards sent the navigation to, in order.
	Redirects []string
}

// Navigator tracks the current route and moves between routes.
//
// ORDER OF CHECKS:
//
//  1. CanDeactivate guards of the current route, deepest level first.
//     Any Deny keeps the user where they are.
//  2. CanActivate guards of the target, outermost level first.
//     A RedirectTo starts over from step 2 with the new target;
//     a Deny keeps the user where they are.
//
// Leaving the current route is only checked once per call, even when the
// target redirects.
type Navigator struct {
	mu      sync.Mutex
	routes  []*Route
	current *ActivatedRoute
	logger  *slog.Logger
}

func NewNavigator(routes []*Route, logger *slog.Logger) *Navigator {
	return &Navigator{routes: routes, logger: logger}
}

// Current returns the active route, nil before the first navigation.
func (n *Navigator) Current() *ActivatedRoute {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to path if the guards agree.
func (n *Navigator) Navigate(path string) (Navigation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	stay := Navigation{Route: n.current, Blocked: true}

	if n.current != nil {
		levels := n.current.chain()
		for i := len(levels) - 1; i >= 0; i-- {
			for _, g := range levels[i].Route.CanDeactivate {
				if !g(levels[i]).Allowed() {
					n.logger.Debug("navigation blocked on leave",
						slog.String("from", n.current.URL()),
						slog.String("to", path),
					)
					return stay, nil
				}
			}
		}
	}

	var redirects []string
	for range maxRedirects {
		target, err := Match(n.routes, path)
		if err != nil {
			return stay, err
		}

		d := activate(target)
		if to, ok := d.Redirect(); ok {
			redirects = append(redirects, to)
			path = to
			continue
		}
		if d.Denied() {
			stay.Redirects = redirects
			return stay, nil
		}

		n.current = target
		n.logger.Debug("navigated", slog.String("url", target.URL()))
		return Navigation{Route: target, Redirects: redirects}, nil
	}
	return stay, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
}

func activate(target *ActivatedRoute) Decision {
	for _, level := range target.chain() {
		for _, g := range level.Route.CanActivate {
			if d := g(level); !d.Allowed() {
				return d
			}
		}
	}
	return Allow()
}
