// Package router maps application paths to routes, runs navigation guards
// and derives breadcrumbs.
//
// ROUTE TREE:
//
//	''                → redirect /home
//	home              Home
//	projects          Projects
//	  ''              (list)
//	  :id             Project Details   (label replaced by the project name)
//	about             About
//	contact           Contact           auth guard, unsaved-changes guard
//	login             Login
//	admin             Admin             auth guard, admin guard
//	oauth2/redirect   (callback)
//	**                Not Found
//
// MATCHING:
// A route's Path is one or more '/'-separated segments. A literal segment
// matches itself, ":name" matches any segment and captures it, "**" matches
// whatever is left. A route matches when its segments are a prefix of the
// URL and either nothing is left over or one of its children matches the
// rest. Routes are tried in order; the first match wins.
package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRoute is returned when no route matches and the table has no "**".
var ErrNoRoute = errors.New("no route matches")

// ErrRedirectLoop is returned when redirects do not settle.
var ErrRedirectLoop = errors.New("too many redirects")

const maxRedirects = 10

// Route is one node of the static route table.
type Route struct {
	Path       string
	RedirectTo string
	Breadcrumb string

	CanActivate   []Guard
	CanDeactivate []Guard

	Children []*Route
}

// ActivatedRoute is one level of a matched path: the route, the URL
// segments it consumed and the parameters it captured.
//
// The root is synthetic (Route is nil); each Child is one level deeper.
type ActivatedRoute struct {
	Route    *Route
	Segments []string
	Params   map[string]string
	Child    *ActivatedRoute
}

// URL is the matched path, e.g. "/projects/7".
func (a *ActivatedRoute) URL() string {
	var segs []string
	for r := a; r != nil; r = r.Child {
		segs = append(segs, r.Segments...)
	}
	return "/" + strings.Join(segs, "/")
}

// Leaf returns the deepest matched level.
func (a *ActivatedRoute) Leaf() *ActivatedRoute {
	r := a
	for r.Child != nil {
		r = r.Child
	}
	return r
}

// Param returns the value captured for name; a deeper level wins.
func (a *ActivatedRoute) Param(name string) (string, bool) {
	var found string
	ok := false
	for r := a; r != nil; r = r.Child {
		if v, has := r.Params[name]; has {
			found, ok = v, true
		}
	}
	return found, ok
}

// chain lists the non-root levels, outermost first.
func (a *ActivatedRoute) chain() []*ActivatedRoute {
	var out []*ActivatedRoute
	for r := a.Child; r != nil; r = r.Child {
		out = append(out, r)
	}
	return out
}

// Match resolves path against routes, following redirects.
func Match(routes []*Route, path string) (*ActivatedRoute, error) {
	for range maxRedirects {
		root := &ActivatedRoute{}
		child, ok := matchLevel(routes, splitPath(path))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoRoute, path)
		}
		root.Child = child

		if target := root.Leaf().Route.RedirectTo; target != "" {
			path = target
			continue
		}
		return root, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
}

func matchLevel(routes []*Route, segments []string) (*ActivatedRoute, bool) {
	for _, r := range routes {
		if a, ok := matchRoute(r, segments); ok {
			return a, true
		}
	}
	return nil, false
}

func matchRoute(r *Route, segments []string) (*ActivatedRoute, bool) {
	pattern := splitPath(r.Path)
	params := map[string]string{}
	consumed := 0

	for _, p := range pattern {
		if p == "**" {
			consumed = len(segments)
			break
		}
		if consumed >= len(segments) {
			return nil, false
		}
		s := segments[consumed]
		switch {
		case strings.HasPrefix(p, ":"):
			params[p[1:]] = s
		case p != s:
			return nil, false
		}
		consumed++
	}

	a := &ActivatedRoute{Route: r, Segments: segments[:consumed:consumed], Params: params}
	rest := segments[consumed:]

	if len(r.Children) > 0 {
		child, ok := matchLevel(r.Children, rest)
		if !ok {
			return nil, false
		}
		a.Child = child
		return a, true
	}
	if len(rest) > 0 {
		return nil, false
	}
	return a, true
}

// splitPath turns "/projects/7/" into ["projects" "7"] and "" or "/" into [].
// A query string or fragment is dropped.
func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
