package router

import "time"

// MsgLoginRequired is shown when a guarded page is opened without a session.
const MsgLoginRequired = "Please log in to continue."

type decisionKind int

const (
	allow decisionKind = iota
	redirect
	deny
)

// Decision is a guard's verdict: go ahead, go somewhere else, or stay put.
type Decision struct {
	kind   decisionKind
	target string
}

func Allow() Decision { return Decision{kind: allow} }

func RedirectTo(path string) Decision { return Decision{kind: redirect, target: path} }

func Deny() Decision { return Decision{kind: deny} }

func (d Decision) Allowed() bool { return d.kind == allow }
func (d Decision) Denied() bool  { return d.kind == deny }

// Redirect returns the target path when the decision is a redirect.
func (d Decision) Redirect() (string, bool) {
	return d.target, d.kind == redirect
}

// Guard decides whether a navigation may enter (CanActivate) or leave
// (CanDeactivate) a route. It receives the level of the matched path it is
// attached to.
type Guard func(route *ActivatedRoute) Decision

// Viewer answers who is navigating.
type Viewer interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Notifier shows a transient message.
type Notifier interface {
	Error(message string, duration ...time.Duration) string
}

// AuthGuard sends anonymous visitors to /login with a notice.
func AuthGuard(v Viewer, n Notifier) Guard {
	return func(*ActivatedRoute) Decision {
		if v.IsAuthenticated() {
			return Allow()
		}
		n.Error(MsgLoginRequired)
		return RedirectTo("/login")
	}
}

// AdminGuard sends non-admins home.
func AdminGuard(v Viewer) Guard {
	return func(*ActivatedRoute) Decision {
		if v.IsAdmin() {
			return Allow()
		}
		return RedirectTo("/home")
	}
}

// DirtyForm is a form that can hold unsaved input.
type DirtyForm interface {
	Dirty() bool
	LeavePrompt() string
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// UnsavedChangesGuard lets the user leave a clean form freely and asks
// before discarding a dirty one.
func UnsavedChangesGuard(f DirtyForm, confirm ConfirmFunc) Guard {
	return func(*ActivatedRoute) Decision {
		if !f.Dirty() || confirm(f.LeavePrompt()) {
			return Allow()
		}
		return Deny()
	}
}

// Guards are the guard instances the route table is built with. A nil guard
// is left out.
type Guards struct {
	Auth         Guard
	Admin        Guard
	ContactLeave Guard
}

// Routes builds the application's route table.
func Routes(g Guards) []*Route {
	return []*Route{
		{Path: "", RedirectTo: "/home"},
		{Path: "home", Breadcrumb: "Home"},
		{
			Path:       "projects",
			Breadcrumb: "Projects",
			Children: []*Route{
				{Path: ""},
				{Path: ":id", Breadcrumb: ProjectDetailsLabel},
			},
		},
		{Path: "about", Breadcrumb: "About"},
		{
			Path:          "contact",
			Breadcrumb:    "Contact",
			CanActivate:   guards(g.Auth),
			CanDeactivate: guards(g.ContactLeave),
		},
		{Path: "login", Breadcrumb: "Login"},
		{
			Path:        "admin",
			Breadcrumb:  "Admin",
			CanActivate: guards(g.Auth, g.Admin),
		},
		{Path: "oauth2/redirect"},
		{Path: "**", Breadcrumb: "Not Found"},
	}
}

func guards(gs ...Guard) []Guard {
	var out []Guard
	for _, g := range gs {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}
