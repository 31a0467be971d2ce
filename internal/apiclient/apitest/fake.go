// Package apitest runs an in-memory imitation of the portfolio REST API for
// tests. It speaks the same routes and JSON shapes as the real server, keeps
// its state in maps, and records every request so tests can assert on headers.
//
//	api := apitest.New(t)
//	api.AddUser("tok-admin", model.User{ID: 1, Role: model.RoleAdmin}, "a@b.com", "pw")
//	client := apiclient.New(api.BaseURL(), tokens)
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portfolio/internal/model"
)

// Request is one recorded call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
}

type account struct {
	password string
	token    string
	user     model.User
}

type failure struct {
	status  int
	message string
}

// Server is the fake API. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	projects  map[int64]model.Project
	ratings   map[int64]model.Rating
	photos    map[int64]model.Photo
	tokens    map[string]model.User
	accounts  map[string]account
	failures  map[string]failure
	requests  []Request
	contacts  []model.ContactRequest
	contactOK model.ContactResponse
	nextID    int64
}

// New starts the server and stops it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		projects:  make(map[int64]model.Project),
		ratings:   make(map[int64]model.Rating),
		photos:    make(map[int64]model.Photo),
		tokens:    make(map[string]model.User),
		accounts:  make(map[string]account),
		failures:  make(map[string]failure),
		contactOK: model.ContactResponse{Success: true, Message: "Thank you for your message!"},
		nextID:    100,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root clients should be pointed at.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v1"
}

// AddUser registers an account reachable both by bearer token and by
// email/password login.
func (s *Server) AddUser(token string, user model.User, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email == "" {
		user.Email = email
	}
	s.tokens[token] = user
	if email != "" {
		s.accounts[email] = account{password: password, token: token, user: user}
	}
}

// AddProject seeds a project; a zero ID is assigned.
func (s *Server) AddProject(p model.Project) model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.projects[p.ID] = p
	return p
}

// AddRating seeds a rating and refreshes the project's aggregates.
func (s *Server) AddRating(r model.Rating) model.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.ratings[r.ID] = r
	s.reaggregate(r.ProjectID)
	return r
}

// Project returns the stored project.
func (s *Server) Project(id int64) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	return p, ok
}

// ProjectCount is the number of stored projects.
func (s *Server) ProjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects)
}

// Photos returns every stored photo.
func (s *Server) Photos() []model.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Photo, 0, len(s.photos))
	for _, p := range s.photos {
		out = append(out, p)
	}
	return out
}

// RatingCount is the number of stored ratings for a project.
func (s *Server) RatingCount(projectID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projectRatings(projectID))
}

// Contacts returns the submitted contact messages.
func (s *Server) Contacts() []model.ContactRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ContactRequest(nil), s.contacts...)
}

// SetContactResponse changes the body POST /contact answers with.
func (s *Server) SetContactResponse(resp model.ContactResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactOK = resp
}

// Fail makes every request matching "METHOD /path" (path relative to the API
// root, e.g. "GET /projects") answer with status and message.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Requests returns a copy of every recorded call.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded calls with the given method and API-relative path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.record)

		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Get("/projects", s.listProjects)
		r.Get("/projects/{id}", s.getProject)
		r.With(s.requireAdmin).Post("/projects", s.createProject)
		r.With(s.requireAdmin).Put("/projects/{id}", s.updateProject)
		r.With(s.requireAdmin).Delete("/projects/{id}", s.deleteProject)

		r.With(s.requireUser).Post("/ratings", s.createRating)
		r.With(s.requireUser).Get("/ratings/my-ratings", s.myRatings)
		r.With(s.requireUser).Put("/ratings/{id}", s.updateRating)
		r.With(s.requireUser).Delete("/ratings/{id}", s.deleteRating)
		r.Get("/ratings/project/{id}", s.listRatings)
		r.With(s.requireAdmin).Delete("/ratings/project/{id}", s.resetRatings)
		r.Get("/ratings/project/{id}/average", s.averageRating)
		r.Get("/ratings/project/{id}/count", s.ratingCount)
		r.Get("/ratings/project/{id}/distribution", s.distribution)
		r.With(s.requireUser).Get("/ratings/project/{id}/has-rated", s.hasRated)

		r.With(s.requireAdmin).Post("/photos", s.savePhoto)
		r.With(s.requireUser).Put("/photos/profile", s.uploadPhoto)
		r.With(s.requireAdmin).Put("/photos/{id}", s.uploadPhoto)
		r.With(s.requireAdmin).Delete("/photos/{id}", s.deletePhoto)

		r.Post("/contact", s.contact)
	})
	return r
}

// ---- middleware ----

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1")

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		f, failing := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) (model.User, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return model.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.tokens[token]
	return u, ok
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.currentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if u.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---- auth ----

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResponse{Token: acc.token, User: acc.user, ExpiresIn: 3600000})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	user := model.User{ID: s.id(), Email: req.Email, Name: req.Name, Role: model.RoleUser}
	token := "tok-" + strconv.FormatInt(user.ID, 10)
	s.accounts[req.Email] = account{password: req.Password, token: token, user: user}
	s.tokens[token] = user
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, model.AuthResponse{Token: token, User: user, ExpiresIn: 3600000})
}

// ---- projects ----

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	s.mu.Unlock()

	sortProjects(out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, found := s.Project(id)
	if !found {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	p := applyInput(model.Project{ID: s.id()}, in)
	s.projects[p.ID] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.ProjectInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	existing, found := s.projects[id]
	if !found {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	p := applyInput(existing, in)
	s.projects[id] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.projects[id]
	delete(s.projects, id)
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- ratings ----

func (s *Server) listRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := s.projectRatings(id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myRatings(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	s.mu.Lock()
	out := []model.Rating{}
	for _, rt := range s.ratings {
		if rt.UserID == u.ID {
			out = append(out, rt)
		}
	}
	s.mu.Unlock()
	sortRatings(out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) averageRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	avg, _ := aggregate(s.projectRatings(id))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]float64{"averageRating": avg})
}

func (s *Server) ratingCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	n := len(s.projectRatings(id))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) distribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	dist := map[int]int{}
	for _, rt := range s.projectRatings(id) {
		dist[rt.Rating]++
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, dist)
}

func (s *Server) hasRated(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, _ := s.currentUser(r)
	s.mu.Lock()
	rated := false
	for _, rt := range s.projectRatings(id) {
		if rt.UserID == u.ID {
			rated = true
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"hasRated": rated})
}

func (s *Server) createRating(w http.ResponseWriter, r *http.Request) {
	var in model.RatingCreate
	if !readJSON(w, r, &in) {
		return
	}
	if in.Rating < model.MinStars || in.Rating > model.MaxStars {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	u, _ := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.projects[in.ProjectID]; !found {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	for _, rt := range s.projectRatings(in.ProjectID) {
		if rt.UserID == u.ID {
			writeError(w, http.StatusConflict, "You have already rated this project")
			return
		}
	}
	rt := model.Rating{ID: s.id(), UserID: u.ID, ProjectID: in.ProjectID, Rating: in.Rating, Comment: in.Comment}
	s.ratings[rt.ID] = rt
	s.reaggregate(rt.ProjectID)
	writeJSON(w, http.StatusCreated, rt)
}

func (s *Server) updateRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.RatingUpdate
	if !readJSON(w, r, &in) {
		return
	}
	u, _ := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	rt, found := s.ratings[id]
	if !found {
		writeError(w, http.StatusNotFound, "Rating not found")
		return
	}
	if rt.UserID != u.ID {
		writeError(w, http.StatusForbidden, "You can only edit your own rating")
		return
	}
	if in.Rating != nil {
		rt.Rating = *in.Rating
	}
	if in.Comment != nil {
		rt.Comment = *in.Comment
	}
	s.ratings[id] = rt
	s.reaggregate(rt.ProjectID)
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) deleteRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, _ := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	rt, found := s.ratings[id]
	if !found {
		writeError(w, http.StatusNotFound, "Rating not found")
		return
	}
	if rt.UserID != u.ID && u.Role != model.RoleAdmin {
		writeError(w, http.StatusForbidden, "You can only delete your own rating")
		return
	}
	delete(s.ratings, id)
	s.reaggregate(rt.ProjectID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	for rid, rt := range s.ratings {
		if rt.ProjectID == id {
			delete(s.ratings, rid)
		}
	}
	s.reaggregate(id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// ---- photos ----

func (s *Server) savePhoto(w http.ResponseWriter, r *http.Request) {
	var in model.PhotoInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.projects[in.ProjectID]
	if !found {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	photo := model.Photo{ID: s.id(), PhotoURL: in.PhotoURL, ProjectID: in.ProjectID}
	s.photos[photo.ID] = photo
	p.PhotoURLs = append(p.PhotoURLs, in.PhotoURL)
	s.projects[p.ID] = p
	writeJSON(w, http.StatusCreated, photo)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing photo")
		return
	}
	defer file.Close()
	io.Copy(io.Discard, file)

	var projectID int64
	if raw := chi.URLParam(r, "id"); raw != "" {
		projectID, _ = strconv.ParseInt(raw, 10, 64)
	}

	s.mu.Lock()
	photo := model.Photo{ID: s.id(), PhotoURL: "https://files.example.com/" + header.Filename, ProjectID: projectID}
	s.photos[photo.ID] = photo
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, photo)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.photos[id]
	delete(s.photos, id)
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Photo not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- contact ----

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var in model.ContactRequest
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	s.contacts = append(s.contacts, in)
	resp := s.contactOK
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// ---- helpers (call with s.mu held where they touch state) ----

func (s *Server) projectRatings(projectID int64) []model.Rating {
	out := []model.Rating{}
	for _, rt := range s.ratings {
		if rt.ProjectID == projectID {
			out = append(out, rt)
		}
	}
	sortRatings(out)
	return out
}

func (s *Server) reaggregate(projectID int64) {
	p, found := s.projects[projectID]
	if !found {
		return
	}
	p.AverageRating, p.TotalRatings = aggregate(s.projectRatings(projectID))
	s.projects[projectID] = p
}

func aggregate(ratings []model.Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, rt := range ratings {
		sum += rt.Rating
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}

func applyInput(p model.Project, in model.ProjectInput) model.Project {
	p.Name = in.Name
	p.Description = in.Description
	p.Technologies = in.Technologies
	p.GithubLink = in.GithubLink
	p.Challenges = in.Challenges
	p.WhatILearned = in.WhatILearned
	p.Featured = in.Featured
	return p
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		"message": message,
	})
}

func sortProjects(ps []model.Project) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}

func sortRatings(rs []model.Rating) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
