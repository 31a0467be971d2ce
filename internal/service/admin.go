package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/form"
	"github.com/sakif/portfolio/internal/imagehost"
	"github.com/sakif/portfolio/internal/model"
)

// AdminAPI is the part of the remote API the admin panel needs on top of
// ProjectAPI.
type AdminAPI interface {
	CreateProjectRaw(ctx context.Context, raw json.RawMessage) (*model.Project, error)
	UpdateProjectRaw(ctx context.Context, id int64, raw json.RawMessage) (*model.Project, error)
	SavePhotoURL(ctx context.Context, in model.PhotoInput) (*model.Photo, error)
	DeletePhoto(ctx context.Context, photoID int64) error
}

// ImageUploader puts a file on the image host.
type ImageUploader interface {
	UploadProjectPhoto(ctx context.Context, projectID int64, filename string, content io.Reader) (*imagehost.UploadResult, error)
}

// Admin messages.
const (
	MsgInvalidJSON       = "Invalid JSON format"
	MsgNoValidProjects   = "No valid projects found in JSON"
	MsgImportFailed      = "Failed to import projects"
	MsgPhotosUploaded    = "Photos uploaded successfully"
	MsgPhotoUploadFailed = "Failed to upload photos"
	MsgPhotoDeleted      = "Photo deleted successfully"
	MsgPhotoDeleteFailed = "Failed to delete photo"
	MsgNoFiles           = "Please select at least one photo"
)

// ProjectForm is the admin create/edit form. Technologies is entered as a
// comma-separated line; see ParseTechnologies.
type ProjectForm struct {
	Name         string   `json:"name" validate:"required,min=3" label:"Name"`
	Description  string   `json:"description" validate:"required,min=10" label:"Description"`
	Technologies []string `json:"technologies" validate:"min=1" label:"Technologies"`
	GithubLink   string   `json:"githubLink" validate:"httpurl" label:"GitHub link"`
	Challenges   string   `json:"challenges"`
	WhatILearned string   `json:"whatILearned"`
	Featured     bool     `json:"featured"`
}

// EditForm prefills the form from an existing project.
func EditForm(p model.Project) ProjectForm {
	return ProjectForm{
		Name:         p.Name,
		Description:  p.Description,
		Technologies: append([]string(nil), p.Technologies...),
		GithubLink:   model.Deref(p.GithubLink),
		Challenges:   model.Deref(p.Challenges),
		WhatILearned: model.Deref(p.WhatILearned),
		Featured:     p.Featured,
	}
}

// Input converts the form into the request body. Blank optional fields are
// sent as null.
func (f ProjectForm) Input() model.ProjectInput {
	return model.ProjectInput{
		Name:         strings.TrimSpace(f.Name),
		Description:  strings.TrimSpace(f.Description),
		Technologies: f.Technologies,
		GithubLink:   model.StringPtr(strings.TrimSpace(f.GithubLink)),
		Challenges:   model.StringPtr(strings.TrimSpace(f.Challenges)),
		WhatILearned: model.StringPtr(strings.TrimSpace(f.WhatILearned)),
		Featured:     f.Featured,
	}
}

// ValidateProjectForm reports the first invalid field of f.
func ValidateProjectForm(f ProjectForm) error {
	return form.Validate(f)
}

// ParseTechnologies splits "Go, Redis ,  chi" into ["Go" "Redis" "chi"],
// dropping empty entries.
func ParseTechnologies(line string) []string {
	out := []string{}
	for _, t := range strings.Split(line, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// =========================================================================
// ADMIN PANEL
// =========================================================================
//
// Admin ties the form, the bulk importer and the photo manager together.
// Everything here is admin-only; the check happens client-side first so a
// plain user never sends the request, and the server checks again.

type Admin struct {
	projects *ProjectStore
	api      AdminAPI
	images   ImageUploader
	viewer   Viewer
	notifier *NotificationService
	logger   *slog.Logger
}

func NewAdmin(projects *ProjectStore, api AdminAPI, images ImageUploader, viewer Viewer, notifier *NotificationService, logger *slog.Logger) *Admin {
	return &Admin{
		projects: projects,
		api:      api,
		images:   images,
		viewer:   viewer,
		notifier: notifier,
		logger:   logger,
	}
}

func (a *Admin) requireAdmin() error {
	if !a.viewer.IsAdmin() {
		a.notifier.Error(MsgAdminOnly)
		return apperror.Forbidden(MsgAdminOnly)
	}
	return nil
}

// Save validates the form, then creates (id == 0) or updates the project.
func (a *Admin) Save(ctx context.Context, id int64, f ProjectForm) (*model.Project, error) {
	if err := ValidateProjectForm(f); err != nil {
		a.notifier.Error(apperror.MessageOr(err, "Please fix the highlighted fields"))
		return nil, err
	}
	if id == 0 {
		return a.projects.Create(ctx, f.Input())
	}
	return a.projects.Update(ctx, id, f.Input())
}

// =========================================================================
// BULK JSON IMPORT
// =========================================================================
//
// The pasted document is either one project object or an array of them.
//
//	{"name": ..., "description": ..., "technologies": [...]}          → 1 item
//	[{"name": ...}, {"id": 4, "name": ...}, "garbage"]                 → 3 items
//
// Each item only has to CONTAIN name, description and technologies; their
// types are not checked here. Valid items are forwarded byte-for-byte, so
// the backend is the one that rejects a string where a list belongs.
//
// Items with an "id" update that project; the rest are created. All requests
// run at once; the first failure is reported and the others are not rolled
// back.

// importRequired lists the keys an imported item must have.
var importRequired = []string{"name", "description", "technologies"}

// ImportResult counts what happened to the pasted items.
type ImportResult struct {
	Valid     int
	Invalid   int
	Succeeded int
	Failed    int
}

type importItem struct {
	id  int64
	raw json.RawMessage
}

// BulkImport parses raw, validates each item and dispatches the valid ones.
func (a *Admin) BulkImport(ctx context.Context, raw []byte) (ImportResult, error) {
	var res ImportResult
	if err := a.requireAdmin(); err != nil {
		return res, err
	}

	candidates, err := splitDocument(raw)
	if err != nil {
		a.notifier.Error(MsgInvalidJSON)
		return res, apperror.ValidationFailed("json", MsgInvalidJSON)
	}

	var items []importItem
	for _, c := range candidates {
		item, ok := parseImportItem(c)
		if !ok {
			res.Invalid++
			continue
		}
		items = append(items, item)
	}
	res.Valid = len(items)

	if len(items) == 0 {
		a.notifier.Error(MsgNoValidProjects)
		return res, apperror.ValidationFailed("json", MsgNoValidProjects)
	}

	var succeeded, failed atomic.Int64
	var g errgroup.Group
	for _, item := range items {
		g.Go(func() error {
			var err error
			if item.id != 0 {
				_, err = a.api.UpdateProjectRaw(ctx, item.id, item.raw)
			} else {
				_, err = a.api.CreateProjectRaw(ctx, item.raw)
			}
			if err != nil {
				failed.Add(1)
				return err
			}
			succeeded.Add(1)
			return nil
		})
	}
	importErr := g.Wait()

	res.Succeeded = int(succeeded.Load())
	res.Failed = int(failed.Load())

	a.logger.Info("bulk import finished",
		slog.Int("valid", res.Valid),
		slog.Int("invalid", res.Invalid),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
	)

	// Whatever landed should be visible, failure or not.
	refreshErr := a.projects.Refresh(ctx)

	if importErr != nil {
		a.notifier.Error(apperror.MessageOr(importErr, MsgImportFailed))
		return res, fmt.Errorf("importing projects: %w", importErr)
	}
	a.notifier.Success(importSummary(res))
	return res, refreshErr
}

func importSummary(r ImportResult) string {
	msg := fmt.Sprintf("Successfully imported %d project(s)", r.Succeeded)
	if r.Invalid > 0 {
		msg += fmt.Sprintf(", %d invalid item(s) skipped", r.Invalid)
	}
	return msg
}

// splitDocument returns the raw items of an object-or-array document.
func splitDocument(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("not valid JSON")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

// parseImportItem accepts an object carrying every required key. A non-null
// "id" marks it as an update and must name a project.
func parseImportItem(raw json.RawMessage) (importItem, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return importItem{}, false
	}
	for _, key := range importRequired {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return importItem{}, false
		}
	}

	item := importItem{raw: raw}
	if idRaw, ok := fields["id"]; ok && string(idRaw) != "null" {
		id, ok := importID(idRaw)
		if !ok {
			return importItem{}, false
		}
		item.id = id
	}
	return item, true
}

// importID reads a present "id" as a positive integer. Whole numbers written
// as 7.0 or "7" count; anything else makes the item invalid rather than
// turning an intended update into a create.
func importID(raw json.RawMessage) (int64, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}

	var id int64
	switch v := v.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt64 {
				return 0, false
			}
			n = int64(f)
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}

// =========================================================================
// PHOTOS
// =========================================================================

// PhotoFile is one file picked for upload.
type PhotoFile struct {
	Name    string
	Content io.Reader
}

// UploadPhotos sends every file to the image host and records each hosted
// URL on the backend. Files are handled concurrently; the call succeeds only
// if all of them do.
func (a *Admin) UploadPhotos(ctx context.Context, projectID int64, files []PhotoFile) ([]model.Photo, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		a.notifier.Error(MsgNoFiles)
		return nil, apperror.ValidationFailed("photos", MsgNoFiles)
	}

	photos := make([]model.Photo, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			hosted, err := a.images.UploadProjectPhoto(gctx, projectID, f.Name, f.Content)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", f.Name, err)
			}
			p, err := a.api.SavePhotoURL(gctx, model.PhotoInput{PhotoURL: hosted.SecureURL, ProjectID: projectID})
			if err != nil {
				return fmt.Errorf("saving %s: %w", f.Name, err)
			}
			photos[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error("photo upload failed", slog.Int64("projectID", projectID), slog.String("error", err.Error()))
		a.notifier.Error(apperror.MessageOr(err, MsgPhotoUploadFailed))
		return nil, err
	}

	a.logger.Info("photos uploaded", slog.Int64("projectID", projectID), slog.Int("count", len(photos)))
	a.notifier.Success(MsgPhotosUploaded)
	return photos, a.projects.Refresh(ctx)
}

// DeletePhoto removes a photo once confirm is true.
func (a *Admin) DeletePhoto(ctx context.Context, photoID int64, confirm bool) error {
	if !confirm {
		return nil
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.api.DeletePhoto(ctx, photoID); err != nil {
		a.logger.Error("deleting photo", slog.Int64("photoID", photoID), slog.String("error", err.Error()))
		a.notifier.Error(apperror.MessageOr(err, MsgPhotoDeleteFailed))
		return fmt.Errorf("deleting photo %d: %w", photoID, err)
	}
	a.notifier.Success(MsgPhotoDeleted)
	return a.projects.Refresh(ctx)
}
