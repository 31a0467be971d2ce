package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/signal"
)

// RatingAPI is the part of the remote API the rating workflow needs.
type RatingAPI interface {
	ProjectRatings(ctx context.Context, projectID int64) ([]model.Rating, error)
	AverageRating(ctx context.Context, projectID int64) (float64, error)
	RatingCount(ctx context.Context, projectID int64) (int, error)
	RatingDistribution(ctx context.Context, projectID int64) (model.RatingDistribution, error)
	CreateRating(ctx context.Context, in model.RatingCreate) (*model.Rating, error)
	UpdateRating(ctx context.Context, ratingID int64, in model.RatingUpdate) (*model.Rating, error)
	DeleteRating(ctx context.Context, ratingID int64) error
}

// Rating messages.
const (
	MsgSelectRating      = "Please select a rating between 1 and 5 stars"
	MsgLoginToRate       = "Please log in to rate projects"
	MsgRatingSubmitted   = "Thank you for your rating!"
	MsgRatingUpdated     = "Your rating has been updated"
	MsgRatingDeleted     = "Your rating has been removed"
	MsgRatingFailed      = "Failed to submit rating"
	MsgRatingLoadFailed  = "Failed to load ratings"
	MsgRatingDeleteError = "Failed to delete rating"
)

// RatingState is everything the detail view shows about one project's ratings.
type RatingState struct {
	ProjectID int64
	Ratings   []model.Rating
	Average   float64
	Count     int
	// Mine is the current user's rating, nil when they have not rated.
	Mine *model.Rating
}

// RatingDraft is the unsent selection: stars (0 = none) and comment.
type RatingDraft struct {
	Stars   int
	Comment string
}

// RatingWorkflow drives the rating panel of one project at a time.
//
// LIFECYCLE:
//
//	Load(p)  → three concurrent reads, state + draft seeded from "my" rating
//	Submit   → create, or update when Mine exists; then Load again
//	Delete   → confirmed delete of Mine; draft cleared; then Load again
//
// The server enforces one rating per (user, project); routing to update when
// Mine exists keeps us from ever hitting that conflict ourselves.
type RatingWorkflow struct {
	state *signal.Signal[RatingState]
	draft *signal.Signal[RatingDraft]

	api      RatingAPI
	viewer   Viewer
	notifier *NotificationService
	logger   *slog.Logger
}

func NewRatingWorkflow(api RatingAPI, viewer Viewer, notifier *NotificationService, logger *slog.Logger) *RatingWorkflow {
	return &RatingWorkflow{
		state:    signal.New(RatingState{}),
		draft:    signal.New(RatingDraft{}),
		api:      api,
		viewer:   viewer,
		notifier: notifier,
		logger:   logger,
	}
}

func (w *RatingWorkflow) State() signal.Readable[RatingState] { return w.state }
func (w *RatingWorkflow) Draft() signal.Readable[RatingDraft] { return w.draft }

// Load fetches ratings, average and count for projectID in parallel.
//
// errgroup.WithContext cancels the two siblings as soon as one call fails,
// and Wait returns that first error. Nothing is stored unless all three
// succeed.
func (w *RatingWorkflow) Load(ctx context.Context, projectID int64) error {
	var (
		ratings []model.Rating
		average float64
		count   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratings, err = w.api.ProjectRatings(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		average, err = w.api.AverageRating(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = w.api.RatingCount(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		w.logger.Error("loading ratings", slog.Int64("projectID", projectID), slog.String("error", err.Error()))
		w.notifier.Error(apperror.MessageOr(err, MsgRatingLoadFailed))
		return fmt.Errorf("loading ratings for project %d: %w", projectID, err)
	}

	mine := w.findMine(ratings)
	w.state.Set(RatingState{
		ProjectID: projectID,
		Ratings:   ratings,
		Average:   average,
		Count:     count,
		Mine:      mine,
	})

	if mine != nil {
		w.draft.Set(RatingDraft{Stars: mine.Rating, Comment: mine.Comment})
	} else {
		w.draft.Set(RatingDraft{})
	}
	return nil
}

func (w *RatingWorkflow) findMine(ratings []model.Rating) *model.Rating {
	user := w.viewer.User()
	if user == nil {
		return nil
	}
	for i := range ratings {
		if ratings[i].UserID == user.ID {
			r := ratings[i]
			return &r
		}
	}
	return nil
}

// Select changes the drafted star count.
func (w *RatingWorkflow) Select(stars int) {
	w.draft.Update(func(d RatingDraft) RatingDraft { d.Stars = stars; return d })
}

// HasRated reports whether the loaded project carries a rating by the
// current user.
func (w *RatingWorkflow) HasRated() bool {
	return w.state.Get().Mine != nil
}

// Submit sends stars/comment for the loaded project.
//
// Out-of-range stars (including 0, "nothing selected") are rejected before
// any request is made.
func (w *RatingWorkflow) Submit(ctx context.Context, stars int, comment string) error {
	w.draft.Set(RatingDraft{Stars: stars, Comment: comment})

	if stars < model.MinStars || stars > model.MaxStars {
		w.notifier.Error(MsgSelectRating)
		return apperror.ValidationFailed("rating", MsgSelectRating)
	}
	if !w.viewer.IsAuthenticated() {
		w.notifier.Error(MsgLoginToRate)
		return apperror.Unauthorized(MsgLoginToRate)
	}

	st := w.state.Get()
	if st.ProjectID == 0 {
		return apperror.ValidationFailed("project", "no project loaded")
	}

	var (
		err     error
		success string
	)
	if st.Mine != nil {
		_, err = w.api.UpdateRating(ctx, st.Mine.ID, model.RatingUpdate{Rating: &stars, Comment: &comment})
		success = MsgRatingUpdated
	} else {
		_, err = w.api.CreateRating(ctx, model.RatingCreate{ProjectID: st.ProjectID, Rating: stars, Comment: comment})
		success = MsgRatingSubmitted
	}
	if err != nil {
		w.logger.Error("submitting rating", slog.Int64("projectID", st.ProjectID), slog.String("error", err.Error()))
		w.notifier.Error(apperror.MessageOr(err, MsgRatingFailed))
		return fmt.Errorf("submitting rating: %w", err)
	}

	w.logger.Info("rating submitted",
		slog.Int64("projectID", st.ProjectID),
		slog.Int("stars", stars),
		slog.Bool("update", st.Mine != nil),
	)
	w.notifier.Success(success)
	return w.Load(ctx, st.ProjectID)
}

// Delete removes the current user's rating once confirm is true.
func (w *RatingWorkflow) Delete(ctx context.Context, confirm bool) error {
	st := w.state.Get()
	if st.Mine == nil {
		return apperror.NotFound("rating", "mine")
	}
	if !confirm {
		return nil
	}

	if err := w.api.DeleteRating(ctx, st.Mine.ID); err != nil {
		w.logger.Error("deleting rating", slog.Int64("ratingID", st.Mine.ID), slog.String("error", err.Error()))
		w.notifier.Error(apperror.MessageOr(err, MsgRatingDeleteError))
		return fmt.Errorf("deleting rating: %w", err)
	}

	w.draft.Set(RatingDraft{})
	w.logger.Info("rating deleted", slog.Int64("ratingID", st.Mine.ID))
	w.notifier.Success(MsgRatingDeleted)
	return w.Load(ctx, st.ProjectID)
}

// Distribution fetches the star histogram of the loaded project, with every
// star from 1 to 5 present (zero when nobody chose it).
func (w *RatingWorkflow) Distribution(ctx context.Context) (model.RatingDistribution, error) {
	st := w.state.Get()
	raw, err := w.api.RatingDistribution(ctx, st.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading distribution: %w", err)
	}
	out := make(model.RatingDistribution, model.MaxStars)
	for star := model.MinStars; star <= model.MaxStars; star++ {
		out[star] = raw[star]
	}
	return out, nil
}
