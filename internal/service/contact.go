package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/form"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/signal"
)

// ContactAPI is the part of the remote API the contact form needs.
type ContactAPI interface {
	SubmitContact(ctx context.Context, in model.ContactRequest) (*model.ContactResponse, error)
}

// Contact messages.
const (
	MsgContactFailed  = "Failed to send message. Please try again."
	MsgLeaveContact   = "Contact form entered data will be lost. Are you sure to leave?"
	MsgContactInvalid = "Please fill out all fields."
)

// ContactForm is what the visitor typed.
type ContactForm struct {
	Name    string `json:"name" validate:"required" label:"Name"`
	Email   string `json:"email" validate:"required,email" label:"Email"`
	Message string `json:"message" validate:"required,min=2" label:"Message"`
}

// Contact holds the contact form and sends it.
//
// The server decides what the visitor reads: on success and on a
// success=false answer alike, its message is shown as-is.
type Contact struct {
	form     *signal.Signal[ContactForm]
	api      ContactAPI
	notifier *NotificationService
	logger   *slog.Logger
}

func NewContact(api ContactAPI, notifier *NotificationService, logger *slog.Logger) *Contact {
	return &Contact{
		form:     signal.New(ContactForm{}),
		api:      api,
		notifier: notifier,
		logger:   logger,
	}
}

func (c *Contact) Form() signal.Readable[ContactForm] { return c.form }

// Edit replaces the form contents.
func (c *Contact) Edit(f ContactForm) { c.form.Set(f) }

// Dirty reports whether anything has been typed. Navigation away from a
// dirty form asks for confirmation first.
func (c *Contact) Dirty() bool {
	f := c.form.Get()
	return f.Name != "" || f.Email != "" || f.Message != ""
}

// LeavePrompt is the question asked before discarding a dirty form.
func (c *Contact) LeavePrompt() string { return MsgLeaveContact }

// Submit validates and sends the form. The form is cleared only when the
// server reports success.
func (c *Contact) Submit(ctx context.Context) (*model.ContactResponse, error) {
	f := c.form.Get()
	if err := form.Validate(f); err != nil {
		c.notifier.Error(apperror.MessageOr(err, MsgContactInvalid))
		return nil, err
	}

	resp, err := c.api.SubmitContact(ctx, model.ContactRequest{Name: f.Name, Email: f.Email, Message: f.Message})
	if err != nil {
		c.logger.Error("sending contact message", slog.String("error", err.Error()))
		c.notifier.Error(apperror.MessageOr(err, MsgContactFailed))
		return nil, fmt.Errorf("sending contact message: %w", err)
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = MsgContactFailed
		}
		c.notifier.Error(msg)
		return resp, &apperror.AppError{Err: apperror.ErrUpstream, Message: msg}
	}

	c.logger.Info("contact message sent", slog.String("email", f.Email))
	c.notifier.Success(resp.Message)
	c.form.Set(ContactForm{})
	return resp, nil
}
