package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
)

func TestContact_SubmitShowsServerMessageAndClears(t *testing.T) {
	f := newFixture(t)
	f.api.SetContactResponse(model.ContactResponse{Success: true, Message: "Thanks, I'll get back to you soon."})
	c := NewContact(f.client, f.notifier, testLogger())

	assert.False(t, c.Dirty())
	c.Edit(ContactForm{Name: "Ann", Email: "ann@example.com", Message: "Hi there"})
	assert.True(t, c.Dirty())

	resp, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"Thanks, I'll get back to you soon."}, f.messages(model.NotificationSuccess))
	assert.False(t, c.Dirty(), "cleared after success")
	assert.Equal(t, []model.ContactRequest{{Name: "Ann", Email: "ann@example.com", Message: "Hi there"}}, f.api.Contacts())
}

func TestContact_ServerRefusalKeepsForm(t *testing.T) {
	f := newFixture(t)
	f.api.SetContactResponse(model.ContactResponse{Success: false, Message: "Mailbox full"})
	c := NewContact(f.client, f.notifier, testLogger())
	c.Edit(ContactForm{Name: "Ann", Email: "ann@example.com", Message: "Hi"})

	_, err := c.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"Mailbox full"}, f.messages(model.NotificationError))
	assert.True(t, c.Dirty())
}

func TestContact_TransportFailure(t *testing.T) {
	f := newFixture(t)
	f.api.Fail("POST /contact", 500, "")
	c := NewContact(f.client, f.notifier, testLogger())
	c.Edit(ContactForm{Name: "Ann", Email: "ann@example.com", Message: "Hi"})

	_, err := c.Submit(context.Background())

	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.True(t, c.Dirty())
}

func TestContact_ValidationBeforeSending(t *testing.T) {
	tests := []struct {
		name    string
		form    ContactForm
		wantMsg string
	}{
		{"empty", ContactForm{}, "Name is required"},
		{"bad email", ContactForm{Name: "Ann", Email: "ann", Message: "Hi"}, "Please enter a valid email address"},
		{"short message", ContactForm{Name: "Ann", Email: "ann@example.com", Message: "H"}, "Message must be at least 2 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := NewContact(f.client, f.notifier, testLogger())
			c.Edit(tt.form)

			_, err := c.Submit(context.Background())

			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Equal(t, []string{tt.wantMsg}, f.messages(model.NotificationError))
			assert.Equal(t, 0, f.api.CountRequests("POST", "/contact"))
		})
	}
}
