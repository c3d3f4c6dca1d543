package action

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

type fakeCalendar struct {
	err     error
	created []EventResult
	start   time.Time
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _, _ string, start, _ time.Time, _ []string) (EventResult, error) {
	if f.err != nil {
		return EventResult{}, f.err
	}
	f.start = start
	event := EventResult{EventID: "evt-1", MeetLink: "https://meet.example/abc", EventURL: "https://cal.example/evt-1"}
	f.created = append(f.created, event)
	return event, nil
}

type fakeEmail struct {
	err  error
	sent []string
}

func (f *fakeEmail) Send(_ context.Context, to, _, _ string) (SendResult, error) {
	if f.err != nil {
		return SendResult{}, f.err
	}
	f.sent = append(f.sent, to)
	return SendResult{Success: true, MessageID: "msg-1"}, nil
}

func newTestDetector(cal *fakeCalendar, mail *fakeEmail) *Detector {
	d := NewDetector(cal, mail, true, "owner@example.com", "Dipesh", zap.NewNop())
	d.now = func() time.Time { return time.Date(2025, time.March, 6, 9, 0, 0, 0, time.UTC) }
	return d
}

var visitor = &User{Email: "visitor@example.com", Name: "Visitor"}

func TestUnrelatedQueryIsIgnored(t *testing.T) {
	d := newTestDetector(&fakeCalendar{}, &fakeEmail{})
	assert.Nil(t, d.Handle(context.Background(), "s1", "what is your tech stack", visitor))
}

func TestBookingRequiresAuth(t *testing.T) {
	d := newTestDetector(&fakeCalendar{}, &fakeEmail{})

	result := d.Handle(context.Background(), "s1", "book a meeting tomorrow at 10am", nil)
	require.NotNil(t, result)
	assert.Equal(t, conv.ActionAuthRequired, result.State)
	assert.Contains(t, strings.ToLower(result.Response), "sign in")
}

func TestTwoTurnBookingUsesOriginalTime(t *testing.T) {
	cal := &fakeCalendar{}
	mail := &fakeEmail{}
	d := newTestDetector(cal, mail)

	// Turn 1: propose. Nothing is booked yet.
	proposal := d.Handle(context.Background(), "s1", "book a meeting with you tomorrow at 10am", visitor)
	require.NotNil(t, proposal)
	assert.Equal(t, conv.ActionProposed, proposal.State)
	assert.Empty(t, cal.created)
	assert.Contains(t, proposal.Response, "10:00 AM")

	// Turn 2: confirm. The stored tomorrow-10am time is booked, not
	// anything parsed from the confirmation text.
	confirmation := d.Handle(context.Background(), "s1", "yes, book it", visitor)
	require.NotNil(t, confirmation)
	assert.Equal(t, conv.ActionBooked, confirmation.State)
	require.Len(t, cal.created, 1)
	assert.Equal(t, time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC), cal.start)
	assert.Contains(t, confirmation.Response, "https://meet.example/abc")
	assert.Equal(t, []string{"visitor@example.com"}, mail.sent)
}

func TestConfirmationWithoutProposalIsNotSpecial(t *testing.T) {
	d := newTestDetector(&fakeCalendar{}, &fakeEmail{})
	assert.Nil(t, d.Handle(context.Background(), "s1", "yes, book it", visitor))
}

func TestExpiredProposalCannotBeConfirmed(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDetector(cal, &fakeEmail{})

	require.NotNil(t, d.Handle(context.Background(), "s1", "book a meeting tomorrow at 10am", visitor))

	// Jump past the TTL before confirming.
	d.now = func() time.Time { return time.Date(2025, time.March, 6, 9, 30, 0, 0, time.UTC) }

	assert.Nil(t, d.Handle(context.Background(), "s1", "yes, book it", visitor))
	assert.Empty(t, cal.created)
}

func TestSecondRequestReplacesProposal(t *testing.T) {
	d := newTestDetector(&fakeCalendar{}, &fakeEmail{})

	first := d.Handle(context.Background(), "s1", "book a meeting tomorrow at 10am", visitor)
	require.NotNil(t, first)

	second := d.Handle(context.Background(), "s1", "actually, book a meeting on friday at 2pm", visitor)
	require.NotNil(t, second)
	assert.Equal(t, conv.ActionProposed, second.State)
	assert.Equal(t, true, second.Metadata["overwritten"])
	assert.Contains(t, second.Response, "replaces the earlier time")
}

func TestCalendarFailureProducesRemediation(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("api down")}
	d := newTestDetector(cal, &fakeEmail{})

	require.NotNil(t, d.Handle(context.Background(), "s1", "book a meeting tomorrow at 10am", visitor))
	result := d.Handle(context.Background(), "s1", "yes, book it", visitor)

	require.NotNil(t, result)
	assert.Equal(t, conv.ActionFailed, result.State)
	assert.Contains(t, strings.ToLower(result.Response), "try again")
}

func TestEmailSendsImmediately(t *testing.T) {
	mail := &fakeEmail{}
	d := newTestDetector(&fakeCalendar{}, mail)

	result := d.Handle(context.Background(), "s1", "please send an email to let you know I'm interested", visitor)
	require.NotNil(t, result)
	assert.Equal(t, conv.ActionSent, result.State)
	assert.Equal(t, []string{"owner@example.com"}, mail.sent)
}

func TestEmailRequiresAuth(t *testing.T) {
	d := newTestDetector(&fakeCalendar{}, &fakeEmail{})

	result := d.Handle(context.Background(), "s1", "send an email for me", nil)
	require.NotNil(t, result)
	assert.Equal(t, conv.ActionAuthRequired, result.State)
}

func TestUnconfiguredProviderShortCircuits(t *testing.T) {
	d := NewDetector(&fakeCalendar{}, &fakeEmail{}, false, "", "Dipesh", zap.NewNop())

	result := d.Handle(context.Background(), "s1", "book a meeting tomorrow", visitor)
	require.NotNil(t, result)
	assert.Equal(t, conv.ActionFailed, result.State)
}
