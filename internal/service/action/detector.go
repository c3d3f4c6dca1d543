package action

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// pendingTTL bounds how long an unconfirmed proposal stays valid.
const pendingTTL = 15 * time.Minute

// Result is a non-nil detector outcome; the pipeline short-circuits on it.
type Result struct {
	Response string
	State    conv.ActionState
	Kind     conv.ActionKind
	Metadata map[string]any
}

// Detector intercepts meeting and email intents before retrieval runs. It
// keeps an explicit per-session PendingAction with a TTL, so confirmation
// uses the stored proposal rather than re-scanning history.
type Detector struct {
	calendar   Calendar
	email      Email
	configured bool
	ownerEmail string
	ownerName  string
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	pending map[string]conv.PendingAction
}

func NewDetector(calendar Calendar, email Email, configured bool, ownerEmail, ownerName string, logger *zap.Logger) *Detector {
	return &Detector{
		calendar:   calendar,
		email:      email,
		configured: configured,
		ownerEmail: ownerEmail,
		ownerName:  ownerName,
		logger:     logger.Named("action"),
		now:        time.Now,
		pending:    make(map[string]conv.PendingAction),
	}
}

// Handle inspects one user turn. A nil result means no special action and
// the normal pipeline proceeds. External-service errors never propagate;
// they become remediation messages.
func (d *Detector) Handle(ctx context.Context, sessionID, text string, user *User) *Result {
	lower := strings.ToLower(text)

	if pending, ok := d.loadPending(sessionID); ok && isConfirmation(lower) {
		return d.confirm(ctx, sessionID, pending)
	}

	switch {
	case isMeetingRequest(lower):
		return d.proposeMeeting(sessionID, text, user)
	case isEmailRequest(lower):
		return d.sendEmail(ctx, text, user)
	default:
		return nil
	}
}

func isMeetingRequest(lower string) bool {
	hasVerb := strings.Contains(lower, "book") || strings.Contains(lower, "schedule") ||
		strings.Contains(lower, "set up") || strings.Contains(lower, "arrange")
	hasNoun := strings.Contains(lower, "meeting") || strings.Contains(lower, "call") ||
		strings.Contains(lower, "appointment") || strings.Contains(lower, "chat with you")
	return hasVerb && hasNoun
}

func isEmailRequest(lower string) bool {
	return (strings.Contains(lower, "send") || strings.Contains(lower, "write")) &&
		(strings.Contains(lower, "email") || strings.Contains(lower, "mail"))
}

// isConfirmation recognizes standalone confirmation phrases only, so a new
// booking request with a time is treated as a fresh proposal instead.
func isConfirmation(lower string) bool {
	if ContainsDateTimeSignal(lower) {
		return false
	}
	if strings.Contains(lower, "book it") || strings.Contains(lower, "confirm it") {
		return true
	}
	if strings.Contains(lower, "confirm") && strings.Contains(lower, "meeting") {
		return true
	}
	if strings.Contains(lower, "yes") &&
		(strings.Contains(lower, "book") || strings.Contains(lower, "meeting")) {
		return true
	}
	return false
}

func (d *Detector) proposeMeeting(sessionID, text string, user *User) *Result {
	if !d.configured {
		return &Result{
			Response: "Meeting booking isn't available right now. You can reach me directly by email instead.",
			State:    conv.ActionFailed,
			Kind:     conv.ActionMeeting,
			Metadata: map[string]any{"error": "unconfigured"},
		}
	}
	if user == nil {
		return &Result{
			Response: "I'd be happy to set up a meeting. Please sign in with your calendar account first so I can send you an invite.",
			State:    conv.ActionAuthRequired,
			Kind:     conv.ActionMeeting,
			Metadata: map[string]any{"authRequired": true},
		}
	}

	start, end := ParseDateTime(text, d.now())

	pending := conv.PendingAction{
		Kind:           conv.ActionMeeting,
		State:          conv.ActionProposed,
		ProposedStart:  start,
		ProposedEnd:    end,
		RequestText:    text,
		RequesterEmail: user.Email,
		RequesterName:  user.Name,
		CreatedAt:      d.now(),
	}

	overwritten := d.storePending(sessionID, pending)

	response := fmt.Sprintf(
		"Here's what I'd like to book: a 60-minute meeting on %s at %s. Reply \"yes, book it\" to confirm.",
		start.Format("Monday, January 2"), start.Format("3:04 PM"))
	if overwritten {
		response += " (This replaces the earlier time you asked about; only one booking can be pending at a time.)"
	}

	return &Result{
		Response: response,
		State:    conv.ActionProposed,
		Kind:     conv.ActionMeeting,
		Metadata: map[string]any{
			"proposedStart": start.Format(time.RFC3339),
			"proposedEnd":   end.Format(time.RFC3339),
			"overwritten":   overwritten,
		},
	}
}

func (d *Detector) confirm(ctx context.Context, sessionID string, pending conv.PendingAction) *Result {
	title := fmt.Sprintf("Meeting: %s and %s", d.ownerName, pending.RequesterName)
	description := "Requested via chat: " + pending.RequestText

	event, err := d.calendar.CreateEvent(ctx, title, description,
		pending.ProposedStart, pending.ProposedEnd,
		[]string{d.ownerEmail, pending.RequesterEmail})
	if err != nil {
		d.logger.Warn("calendar booking failed", zap.String("sessionId", sessionID), zap.Error(err))
		d.setState(sessionID, conv.ActionFailed)
		return &Result{
			Response: "I couldn't create the calendar event. Please re-authenticate or try again with a clearer date and time.",
			State:    conv.ActionFailed,
			Kind:     conv.ActionMeeting,
			Metadata: map[string]any{"error": "calendar"},
		}
	}

	body := fmt.Sprintf("Your meeting with %s is booked for %s at %s.\nMeet link: %s",
		d.ownerName,
		pending.ProposedStart.Format("Monday, January 2"),
		pending.ProposedStart.Format("3:04 PM"),
		event.MeetLink)
	if _, err := d.email.Send(ctx, pending.RequesterEmail, "Meeting confirmed", body); err != nil {
		// The event exists; a lost notification is not a booking failure.
		d.logger.Warn("confirmation email failed", zap.Error(err))
	}

	d.clearPending(sessionID)

	return &Result{
		Response: fmt.Sprintf(
			"Booked! We're meeting on %s at %s. Meet link: %s — a confirmation email is on its way to %s.",
			pending.ProposedStart.Format("Monday, January 2"),
			pending.ProposedStart.Format("3:04 PM"),
			event.MeetLink,
			pending.RequesterEmail),
		State: conv.ActionBooked,
		Kind:  conv.ActionMeeting,
		Metadata: map[string]any{
			"eventId":  event.EventID,
			"meetLink": event.MeetLink,
			"eventUrl": event.EventURL,
			"start":    pending.ProposedStart.Format(time.RFC3339),
		},
	}
}

// sendEmail is the simpler flow: no confirmation step, authenticated
// requests send immediately.
func (d *Detector) sendEmail(ctx context.Context, text string, user *User) *Result {
	if !d.configured {
		return &Result{
			Response: "Email isn't set up on my side at the moment, sorry about that.",
			State:    conv.ActionFailed,
			Kind:     conv.ActionEmail,
			Metadata: map[string]any{"error": "unconfigured"},
		}
	}
	if user == nil {
		return &Result{
			Response: "I can pass along a message by email once you've signed in, so I know who it's from.",
			State:    conv.ActionAuthRequired,
			Kind:     conv.ActionEmail,
			Metadata: map[string]any{"authRequired": true},
		}
	}

	body := fmt.Sprintf("Message from %s (%s):\n\n%s", user.Name, user.Email, text)
	result, err := d.email.Send(ctx, d.ownerEmail, "New message from the chat", body)
	if err != nil {
		d.logger.Warn("email send failed", zap.Error(err))
		return &Result{
			Response: "I couldn't send that email right now. Please try again in a moment.",
			State:    conv.ActionFailed,
			Kind:     conv.ActionEmail,
			Metadata: map[string]any{"error": "email"},
		}
	}

	return &Result{
		Response: "Done, your message has been sent. I'll get back to you soon.",
		State:    conv.ActionSent,
		Kind:     conv.ActionEmail,
		Metadata: map[string]any{"messageId": result.MessageID},
	}
}

func (d *Detector) loadPending(sessionID string) (conv.PendingAction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending, ok := d.pending[sessionID]
	if !ok || pending.State != conv.ActionProposed {
		return conv.PendingAction{}, false
	}
	if d.now().Sub(pending.CreatedAt) > pendingTTL {
		delete(d.pending, sessionID)
		return conv.PendingAction{}, false
	}
	return pending, true
}

// storePending records the proposal and reports whether it replaced an
// earlier unconfirmed one.
func (d *Detector) storePending(sessionID string, pending conv.PendingAction) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous, had := d.pending[sessionID]
	overwritten := had && previous.State == conv.ActionProposed &&
		d.now().Sub(previous.CreatedAt) <= pendingTTL
	pending.Overwritten = overwritten
	d.pending[sessionID] = pending
	return overwritten
}

func (d *Detector) setState(sessionID string, state conv.ActionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pending, ok := d.pending[sessionID]; ok {
		pending.State = state
		d.pending[sessionID] = pending
	}
}

func (d *Detector) clearPending(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, sessionID)
}
