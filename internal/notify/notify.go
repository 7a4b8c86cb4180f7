// Package notify renders notification templates and dispatches them through
// the channel adapters. Dispatch is synchronous and best-effort: one
// attempt, one log row, no retry.
package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"settleline.app/internal/adapters"
	"settleline.app/internal/obs"
	"settleline.app/internal/settle"
)

// ErrChannelUnavailable is returned when the target channel has no working
// sender (missing credentials, or the channel is not implemented).
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// EmailSender delivers one email. Implemented by adapters.EmailClient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message. Implemented by adapters.SMSClient.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// Dispatcher looks up templates, renders them and records delivery logs.
type Dispatcher struct {
	store settle.Store
	email EmailSender
	sms   SMSSender
}

func NewDispatcher(store settle.Store, email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{store: store, email: email, sms: sms}
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes {{name}} placeholders from vars. Unknown placeholders
// are left intact so a misconfigured template is visible in the output.
func Render(body string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}

// Vars builds the flat substitution map from recipient and matter fields.
func Vars(recipient *settle.User, m *settle.Matter) map[string]string {
	vars := map[string]string{}
	if recipient != nil {
		vars["recipientName"] = recipient.Name
		vars["recipientEmail"] = recipient.Email
	}
	if m != nil {
		progress := m.Progress()
		vars["matterAddress"] = m.Address
		vars["matterStatus"] = m.Status
		vars["overallPercent"] = strconv.Itoa(progress.OverallPercent)
		vars["currentStage"] = string(progress.CurrentStage)
		if m.SettlementDate != nil {
			vars["settlementDate"] = m.SettlementDate.Format("2 January 2006")
		}
	}
	return vars
}

// Dispatch sends one notification for trigger+channel to the recipient and
// appends a delivery log. The returned log carries the outcome; the error
// is non-nil only when nothing could be attempted (no template, channel
// unavailable) or the log itself could not be written.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger, channel string, recipient *settle.User, m *settle.Matter) (*settle.NotificationLog, error) {
	tmpl, err := d.store.Templates().FindByTrigger(ctx, trigger, channel)
	if err != nil {
		return nil, fmt.Errorf("template for %s/%s: %w", trigger, channel, err)
	}

	vars := Vars(recipient, m)
	body := Render(tmpl.Body, vars)
	subject := Render(tmpl.Subject, vars)

	var sendErr error
	switch channel {
	case settle.ChannelEmail:
		if d.email == nil {
			return nil, ErrChannelUnavailable
		}
		sendErr = d.email.Send(ctx, recipient.Email, subject, body)
	case settle.ChannelText:
		if d.sms == nil {
			return nil, ErrChannelUnavailable
		}
		if recipient.Phone == "" {
			sendErr = errors.New("recipient has no phone number")
		} else {
			sendErr = d.sms.Send(ctx, recipient.Phone, body)
		}
	case settle.ChannelPush:
		// Push delivery has no adapter yet.
		return nil, ErrChannelUnavailable
	default:
		return nil, fmt.Errorf("unknown channel: %s", channel)
	}
	// Missing vendor credentials are a configuration problem, not a
	// delivery outcome worth a log row.
	if errors.Is(sendErr, adapters.ErrNotConfigured) {
		return nil, sendErr
	}

	entry := &settle.NotificationLog{
		TemplateID:      tmpl.ID,
		RecipientUserID: recipient.ID,
		Channel:         channel,
		Trigger:         trigger,
		Status:          settle.DeliverySent,
	}
	if m != nil {
		entry.MatterID = m.ID
	}
	if sendErr != nil {
		entry.Status = settle.DeliveryFailed
		entry.Error = sendErr.Error()
	}
	obs.ObserveNotification(channel, entry.Status)

	if err := d.store.NotificationLogs().Append(ctx, entry); err != nil {
		return entry, fmt.Errorf("append notification log: %w", err)
	}
	return entry, nil
}
