// Package notification fans a notice out over the channels it declares:
// "mail" through pkg/mail and "webhook" as a JSON POST through pkg/http.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	mhttp "github.com/shashiranjanraj/markethub/pkg/http"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/mail"
)

const (
	ChannelMail    = "mail"
	ChannelWebhook = "webhook"
)

type Notification interface {
	Via() []string
}

type Mailable interface {
	ToMail() (mail.Message, error)
}

type WebhookData struct {
	URL     string
	Payload any
	Headers map[string]string
}

type Webhookable interface {
	ToWebhook() WebhookData
}

// Send delivers n on every channel it names. One failing channel does not
// stop the others; their errors are joined.
func Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, ch := range n.Via() {
		if err := dispatch(ctx, ch, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed", "channel", ch, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
	}
	return errors.Join(errs...)
}

func dispatch(ctx context.Context, ch string, n Notification) error {
	switch ch {
	case ChannelMail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("%T does not implement Mailable", n)
		}
		msg, err := m.ToMail()
		if err != nil {
			return err
		}
		return mail.Default().Send(ctx, msg)

	case ChannelWebhook:
		w, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("%T does not implement Webhookable", n)
		}
		return sendWebhook(ctx, w.ToWebhook())

	default:
		return fmt.Errorf("unknown channel %q", ch)
	}
}

func sendWebhook(ctx context.Context, d WebhookData) error {
	if d.URL == "" {
		return nil
	}
	req := mhttp.Post(d.URL).
		WithContext(ctx).
		Body(d.Payload).
		Timeout(10*time.Second).
		Retry(2, 500*time.Millisecond)
	for k, v := range d.Headers {
		req = req.Header(k, v)
	}
	resp, err := req.Send()
	if err != nil {
		return err
	}
	return resp.Throw()
}
