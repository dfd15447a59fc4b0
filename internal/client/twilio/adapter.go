// Package twilioclient dispatches SMS through Twilio.
package twilioclient

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/avast/retry-go"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

const (
	sendAttempts = 3
	retryDelay   = 2 * time.Second
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Adapter struct {
	api   messageCreator
	from  string
	delay time.Duration
	log   *slog.Logger
}

func NewAdapter(log *slog.Logger, accountSID, authToken, from string) *Adapter {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Adapter{api: client.Api, from: from, delay: retryDelay, log: log}
}

// Send posts one message. Delivery status is not tracked; the SID is only logged.
func (a *Adapter) Send(ctx context.Context, to, body string) error {
	log := logger.FromContext(ctx)

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(a.from)
	params.SetBody(body)

	var sid string
	err := retry.Do(
		func() error {
			resp, err := a.api.CreateMessage(params)
			if err != nil {
				return err
			}
			if resp != nil && resp.Sid != nil {
				sid = *resp.Sid
			}
			return nil
		},
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("sms send retry", "attempt", n+1, "error", err)
		}),
		retry.Attempts(sendAttempts),
		retry.Delay(a.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return errs.NewExternalServiceError("twilio", isTransient(err), "send sms failed", err)
	}

	log.Info("sms sent", "sid", sid)
	return nil
}

// isTransient retries throttling, server errors and failed dials. Any other
// transport error may follow an accepted POST, and a retry would send twice.
func isTransient(err error) bool {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Status == 429 || restErr.Status >= 500
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
