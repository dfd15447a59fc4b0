package twilioclient

import (
	"errors"
	"net"
	"net/url"
	"testing"

	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
)

type fakeCreator struct {
	errs   []error
	calls  int
	params *openapi.CreateMessageParams
}

func (f *fakeCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = params
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return &openapi.ApiV2010Message{Sid: helpers.Ptr("SM123")}, nil
}

func newTestAdapter(api messageCreator) *Adapter {
	return &Adapter{api: api, from: "+15005550006", delay: 0}
}

func TestSendSetsParams(t *testing.T) {
	api := &fakeCreator{}
	a := newTestAdapter(api)

	if err := a.Send(helpers.TestCtx(), "+919999999999", "hello"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("calls = %d", api.calls)
	}
	if helpers.Value(api.params.To) != "+919999999999" || helpers.Value(api.params.From) != "+15005550006" || helpers.Value(api.params.Body) != "hello" {
		t.Fatalf("unexpected params: to=%v from=%v body=%v", api.params.To, api.params.From, api.params.Body)
	}
}

func TestSendRetriesTransient(t *testing.T) {
	api := &fakeCreator{errs: []error{&twclient.TwilioRestError{Status: 503}}}
	a := newTestAdapter(api)

	if err := a.Send(helpers.TestCtx(), "+919999999999", "hello"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("calls = %d, want 2", api.calls)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	api := &fakeCreator{errs: []error{&twclient.TwilioRestError{Status: 400, Message: "invalid To"}}}
	a := newTestAdapter(api)

	err := a.Send(helpers.TestCtx(), "bad", "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) || ext.Service != "twilio" || ext.Transient {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("calls = %d, want 1", api.calls)
	}
}

func TestSendRetriesFailedDial(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "https://api.twilio.com", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	api := &fakeCreator{errs: []error{dialErr}}
	a := newTestAdapter(api)

	if err := a.Send(helpers.TestCtx(), "+919999999999", "hello"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("calls = %d, want 2", api.calls)
	}
}

func TestSendDoesNotRetryReadTimeout(t *testing.T) {
	readErr := &url.Error{Op: "Post", URL: "https://api.twilio.com", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("i/o timeout")}}
	api := &fakeCreator{errs: []error{readErr}}
	a := newTestAdapter(api)

	err := a.Send(helpers.TestCtx(), "+919999999999", "hello")
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) || ext.Transient {
		t.Fatalf("expected permanent ExternalServiceError, got %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("calls = %d, want 1", api.calls)
	}
}
