package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/middleware"
	"github.com/GregMSThompson/spendwise/internal/models"
)

type stubUserService struct {
	called     bool
	uid, email string
	req        dto.CreateUserRequest
	err        error
}

func (s *stubUserService) CreateUser(_ context.Context, uid, email string, req dto.CreateUserRequest) (*models.User, error) {
	s.called = true
	s.uid = uid
	s.email = email
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{UID: uid, Email: email, FullName: req.FullName}, nil
}

func (s *stubUserService) GetUser(_ context.Context, uid string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{UID: uid}, nil
}

func TestCreateUserSuccess(t *testing.T) {
	userSvc := &stubUserService{}
	resp := &stubResponseHandler{}

	h := NewUserHandlers(&Deps{
		ResponseHandler: resp,
		UserSvc:         userSvc,
	})

	body := `{"fullName":"Jane Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UIDKey, "uid-123")
	ctx = context.WithValue(ctx, middleware.EmailKey, "jane@example.com")
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	h.CreateUser(rr, req)

	if !userSvc.called {
		t.Fatalf("expected CreateUser to be called on service")
	}
	if userSvc.uid != "uid-123" || userSvc.email != "jane@example.com" {
		t.Fatalf("service received wrong identifiers: uid=%s email=%s", userSvc.uid, userSvc.email)
	}
	if userSvc.req.FullName != "Jane Doe" {
		t.Fatalf("service received wrong name: %s", userSvc.req.FullName)
	}

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("WriteSuccess not called with status 201")
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected response status: %d", rr.Code)
	}
}

func TestCreateUserInvalidBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     "not-json",
		"missing name": `{"profileImageUrl":"https://example.com/a.png"}`,
		"bad url":      `{"fullName":"Jane","profileImageUrl":"not a url"}`,
	} {
		t.Run(name, func(t *testing.T) {
			userSvc := &stubUserService{}
			resp := &stubResponseHandler{}
			h := NewUserHandlers(&Deps{ResponseHandler: resp, UserSvc: userSvc})

			req := withUID(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)), "uid-1")
			h.CreateUser(httptest.NewRecorder(), req)

			if userSvc.called {
				t.Fatalf("CreateUser should not be called on service for invalid body")
			}
			if !resp.isValidation() {
				t.Fatalf("expected ValidationError, got %v", resp.handleError)
			}
		})
	}
}

func TestCreateUserServiceError(t *testing.T) {
	userSvc := &stubUserService{err: errors.New("service failure")}
	resp := &stubResponseHandler{}

	h := NewUserHandlers(&Deps{
		ResponseHandler: resp,
		UserSvc:         userSvc,
	})

	body := `{"fullName":"Jane Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateUser(rr, req)

	if !resp.handleErrorCalled {
		t.Fatalf("expected handler to delegate error to ResponseHandler.HandleError")
	}
	if !errors.Is(resp.handleError, userSvc.err) {
		t.Fatalf("unexpected error passed to HandleError: %v", resp.handleError)
	}
	if resp.writeSuccessCalled {
		t.Fatalf("WriteSuccess should not be called on service error")
	}
}

func TestGetMe(t *testing.T) {
	resp := &stubResponseHandler{}
	h := NewUserHandlers(&Deps{ResponseHandler: resp, UserSvc: &stubUserService{}})

	h.GetMe(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/users/me", nil), "uid-9"))

	user, ok := resp.writeSuccessData.(*models.User)
	if !ok || user.UID != "uid-9" {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}
