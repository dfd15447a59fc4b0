package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/middleware"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/response"
)

type UserService interface {
	CreateUser(ctx context.Context, uid, email string, req dto.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type userHandlers struct {
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
}

func NewUserHandlers(deps *Deps) *userHandlers {
	return &userHandlers{
		ResponseHandler: deps.ResponseHandler,
		UserSvc:         deps.UserSvc,
	}
}

func (h *userHandlers) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateUser)
	r.Get("/me", h.GetMe)
	return r
}

func (h *userHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	email := middleware.Email(r.Context())
	user, err := h.UserSvc.CreateUser(r.Context(), uid, email, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, user)
}

func (h *userHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserSvc.GetUser(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, user)
}
