package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/spendwise/internal/handlers"
	"github.com/GregMSThompson/spendwise/internal/middleware"
	"github.com/GregMSThompson/spendwise/internal/models"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	ush := handlers.NewUserHandlers(deps)
	swh := handlers.NewSpendwiseHandlers(deps)
	inh := handlers.NewLedgerHandlers(deps, models.LedgerIncome)
	exh := handlers.NewLedgerHandlers(deps, models.LedgerExpense)
	dbh := handlers.NewDashboardHandlers(deps)

	mw := middleware.NewMiddleware(deps.Firebase, deps.ResponseHandler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.FirebaseAuth)
		r.Mount("/users", ush.UserRoutes())
		r.Mount("/spendwise", swh.SpendwiseRoutes())
		r.Mount("/income", inh.LedgerRoutes())
		r.Mount("/expense", exh.LedgerRoutes())
		r.Mount("/dashboard", dbh.DashboardRoutes())
	})
	return r
}
