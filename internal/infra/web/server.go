package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/usecase"
)

type Server struct {
	ledgerUC      usecase.LedgerUseCase
	freePlanUC    usecase.FreePlanUseCase
	webhookUC     usecase.WebhookUseCase
	featureUC     usecase.FeatureUseCase
	stateUC       usecase.StateRecorderUseCase
	auth          *AuthManager
	webhookSecret string
	log           *zerolog.Logger
}

func NewServer(
	ledgerUC usecase.LedgerUseCase,
	freePlanUC usecase.FreePlanUseCase,
	webhookUC usecase.WebhookUseCase,
	featureUC usecase.FeatureUseCase,
	stateUC usecase.StateRecorderUseCase,
	auth *AuthManager,
	webhookSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		ledgerUC:      ledgerUC,
		freePlanUC:    freePlanUC,
		webhookUC:     webhookUC,
		featureUC:     featureUC,
		stateUC:       stateUC,
		auth:          auth,
		webhookSecret: webhookSecret,
		log:           logger,
	}
}

// Router builds the full HTTP surface. The webhook route authenticates by
// body signature rather than a bearer token, so it sits outside the auth
// group.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/credits", s.handleGetCredits)
			r.Get("/credits/history", s.handleCreditHistory)
			r.Post("/credits/consume", s.handleConsumeCredit)
			r.Post("/plans/free/claim", s.handleClaimFreePlan)
			r.Get("/payments/return", s.handlePaymentReturn)
			r.Post("/features", s.handleFeatures)
			r.Get("/state", s.handleState)
		})
	})
	return r
}

// authMiddleware resolves the bearer token to a trusted user id and stashes
// it in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.UserIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}
