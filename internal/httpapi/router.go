package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crm-console/internal/assign"
	"crm-console/internal/auth"
	"crm-console/internal/config"
	"crm-console/internal/hub"
	"crm-console/internal/store"
)

func NewRouter(cfg *config.Config, pool *pgxpool.Pool, h *hub.Hub) http.Handler {
	st := store.New(pool)
	asg := assign.New(pool)
	verifier := auth.NewVerifier(cfg.Stream.JWTSecret)

	r := chi.NewRouter()

	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)

	r.Get("/health", HealthHandler(pool))
	r.Get("/version", VersionHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Provider pingbacks: some providers POST, some call back with GET.
	r.Route("/pingback", func(pb chi.Router) {
		pb.Use(PingbackTokenAuth(cfg))
		pb.HandleFunc("/call", CallPingbackHandler(st, h))
		pb.HandleFunc("/ctc", ClickToCallPingbackHandler(st, h))
	})

	// Messaging webhook: GET is the registration handshake, POST is data.
	r.Get("/webhook/messaging", MessagingVerifyHandler(cfg))
	r.Post("/webhook/messaging", MessagingWebhookHandler(st, asg, h))

	// Operator stream
	r.With(StreamAuth(verifier)).Get("/stream/events", StreamHandler(cfg, h))

	// Console query APIs
	r.Route("/api", func(api chi.Router) {
		api.Use(APIKeyAuth(cfg))
		api.Get("/calls", CallsQueryHandler(st))
		api.Get("/messages", MessagesQueryHandler(st))
	})

	return r
}
