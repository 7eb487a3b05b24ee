package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookhook/internal/config"
	"bookhook/internal/metrics"
	"bookhook/internal/models"
	"bookhook/internal/service"

	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// HTTPServer exposes the webhook endpoint and liveness checks.
type HTTPServer struct {
	cfg     config.HTTPConfig
	webhook *service.WebhookService
	limiter *clientLimiter
	server  *http.Server
	log     zerolog.Logger
}

func NewHTTPServer(cfg config.HTTPConfig, webhook *service.WebhookService, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		webhook: webhook,
		limiter: newClientLimiter(cfg.RateLimit, cfg.TrustProxyHeaders),
		log:     zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", srv.handleWebhook)
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/", srv.handleRoot)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           requestLogger(srv.log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// Handler is the full middleware-wrapped handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("webhook listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleWebhook always answers 200 with a fulfillment text, whatever went wrong.
func (s *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.limiter.Allow(r) {
		s.reply(w, service.Reply{Text: models.ReplyThrottled, Outcome: models.OutcomeThrottled})
		return
	}

	logger := zerolog.Ctx(r.Context())

	var req models.WebhookRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			logger.Warn().Err(err).Msg("unexpected field type in webhook body, using what decoded")
		} else {
			logger.Warn().Err(err).Msg("malformed webhook body, treating as empty request")
			req = models.WebhookRequest{}
		}
	}

	reply := s.webhook.Handle(r.Context(), &req)
	logger.Info().
		Str("intent", req.QueryResult.Intent.DisplayName).
		Str("outcome", reply.Outcome).
		Str("booking_id", reply.BookingID).
		Msg("webhook handled")

	s.reply(w, reply)
}

func (s *HTTPServer) reply(w http.ResponseWriter, reply service.Reply) {
	metrics.IncReply(reply.Outcome)
	writeJSON(w, http.StatusOK, models.WebhookResponse{FulfillmentText: reply.Text})
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Webhook running")
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
