package health

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swapool-hq/swapool/pkg/engine"
	"github.com/swapool-hq/swapool/pkg/logger"
)

// Server hosts the engine API alongside health checks and metrics
type Server struct {
	port          string
	engine        *engine.Engine
	metricsAPIKey string
	logger        logger.Logger
}

// NewServer creates a new API and health check server
func NewServer(port string, eng *engine.Engine, log logger.Logger) *Server {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Server{
		port:          port,
		engine:        eng,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
		logger:        log,
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler builds the full route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if s.engine == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Engine not initialized"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		if s.engine == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		s.writeJSON(w, map[string]interface{}{
			"status":              "ok",
			"tracked_intents":     s.engine.IntentCount(),
			"reclaimable_intents": len(s.engine.ExpiredIntents()),
		})
	})

	mux.HandleFunc("POST /api/v1/intents", s.handleCreateIntent)
	mux.HandleFunc("GET /api/v1/intents/{id}", s.handleGetIntent)
	mux.HandleFunc("GET /api/v1/intents/{id}/participants", s.handleGetParticipants)
	mux.HandleFunc("GET /api/v1/intents/{id}/contributions/{participant}", s.handleGetContribution)
	mux.HandleFunc("POST /api/v1/intents/{id}/contribute", s.handleContribute)
	mux.HandleFunc("POST /api/v1/intents/{id}/execute", s.handleExecute)
	mux.HandleFunc("POST /api/v1/intents/{id}/cleanup", s.handleCleanup)
	mux.HandleFunc("POST /api/v1/admin/venues", s.handleSetVenueAllowed)

	mux.Handle("GET /metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	return mux
}

// Start starts the server and blocks
func (s *Server) Start() {
	s.logger.NoticeWithScope(logger.API, "Starting API and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, s.Handler()); err != nil {
		s.logger.ErrorWithScope(logger.API, "API server error: %v", err)
	}
}

type createIntentRequest struct {
	InputToken       string `json:"input_token"`
	OutputToken      string `json:"output_token"`
	MinOutput        string `json:"min_output"`
	Deadline         string `json:"deadline"` // RFC3339
	PolicyCommitment string `json:"policy_commitment"`
}

type createIntentResponse struct {
	IntentID string `json:"intent_id"`
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	minOutput, ok := new(big.Int).SetString(req.MinOutput, 10)
	if !ok {
		http.Error(w, "invalid min_output", http.StatusBadRequest)
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		http.Error(w, "invalid deadline, want RFC3339", http.StatusBadRequest)
		return
	}

	id, err := s.engine.CreateIntent(
		common.HexToAddress(req.InputToken),
		common.HexToAddress(req.OutputToken),
		minOutput,
		deadline,
		common.HexToHash(req.PolicyCommitment),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, createIntentResponse{IntentID: id.Hex()})
}

func (s *Server) handleGetIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := s.engine.GetIntent(common.HexToHash(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, intent)
}

func (s *Server) handleGetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.engine.GetParticipants(common.HexToHash(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"participants": participants})
}

func (s *Server) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	amount, err := s.engine.GetContribution(
		common.HexToHash(r.PathValue("id")),
		common.HexToAddress(r.PathValue("participant")),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"amount": amount.String()})
}

type contributeRequest struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	err := s.engine.Contribute(r.Context(), common.HexToAddress(req.Participant), common.HexToHash(r.PathValue("id")), amount)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]string{"status": "accepted"})
}

type executeRequest struct {
	Caller            string `json:"caller"`
	Venue             string `json:"venue"`
	Instruction       string `json:"instruction"` // hex
	ExpectedMinOutput string `json:"expected_min_output,omitempty"`
}

type executeResponse struct {
	RealizedOutput string `json:"realized_output"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	instruction, err := hex.DecodeString(strings.TrimPrefix(req.Instruction, "0x"))
	if err != nil {
		http.Error(w, "invalid instruction hex", http.StatusBadRequest)
		return
	}

	var expectedMinOut *big.Int
	if req.ExpectedMinOutput != "" {
		var ok bool
		expectedMinOut, ok = new(big.Int).SetString(req.ExpectedMinOutput, 10)
		if !ok {
			http.Error(w, "invalid expected_min_output", http.StatusBadRequest)
			return
		}
	}

	realized, err := s.engine.Execute(
		r.Context(),
		common.HexToAddress(req.Caller),
		common.HexToHash(r.PathValue("id")),
		common.HexToAddress(req.Venue),
		instruction,
		expectedMinOut,
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, executeResponse{RealizedOutput: realized.String()})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	err := s.engine.CleanupExpired(r.Context(), common.HexToHash(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "reclaimed"})
}

type setVenueRequest struct {
	Caller  string `json:"caller"`
	Venue   string `json:"venue"`
	Allowed bool   `json:"allowed"`
}

func (s *Server) handleSetVenueAllowed(w http.ResponseWriter, r *http.Request) {
	var req setVenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := s.engine.SetVenueAllowed(common.HexToAddress(req.Caller), common.HexToAddress(req.Venue), req.Allowed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorWithScope(logger.API, "Error encoding response JSON: %v", err)
	}
}

// writeError maps engine errors to HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrIntentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidParameters),
		errors.Is(err, engine.ErrZeroAmount):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotAdmin):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrIntentExpired),
		errors.Is(err, engine.ErrAlreadyExecuted),
		errors.Is(err, engine.ErrNotYetExpired),
		errors.Is(err, engine.ErrTooManyParticipants),
		errors.Is(err, engine.ErrVenueNotAllowed),
		errors.Is(err, engine.ErrPolicyViolation),
		errors.Is(err, engine.ErrBelowMinimum),
		errors.Is(err, engine.ErrInsufficientPool):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrExecutionFailed):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
