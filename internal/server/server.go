// Package server is the stub localhost listener for browser-extension
// integration. It authenticates against the vault directory's master
// password hash and hands out ephemeral session tokens; the password routes
// themselves are not implemented yet. Nothing here touches the master key
// or decrypted secrets.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kv-gits/rpm/internal/auth"
	"github.com/kv-gits/rpm/internal/crypto"
	"github.com/kv-gits/rpm/internal/vaultcfg"
)

type Config struct {
	Addr     string
	VaultDir string
	TokenTTL time.Duration
}

type Server struct {
	cfg Config
	lim *multiLimiter

	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

func New(cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Server{
		cfg: cfg,
		// Master password guesses are expensive for the caller anyway;
		// this only blunts scripted hammering.
		lim:    newMultiLimiter(rate.Every(2*time.Second), 5, 10*time.Minute),
		tokens: make(map[string]time.Time),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/auth", s.handleAuth)
	mux.HandleFunc("/api/passwords", s.handlePasswords)
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Printf("extension listener on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "rpm-api"})
}

type authRequest struct {
	MasterPassword string `json:"master_password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.lim.allow(clientKey(r)) {
		http.Error(w, "too many attempts", http.StatusTooManyRequests)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	// Load fresh: another process may have provisioned or reprovisioned
	// the directory since we started.
	cfg, err := vaultcfg.Load(s.cfg.VaultDir)
	if err != nil {
		http.Error(w, "vault unavailable", http.StatusInternalServerError)
		return
	}
	if !cfg.HasMasterPassword() {
		http.Error(w, "vault not provisioned", http.StatusUnauthorized)
		return
	}
	ok, err := auth.VerifyPassword(req.MasterPassword, cfg.MasterPasswordHash)
	if err != nil || !ok {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	token, err := crypto.GenerateToken()
	if err != nil {
		http.Error(w, "token generation failed", http.StatusInternalServerError)
		return
	}
	expiry := time.Now().Add(s.cfg.TokenTTL)
	s.mu.Lock()
	s.tokens[token] = expiry
	for t, exp := range s.tokens {
		if time.Now().After(exp) {
			delete(s.tokens, t)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, authResponse{Token: token, ExpiresAt: expiry})
}

// ValidToken reports whether the token was issued by this server and has
// not expired.
func (s *Server) ValidToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	return ok && time.Now().Before(exp)
}

func (s *Server) handlePasswords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
		http.Error(w, "not implemented", http.StatusNotImplemented)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
