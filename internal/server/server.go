// Package server is the HTTP boundary: request parsing, auth-token
// checking, and response shaping around the catalog app.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"scarletbooks/internal/app"
	"scarletbooks/internal/schema"
	"scarletbooks/internal/util"
	"scarletbooks/pkg/domain"
)

const defaultMaxImageBytes = 10 * 1024 * 1024

// Config wires required dependencies for the HTTP server.
type Config struct {
	App           *app.App
	AuthToken     string
	MaxImageBytes int64
}

// Server exposes the catalog endpoints.
type Server struct {
	app           *app.App
	authToken     string
	maxImageBytes int64
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("app is required")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("auth token is required")
	}
	maxImageBytes := cfg.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	s := &Server{
		app:           cfg.App,
		authToken:     cfg.AuthToken,
		maxImageBytes: maxImageBytes,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped with request logging and CORS.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog(util.WithCORS(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// catalog mutations (admin token required)
	s.mux.Handle("/insert", s.withAdmin(s.handleInsert))
	s.mux.Handle("/update", s.withAdmin(s.handleUpdate))
	s.mux.Handle("/delete", s.withAdmin(s.handleDelete))

	// public reads
	s.mux.HandleFunc("/books", s.handleBooks)
	s.mux.HandleFunc("/banners", s.handleBanners)
	s.mux.HandleFunc("/images/", s.handleImage)

	// newsletter
	s.mux.HandleFunc("/newsletter/subscribe", s.handleSubscribe)
	s.mux.Handle("/newsletter/emails", s.withAdmin(s.handleSubscriberEmails))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withAdmin rejects requests whose token does not equal the configured
// secret. The token travels as a bearer header, or as the "token" field of
// a form or JSON body.
func (s *Server) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes)
		token, ok := s.requestToken(r)
		if !ok || token != s.authToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.app.Insert)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.app.Update)
}

type mutationFunc func(domain.Kind, domain.Record, []byte, bool) (domain.Record, error)

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, apply mutationFunc) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	req, err := parseMutationRequest(r, s.maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := apply(req.kind, req.data, req.image, req.parse)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownKind) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("mutation failed", "kind", string(req.kind), "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

type deleteRequest struct {
	InsertType string `json:"insert_type"`
	ItemID     any    `json:"item_id"`
	Token      string `json:"token"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	itemID := itemIDString(req.ItemID)
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	deleted, err := s.app.Delete(domain.Kind(req.InsertType), itemID)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownKind) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("delete failed", "kind", req.InsertType, "item_id", itemID, "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	parse := parseBoolParam(r, "parse")
	books, err := s.app.ListBooks(parse)
	if err != nil {
		slog.Error("list books failed", "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	if len(books) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleBanners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	banners, err := s.app.ListBanners()
	if err != nil {
		slog.Error("list banners failed", "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	if len(banners) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// handleImage serves raw image bytes by stored filename.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	fileName := strings.TrimPrefix(r.URL.Path, "/images/")
	if fileName == "" || strings.Contains(fileName, "/") {
		notFound(w, "not found")
		return
	}
	path, ok := s.app.ImagePath(fileName)
	if !ok {
		notFound(w, "image not found")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

type subscribeRequest struct {
	EmailAddress string `json:"email_address"`
	Name         string `json:"name"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.app.Subscribe(strings.TrimSpace(req.EmailAddress), strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, app.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("subscribe failed", "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

func (s *Server) handleSubscriberEmails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	emails, err := s.app.ListSubscriberEmails()
	if err != nil {
		slog.Error("list subscribers failed", "err", err,
			"request_id", util.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "store operation failed")
		return
	}
	if emails == nil {
		emails = []string{}
	}
	writeJSON(w, http.StatusOK, emails)
}

// mutationRequest is the decoded form of /insert and /update calls.
type mutationRequest struct {
	kind  domain.Kind
	data  domain.Record
	image []byte
	parse bool
}

// parseMutationRequest accepts either multipart form data (fields:
// insert_type, data, parse, optional image file) or a JSON body with the
// same field names.
func parseMutationRequest(r *http.Request, maxImageBytes int64) (mutationRequest, error) {
	var req mutationRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return req, fmt.Errorf("invalid multipart form")
		}
		req.kind = domain.Kind(r.FormValue("insert_type"))
		req.parse = parseBoolValue(r.FormValue("parse"))
		if err := json.Unmarshal([]byte(r.FormValue("data")), &req.data); err != nil {
			return req, fmt.Errorf("invalid data payload")
		}
		file, _, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
			if err != nil {
				return req, fmt.Errorf("read image: %v", err)
			}
			req.image = image
		}
		return req, nil
	}

	var body struct {
		InsertType string        `json:"insert_type"`
		Data       domain.Record `json:"data"`
		Parse      bool          `json:"parse"`
		Token      string        `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return req, fmt.Errorf("invalid request body")
	}
	req.kind = domain.Kind(body.InsertType)
	req.data = body.Data
	req.parse = body.Parse
	if req.data == nil {
		return req, fmt.Errorf("data payload is required")
	}
	return req, nil
}

// requestToken extracts the auth token from the bearer header, a form
// field, or a JSON body (restoring the body for later decoding). The body
// is already bounded by MaxBytesReader in withAdmin; the configured limit
// applies to every branch.
func (s *Server) requestToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		return token, token != ""
	}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.maxImageBytes); err != nil {
			return "", false
		}
		token := r.FormValue("token")
		return token, token != ""
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", false
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	var probe struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	return probe.Token, probe.Token != ""
}

func parseBoolParam(r *http.Request, name string) bool {
	return parseBoolValue(r.URL.Query().Get(name))
}

func parseBoolValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func itemIDString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return fmt.Sprintf("%d", int64(x))
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
