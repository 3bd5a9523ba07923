package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/store"
)

// maxFormSize bounds receipt uploads
const maxFormSize = int64(10 << 20)

// maxPatchSize bounds bill updates
const maxPatchSize = int64(1 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
		"Content-Type", "Authorization", store.HeaderUserEmail, store.HeaderUserType,
	}, ", "))
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes {"error": message} with code
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListBills returns the bills of the calling employee, or every bill
// for an admin
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get(store.HeaderUserEmail)
	if session.Type(r.Header.Get(store.HeaderUserType)) == session.TypeAdmin {
		email = ""
	}

	bills, err := s.service.ListBills(email)
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, bills)
}

// handleCreateBill stores the uploaded receipt and creates a pending bill
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File is too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	email := r.FormValue("email")
	if email == "" {
		email = r.Header.Get(store.HeaderUserEmail)
	}
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))

	record, err := s.service.CreateBill(email, header.Filename, contentType, data)
	if err != nil {
		slog.Error("Error creating bill", "filename", header.Filename, "error", err)
		if errors.Is(err, ErrMissingEmail) || errors.Is(err, ErrInvalidFile) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, store.Receipt{
		ID:       record.ID,
		FileURL:  record.FileURL,
		FileName: record.FileName,
	})
}

// handleUpdateBill applies a JSON bill to an existing one
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxPatchSize)
	var patch bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := s.service.UpdateBill(id, patch)
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, "Bill not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidBill):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("Error updating bill", "id", id, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record.Bill)
}

// handleGetFile serves a stored receipt
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetFile(r.PathValue("name"))
	if err != nil {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
