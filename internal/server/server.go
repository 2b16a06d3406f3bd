// Package server exposes the verification service over HTTP.
//
// Endpoints:
//   - POST /ocr/verify: multipart upload ("file") of one certificate image.
//     Responds with the extracted record and the generated heatmap URL.
//   - GET /ocr/heatmap/{filename}: raw overlay image bytes.
//   - GET /ocr/records: the processed-record log.
//   - GET /health: liveness probe.
//
// Uploads are spooled to a request-scoped temporary file that is removed
// unconditionally after processing, success or failure.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"certverify/internal/logger"
	"certverify/internal/verify"
	"certverify/pkg/models"
)

// maxUploadBytes bounds the multipart form size (50MB).
const maxUploadBytes = 50 << 20

// Verifier is the request-processing contract, satisfied by
// *verify.Service.
type Verifier interface {
	Verify(ctx context.Context, candidatePath string) (*verify.Result, error)
}

// RecordReader reads back the processed-record log, satisfied by
// *record.CSVSink.
type RecordReader interface {
	ReadAll(ctx context.Context) ([]models.Record, error)
}

// Server routes HTTP requests to the verification service.
type Server struct {
	verifier   Verifier
	records    RecordReader
	uploadDir  string
	overlayDir string
	log        zerolog.Logger
}

// New creates a server. records may be nil, which disables /ocr/records.
func New(verifier Verifier, records RecordReader, uploadDir, overlayDir string) *Server {
	return &Server{
		verifier:   verifier,
		records:    records,
		uploadDir:  uploadDir,
		overlayDir: overlayDir,
		log:        logger.WithComponent("server"),
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ocr/verify", s.handleVerify)
	mux.HandleFunc("GET /ocr/heatmap/{filename}", s.handleHeatmap)
	mux.HandleFunc("GET /ocr/records", s.handleRecords)
	mux.HandleFunc("GET /health", s.handleHealth)
	return corsMiddleware(mux)
}

// ListenAndServe starts the server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("HTTP server starting")
	return http.ListenAndServe(addr, s.Handler())
}

// verifyResponse is the JSON envelope of a successful verification.
type verifyResponse struct {
	Status        string        `json:"status"`
	ExtractedData models.Record `json:"extracted_data"`
	HeatmapURL    string        `json:"heatmap_url"`
	Score         *float64      `json:"score,omitempty"`
	ScoreValid    bool          `json:"score_valid"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := logger.WithRequestID(requestID)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		log.Error().Err(err).Str("dir", s.uploadDir).Msg("Failed to create upload dir")
		respondError(w, "Upload storage unavailable", http.StatusInternalServerError)
		return
	}

	uploadPath := filepath.Join(s.uploadDir, requestID+"_"+filepath.Base(header.Filename))
	if err := spoolUpload(uploadPath, file); err != nil {
		log.Error().Err(err).Str("path", uploadPath).Msg("Failed to save upload")
		respondError(w, "Failed to save upload", http.StatusInternalServerError)
		return
	}
	// Request-scoped temporary input: removed on every exit path to bound
	// disk usage.
	defer func() {
		if err := os.Remove(uploadPath); err != nil {
			log.Warn().Err(err).Str("path", uploadPath).Msg("Failed to remove temporary upload")
		}
	}()

	log.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Msg("Processing uploaded certificate")

	result, err := s.verifier.Verify(r.Context(), uploadPath)
	if err != nil {
		log.Error().Err(err).Msg("Verification failed")
		respondError(w, "Verification failed", http.StatusInternalServerError)
		return
	}

	resp := verifyResponse{
		Status:        "success",
		ExtractedData: result.Record,
		HeatmapURL:    "/ocr/heatmap/" + result.OverlayName,
		ScoreValid:    result.ScoreValid,
	}
	if result.ScoreValid {
		score := result.Score
		resp.Score = &score
	}
	respondJSON(w, resp, http.StatusOK)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		respondError(w, "Invalid overlay name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.overlayDir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, "Overlay not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		respondError(w, "Record log not available", http.StatusNotFound)
		return
	}
	records, err := s.records.ReadAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read record log")
		respondError(w, "Failed to read record log", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"records": records}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func spoolUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// corsMiddleware allows the frontend to talk to the API cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
