package server

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/MeKo-Tech/labelscan/internal/parser"
	"github.com/MeKo-Tech/labelscan/internal/pipeline"
	_ "golang.org/x/image/bmp"
)

// ScanResponse is the JSON body returned by /scan and streamed over
// /ws/scan.
type ScanResponse struct {
	RunID       string              `json:"run_id"`
	State       string              `json:"state"`
	Credentials []parser.Credential `json:"credentials"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// scanHandler accepts a multipart image upload and runs the pipeline on it.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Missing image field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		scanRequestsTotal.WithLabelValues("http", "error").Inc()
		http.Error(w, "Unsupported image format", http.StatusBadRequest)
		return
	}

	result := s.runOnImage(r, img)
	scanRequestsTotal.WithLabelValues("http", "success").Inc()
	writeJSON(w, toScanResponse(result))
}

func (s *Server) runOnImage(r *http.Request, img image.Image) pipeline.Result {
	buf := frame.BufferFromImage(img)
	return s.orchestrator.Run(r.Context(), buf, 0, time.Now())
}

func toScanResponse(result pipeline.Result) ScanResponse {
	creds := result.Credentials
	if creds == nil {
		creds = []parser.Credential{}
	}
	return ScanResponse{
		RunID:       result.RunID,
		State:       string(result.State),
		Credentials: creds,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
	}
}
