package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/oncomatch/trialmatch/internal/extract"
	"github.com/oncomatch/trialmatch/internal/ingest"
	"github.com/oncomatch/trialmatch/internal/report"
)

// Runner executes one matching attempt. Satisfied by *extract.Pipeline.
type Runner interface {
	Run(ctx context.Context, req extract.Request) (extract.Result, error)
}

// ReportPDFRenderer turns a markdown report into PDF bytes.
type ReportPDFRenderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

type Config struct {
	Pipeline     Runner
	Store        *ResultStore
	History      *History
	UploadDir    string
	RegistryPath string
	PDFRenderer  ReportPDFRenderer
}

type Server struct {
	cfg Config
}

// documentSlots fixes the intake order: imaging, then biopsy, then surgical,
// matching how the assembled record is read downstream.
var documentSlots = []struct {
	key   string
	label string
}{
	{key: "imaging", label: "Imaging Report"},
	{key: "biopsy", label: "Biopsy Report"},
	{key: "surgical", label: "Surgical Report"},
}

func NewServer(cfg Config) http.Handler {
	s := &Server{cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("/match", s.handleMatch)
	mux.HandleFunc("/result", s.handleResult)
	mux.HandleFunc("/result/report", s.handleResultReport)
	mux.HandleFunc("/result/pdf", s.handleResultPDF)
	mux.HandleFunc("/attempts", s.handleAttempts)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, condition, msg string) {
	writeJSON(w, status, map[string]any{"condition": condition, "error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, 400, "bad_request", "invalid multipart form")
		return
	}

	req := extract.Request{
		HasSurgical:   formFlag(r, "has_surgical"),
		HasMetastasis: formFlag(r, "metastasis"),
		RegistryPath:  s.cfg.RegistryPath,
	}
	for _, slot := range documentSlots {
		if !formFlag(r, "has_"+slot.key) {
			continue
		}
		doc := ingest.Document{Label: slot.label, Text: r.FormValue(slot.key + "_text")}
		path, err := s.saveUpload(r, slot.key+"_file")
		if err != nil {
			writeError(w, 500, "upload_failure", err.Error())
			return
		}
		doc.Path = path
		req.Documents = append(req.Documents, doc)
	}

	res, err := s.cfg.Pipeline.Run(r.Context(), req)
	if err != nil {
		condition := extract.ClassifyFailure(err)
		s.recordFailure(condition, err)
		log.Printf("trialmatch-server match_failed condition=%s err=%q", condition, err.Error())
		status := http.StatusBadGateway
		payload := map[string]any{"condition": condition, "error": err.Error()}
		var pe *extract.ParseError
		switch {
		case errors.Is(err, extract.ErrNoPatientData):
			status = http.StatusBadRequest
		case errors.Is(err, extract.ErrCredentialMissing):
			status = http.StatusServiceUnavailable
		case errors.As(err, &pe):
			// Attach the post-repair text so an operator can inspect the raw
			// model output.
			payload["attempted_text"] = pe.Attempted
		case condition == "pipeline_failure":
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, payload)
		return
	}

	s.cfg.Store.Set(res)
	if s.cfg.History != nil {
		if err := s.cfg.History.RecordSuccess(res); err != nil {
			log.Printf("trialmatch-server history_write_failed err=%q", err.Error())
		}
	}
	writeJSON(w, 200, map[string]any{
		"extraction": res.Extraction,
		"trials":     res.Trials,
		"matches":    len(res.Trials),
		"metadata":   res.Metadata,
	})
}

func (s *Server) recordFailure(condition string, err error) {
	if s.cfg.History == nil {
		return
	}
	if herr := s.cfg.History.RecordFailure(condition, err); herr != nil {
		log.Printf("trialmatch-server history_write_failed err=%q", herr.Error())
	}
}

func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst := filepath.Join(s.cfg.UploadDir, filepath.Base(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", header.Filename, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("write %s: %w", header.Filename, err)
	}
	return dst, nil
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, ok := s.cfg.Store.Latest()
	if !ok {
		writeJSON(w, 200, map[string]any{"message": report.NoResultPlaceholder})
		return
	}
	writeJSON(w, 200, map[string]any{
		"extraction": res.Extraction,
		"trials":     res.Trials,
		"matches":    len(res.Trials),
		"metadata":   res.Metadata,
	})
}

func (s *Server) handleResultReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, ok := s.cfg.Store.Latest()
	if !ok {
		http.Error(w, report.NoResultPlaceholder, http.StatusNotFound)
		return
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body strings.Builder
	if err := md.Convert([]byte(report.BuildMarkdown(res)), &body); err != nil {
		writeError(w, 500, "render_failure", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><meta charset='utf-8'><title>Trial Match Report</title></head><body>%s</body></html>", body.String())
}

func (s *Server) handleResultPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.PDFRenderer == nil {
		writeError(w, 501, "pdf_unavailable", "pdf rendering is not configured")
		return
	}
	res, ok := s.cfg.Store.Latest()
	if !ok {
		http.Error(w, report.NoResultPlaceholder, http.StatusNotFound)
		return
	}
	pdf, err := s.cfg.PDFRenderer.Render(r.Context(), report.BuildMarkdown(res))
	if err != nil {
		writeError(w, 500, "render_failure", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="trial-match-report.pdf"`)
	_, _ = w.Write(pdf)
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.History == nil {
		writeError(w, 404, "history_unavailable", "attempt history is not configured")
		return
	}
	attempts, err := s.cfg.History.Recent(50)
	if err != nil {
		writeError(w, 500, "history_failure", err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"attempts": attempts})
}

func formFlag(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(field))) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
