package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oncomatch/trialmatch/internal/extract"
	"github.com/oncomatch/trialmatch/internal/ingest"
	"github.com/oncomatch/trialmatch/internal/report"
	"github.com/oncomatch/trialmatch/internal/server"
)

func main() {
	_ = godotenv.Load()

	var (
		imagingPath  = flag.String("imaging", "", "Path to the imaging report (pdf, docx, or plain text)")
		imagingText  = flag.String("imaging-text", "", "Pasted imaging report text (overrides -imaging)")
		biopsyPath   = flag.String("biopsy", "", "Path to the biopsy report")
		biopsyText   = flag.String("biopsy-text", "", "Pasted biopsy report text (overrides -biopsy)")
		surgicalPath = flag.String("surgical", "", "Path to the surgical report")
		surgicalText = flag.String("surgical-text", "", "Pasted surgical report text (overrides -surgical)")
		metastasis   = flag.Bool("metastasis", false, "Known distant metastasis")
		registry     = flag.String("registry", "registry.csv", "Path to the trial registry CSV")
		out          = flag.String("out", "", "Write the markdown report to this file (default: stdout)")
		historyPath  = flag.String("history", os.Getenv("TRIALMATCH_HISTORY_DB"), "SQLite attempt-history path (optional)")
	)
	flag.Parse()

	var history *server.History
	if strings.TrimSpace(*historyPath) != "" {
		h, err := server.OpenHistory(*historyPath)
		if err != nil {
			log.Fatalf("trialmatch history_open_failed path=%s err=%q", *historyPath, err.Error())
		}
		defer h.Close()
		history = h
	}

	req := extract.Request{
		HasMetastasis: *metastasis,
		RegistryPath:  *registry,
	}
	for _, slot := range []struct {
		label, text, path string
	}{
		{"Imaging Report", *imagingText, *imagingPath},
		{"Biopsy Report", *biopsyText, *biopsyPath},
		{"Surgical Report", *surgicalText, *surgicalPath},
	} {
		if strings.TrimSpace(slot.text) == "" && strings.TrimSpace(slot.path) == "" {
			continue
		}
		req.Documents = append(req.Documents, ingest.Document{Label: slot.label, Text: slot.text, Path: slot.path})
	}
	req.HasSurgical = strings.TrimSpace(*surgicalText) != "" || strings.TrimSpace(*surgicalPath) != ""
	if len(req.Documents) == 0 {
		log.Fatal("no report inputs given; provide at least one of -imaging, -biopsy, -surgical (or the -*-text variants)")
	}

	caller, err := extract.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatalf("trialmatch llm_setup_failed err=%q", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline := extract.NewPipeline(caller)
	res, err := pipeline.Run(ctx, req)
	if err != nil {
		condition := extract.ClassifyFailure(err)
		if history != nil {
			if herr := history.RecordFailure(condition, err); herr != nil {
				log.Printf("trialmatch history_write_failed err=%q", herr.Error())
			}
		}
		log.Fatalf("trialmatch run_failed condition=%s err=%q", condition, err.Error())
	}
	if history != nil {
		if herr := history.RecordSuccess(res); herr != nil {
			log.Printf("trialmatch history_write_failed err=%q", herr.Error())
		}
	}

	md := report.BuildMarkdown(res)
	if *out == "" {
		fmt.Print(md)
		return
	}
	if err := os.WriteFile(*out, []byte(md), 0o644); err != nil {
		log.Fatalf("trialmatch report_write_failed path=%s err=%q", *out, err.Error())
	}
	log.Printf("trialmatch report_written path=%s matches=%d phase=%s", *out, len(res.Trials), res.Extraction.Phase)
}
