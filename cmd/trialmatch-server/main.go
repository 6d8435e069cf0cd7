package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oncomatch/trialmatch/internal/extract"
	"github.com/oncomatch/trialmatch/internal/server"
)

func main() {
	_ = godotenv.Load()

	var (
		addr      = flag.String("addr", ":8080", "Listen address")
		uploadDir = flag.String("upload-dir", "./uploads", "Directory for uploaded report files")
		registry  = flag.String("registry", "registry.csv", "Path to the trial registry CSV")
	)
	flag.Parse()

	caller, err := extract.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatalf("trialmatch-server llm_setup_failed err=%q", err.Error())
	}

	cfg := server.Config{
		Pipeline:     extract.NewPipeline(caller),
		Store:        server.NewResultStore(),
		UploadDir:    *uploadDir,
		RegistryPath: *registry,
		PDFRenderer:  server.NewChromiumPDFRenderer(),
	}

	if dbPath := strings.TrimSpace(os.Getenv("TRIALMATCH_HISTORY_DB")); dbPath != "" {
		history, err := server.OpenHistory(dbPath)
		if err != nil {
			log.Fatalf("trialmatch-server history_open_failed path=%s err=%q", dbPath, err.Error())
		}
		defer history.Close()
		cfg.History = history
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("trialmatch-server listening addr=%s registry=%s model=%s", *addr, *registry, caller.ModelName())
	srv := &http.Server{Addr: *addr, Handler: server.NewServer(cfg)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
