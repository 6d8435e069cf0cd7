package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oncomatch/trialmatch/internal/trialsgov"
)

// trials-fetch pulls recruiting studies from ClinicalTrials.gov and writes a
// registry template CSV. The HR Status, HER2 Status, and Phase Type columns
// are left blank for a curator to fill in before the file is usable for
// matching.
func main() {
	var (
		condition = flag.String("condition", "breast cancer", "Condition search term")
		city      = flag.String("city", "", "Restrict to a location city")
		max       = flag.Int("max", trialsgov.DefaultMaxStudies, "Maximum studies to fetch")
		out       = flag.String("out", "registry_template.csv", "Output CSV path")
	)
	flag.Parse()

	if strings.TrimSpace(*condition) == "" {
		log.Fatal("-condition is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := trialsgov.NewClient(trialsgov.Config{MaxStudies: *max})
	expr := trialsgov.BuildExpr(*condition, *city)
	log.Printf("trials-fetch searching expr=%q max=%d", expr, *max)

	studies, err := client.Search(ctx, expr)
	if err != nil {
		log.Fatalf("trials-fetch search_failed err=%q", err.Error())
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("trials-fetch create_failed path=%s err=%q", *out, err.Error())
	}
	defer f.Close()
	if err := trialsgov.WriteRegistryTemplate(f, studies); err != nil {
		log.Fatalf("trials-fetch write_failed path=%s err=%q", *out, err.Error())
	}
	log.Printf("trials-fetch template_written path=%s studies=%d", *out, len(studies))
}
