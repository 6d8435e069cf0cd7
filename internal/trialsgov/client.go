package trialsgov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL            = "https://clinicaltrials.gov"
	StudyFieldsPath           = "/api/query/study_fields"
	DefaultPageSize           = 100
	DefaultMaxStudies         = 500
	DefaultRateLimitPerMinute = 50
)

var searchFields = []string{
	"NCTId",
	"Condition",
	"BriefTitle",
	"EligibilityCriteria",
	"LeadSponsorName",
	"DesignPrimaryPurpose",
}

type Config struct {
	BaseURL            string
	PageSize           int
	MaxStudies         int
	RateLimitPerMinute int
	HTTPClient         *http.Client
}

// Study is one row returned by the study_fields endpoint.
type Study struct {
	TrialID        string `json:"trial_id"`
	Condition      string `json:"condition"`
	BriefTitle     string `json:"brief_title"`
	Eligibility    string `json:"eligibility"`
	LeadSponsor    string `json:"lead_sponsor"`
	PrimaryPurpose string `json:"primary_purpose"`
}

// Client pages through the study_fields search endpoint. Unlike the naive
// polling loop this replaces, every run has a hard study bound and a page
// bound, so an inconsistent reported total cannot loop forever.
type Client struct {
	cfg     Config
	limiter <-chan time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxStudies <= 0 {
		cfg.MaxStudies = DefaultMaxStudies
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	ticker := time.NewTicker(time.Minute / time.Duration(cfg.RateLimitPerMinute))
	return &Client{cfg: cfg, limiter: ticker.C}
}

// BuildExpr composes the search expression for a recruiting-trial query in a
// given city.
func BuildExpr(condition, city string) string {
	expr := strings.TrimSpace(condition) + " AND recruiting"
	if strings.TrimSpace(city) != "" {
		expr += " AND AREA[LocationCity]" + strings.TrimSpace(city)
	}
	return expr
}

type studyFieldsResponse struct {
	StudyFieldsResponse struct {
		NStudiesFound int `json:"NStudiesFound"`
		MinRank       int `json:"MinRank"`
		MaxRank       int `json:"MaxRank"`
		StudyFields   []map[string]json.RawMessage `json:"StudyFields"`
	} `json:"StudyFieldsResponse"`
}

// Search fetches up to MaxStudies studies matching expr, paging by rank.
func (c *Client) Search(ctx context.Context, expr string) ([]Study, error) {
	var studies []Study
	minRank := 1
	maxPages := (c.cfg.MaxStudies + c.cfg.PageSize - 1) / c.cfg.PageSize

	for page := 1; page <= maxPages; page++ {
		if err := c.waitRateLimit(ctx); err != nil {
			return studies, err
		}
		maxRank := minRank + c.cfg.PageSize - 1
		resp, err := c.fetchWithRetry(ctx, expr, minRank, maxRank)
		if err != nil {
			return studies, err
		}
		body := resp.StudyFieldsResponse
		log.Printf("trials-fetch page=%d min_rnk=%d max_rnk=%d total=%d returned=%d", page, minRank, maxRank, body.NStudiesFound, len(body.StudyFields))
		if len(body.StudyFields) == 0 {
			break
		}
		for _, raw := range body.StudyFields {
			studies = append(studies, flattenStudy(raw))
			if len(studies) >= c.cfg.MaxStudies {
				return studies, nil
			}
		}
		minRank += c.cfg.PageSize
		if minRank > body.NStudiesFound {
			break
		}
	}
	return studies, nil
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.limiter:
		return nil
	}
}

func (c *Client) fetchWithRetry(ctx context.Context, expr string, minRank, maxRank int) (studyFieldsResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, code, err := c.fetchOnce(ctx, expr, minRank, maxRank)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		retryable := code == http.StatusTooManyRequests || code >= 500 || code == 0
		if !retryable || attempt == 3 {
			break
		}
		log.Printf("trials-fetch retry attempt=%d status=%d err=%q", attempt, code, err.Error())
		if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
			return studyFieldsResponse{}, err
		}
	}
	return studyFieldsResponse{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, expr string, minRank, maxRank int) (studyFieldsResponse, int, error) {
	q := url.Values{}
	q.Set("expr", expr)
	q.Set("fields", strings.Join(searchFields, ","))
	q.Set("min_rnk", strconv.Itoa(minRank))
	q.Set("max_rnk", strconv.Itoa(maxRank))
	q.Set("fmt", "JSON")

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + StudyFieldsPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return studyFieldsResponse{}, 0, err
	}
	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return studyFieldsResponse{}, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if res.StatusCode >= 400 {
		return studyFieldsResponse{}, res.StatusCode, fmt.Errorf("status code: %d body=%s", res.StatusCode, truncateForLog(string(b)))
	}
	var parsed studyFieldsResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return studyFieldsResponse{}, res.StatusCode, fmt.Errorf("decode study_fields response: %w", err)
	}
	return parsed, res.StatusCode, nil
}

// flattenStudy takes the first element of each field array, matching the
// study_fields wire shape where every field is a list.
func flattenStudy(raw map[string]json.RawMessage) Study {
	first := func(key string) string {
		var vals []string
		if err := json.Unmarshal(raw[key], &vals); err != nil || len(vals) == 0 {
			return ""
		}
		return vals[0]
	}
	return Study{
		TrialID:        first("NCTId"),
		Condition:      first("Condition"),
		BriefTitle:     first("BriefTitle"),
		Eligibility:    first("EligibilityCriteria"),
		LeadSponsor:    first("LeadSponsorName"),
		PrimaryPurpose: first("DesignPrimaryPurpose"),
	}
}

func truncateForLog(s string) string {
	if len(s) > 512 {
		return s[:512] + "..."
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}
