// Package iex fetches per-symbol quote and statistics data from the
// IEX-style batch data endpoints.
package iex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"equityflow/config"
	"equityflow/logger"
	"equityflow/models"
)

const (
	datasetQuote = "quote"
	datasetStats = "advanced_stats"
)

// Client issues HTTP requests against the quote API. Requests are paced
// by a single limiter shared across all fetch workers so parallel batches
// stay inside the API rate limits.
type Client struct {
	config  *config.Config
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	log     *logger.Log
}

// NewClient builds a Client from configuration. A missing credential is a
// configuration error; no network I/O happens before it is checked.
func NewClient(cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.Source.IEX.Token) == "" {
		return nil, fmt.Errorf("api credential is required (set source.iex.token or IEX_CLOUD_API_TOKEN)")
	}

	rl := cfg.Reader.RateLimit
	rps := rl.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := rl.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Reader.Timeout},
		baseURL: strings.TrimRight(cfg.Source.IEX.BaseURL, "/"),
		token:   cfg.Source.IEX.Token,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.GetLogger(),
	}, nil
}

// FetchAll retrieves quote and stats data for every symbol and returns
// exactly one FetchResult per requested symbol, in request order. Symbol
// failures are markers in the result slice, not errors; the returned error
// covers invalid input only.
func (c *Client) FetchAll(ctx context.Context, symbols []string) ([]models.FetchResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}
	for _, s := range symbols {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("empty symbol in request")
		}
	}

	batches := chunkSymbols(symbols, c.config.Source.IEX.BatchSize)

	start := time.Now()
	log := c.log.WithComponent("iex_client")
	log.WithFields(logger.Fields{
		"symbols": len(symbols),
		"batches": len(batches),
	}).Info("starting fetch")

	workers := c.config.Reader.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(batches) {
		workers = len(batches)
	}

	batchCh := make(chan []string)
	resultCh := make(chan models.FetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchCh {
				for _, res := range c.fetchBatch(ctx, batch) {
					resultCh <- res
				}
			}
		}()
	}

	go func() {
		defer close(batchCh)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchCh <- batch:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	bySymbol := make(map[string]models.FetchResult, len(symbols))
	for res := range resultCh {
		bySymbol[res.Symbol] = res
	}

	var fetched int
	results := make([]models.FetchResult, 0, len(symbols))
	for _, sym := range symbols {
		res, ok := bySymbol[sym]
		if !ok {
			// A worker abandoned the batch (context cancelled). Keep the
			// one-outcome-per-symbol invariant with an explicit marker.
			res = models.FailedResult(sym, models.FailServerError, "fetch aborted")
		}
		if res.OK() {
			fetched++
			logger.IncrementFetchOK()
		} else {
			logger.IncrementFetchFailure(string(res.Fail.Kind))
		}
		results = append(results, res)
	}

	c.log.LogMetric("iex_client", "symbols_fetched", fetched, "counter", logger.Fields{})
	c.log.LogMetric("iex_client", "symbols_failed", len(symbols)-fetched, "counter", logger.Fields{})
	logger.LogPerformanceEntry(log, "iex_client", "fetch_all", time.Since(start), logger.Fields{
		"symbols": len(symbols),
	})

	return results, nil
}

// fetchBatch retrieves one batch of symbols, falling back to individual
// retrieval when the batch form is rejected for the requested field set.
func (c *Client) fetchBatch(ctx context.Context, symbols []string) []models.FetchResult {
	joined := strings.Join(symbols, ",")

	quotes, err := c.get(ctx, datasetQuote, joined)
	if err == nil {
		var stats []json.RawMessage
		stats, err = c.get(ctx, datasetStats, joined)
		if err == nil {
			if len(quotes) != len(symbols) || len(stats) != len(symbols) {
				if len(symbols) > 1 {
					return c.fetchIndividually(ctx, symbols)
				}
				return []models.FetchResult{models.FailedResult(symbols[0], models.FailParseError,
					fmt.Sprintf("response length mismatch: %d quotes, %d stats", len(quotes), len(stats)))}
			}

			fetchedAt := time.Now().UTC()
			results := make([]models.FetchResult, 0, len(symbols))
			for i, sym := range symbols {
				results = append(results, parseRecord(sym, quotes[i], stats[i], fetchedAt))
			}
			return results
		}
	}

	if len(symbols) > 1 && isBatchUnsupported(err) {
		c.log.WithComponent("iex_client").WithFields(logger.Fields{
			"symbols": len(symbols),
		}).Warn("batch retrieval rejected, falling back to individual requests")
		return c.fetchIndividually(ctx, symbols)
	}

	kind, msg := classifyError(err)
	results := make([]models.FetchResult, 0, len(symbols))
	for _, sym := range symbols {
		results = append(results, models.FailedResult(sym, kind, msg))
	}
	return results
}

// fetchIndividually retrieves each symbol with its own request pair so one
// bad symbol cannot poison the rest of a batch.
func (c *Client) fetchIndividually(ctx context.Context, symbols []string) []models.FetchResult {
	results := make([]models.FetchResult, 0, len(symbols))
	for _, sym := range symbols {
		results = append(results, c.fetchBatch(ctx, []string{sym})...)
	}
	return results
}

// get performs one rate-limited GET against a dataset endpoint, retrying
// with exponential backoff while the API reports rate limiting. The retry
// budget comes from reader.retry.max_attempts.
func (c *Client) get(ctx context.Context, dataset, symbols string) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?token=%s",
		c.baseURL, dataset, url.PathEscape(symbols), url.QueryEscape(c.token))

	retry := c.config.Reader.Retry
	b := &backoff.Backoff{
		Min:    retry.BaseDelay,
		Max:    retry.MaxDelay,
		Factor: 2,
		Jitter: true,
	}

	var body []byte
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		var status int
		var err error
		status, body, err = c.doRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			if attempt >= retry.MaxAttempts {
				return nil, &apiError{status: status, dataset: dataset}
			}
			delay := b.Duration()
			c.log.WithComponent("iex_client").WithFields(logger.Fields{
				"dataset": dataset,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("rate limited, backing off")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		if status != http.StatusOK {
			return nil, &apiError{status: status, dataset: dataset}
		}
		break
	}

	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &parseError{dataset: dataset, err: err}
	}
	return payload, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Equityflow/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// parseRecord converts one batch slot into a record or a failure marker.
// A null or empty object slot means the API has no data for the symbol.
func parseRecord(symbol string, quoteRaw, statsRaw json.RawMessage, fetchedAt time.Time) models.FetchResult {
	if isEmptySlot(quoteRaw) || isEmptySlot(statsRaw) {
		return models.FailedResult(symbol, models.FailNotFound, "symbol not found")
	}

	var quote models.Quote
	if err := json.Unmarshal(quoteRaw, &quote); err != nil {
		return models.FailedResult(symbol, models.FailParseError, fmt.Sprintf("quote: %v", err))
	}

	var stats models.AdvancedStats
	if err := json.Unmarshal(statsRaw, &stats); err != nil {
		return models.FailedResult(symbol, models.FailParseError, fmt.Sprintf("advanced_stats: %v", err))
	}

	return models.FetchResult{
		Symbol: symbol,
		Record: &models.SymbolRecord{
			Symbol:    symbol,
			Quote:     quote,
			Stats:     stats,
			FetchedAt: fetchedAt,
		},
	}
}

func isEmptySlot(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("{}"))
}

func chunkSymbols(symbols []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	batches := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return batches
}

// apiError is a non-OK HTTP status from the quote API.
type apiError struct {
	status  int
	dataset string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s request failed with HTTP %d", e.dataset, e.status)
}

// parseError is a response body that could not be decoded as the expected
// positional JSON array.
type parseError struct {
	dataset string
	err     error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.dataset, e.err)
}

func (e *parseError) Unwrap() error {
	return e.err
}

// isBatchUnsupported reports whether a batch request was rejected in a way
// that suggests the batch form itself, not the symbols, is the problem.
func isBatchUnsupported(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status == http.StatusBadRequest || apiErr.status == http.StatusNotFound
	}
	return false
}

// classifyError maps a request error onto the per-symbol failure taxonomy.
func classifyError(err error) (models.FailKind, string) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.status == http.StatusNotFound:
			return models.FailNotFound, apiErr.Error()
		case apiErr.status == http.StatusTooManyRequests:
			return models.FailRateLimited, apiErr.Error()
		default:
			return models.FailServerError, apiErr.Error()
		}
	}
	var parseErr *parseError
	if errors.As(err, &parseErr) {
		return models.FailParseError, parseErr.Error()
	}
	if err == nil {
		return models.FailServerError, "unknown failure"
	}
	return models.FailServerError, err.Error()
}
