package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/log"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Fetcher downloads and parses HTML pages with retries and politeness delays.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Attempts  int

	// Pause after a successful fetch and backoff after a failed one.
	Politeness [2]time.Duration
	Backoff    [2]time.Duration

	// Sleep is swapped out in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	log *zap.Logger
}

func NewFetcher(lg *zap.Logger) *Fetcher {
	if lg == nil {
		lg = log.L()
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: 30 * time.Second},
		UserAgent:  defaultUserAgent,
		Attempts:   3,
		Politeness: [2]time.Duration{time.Second, 3 * time.Second},
		Backoff:    [2]time.Duration{2 * time.Second, 5 * time.Second},
		Sleep:      sleepCtx,
		log:        lg,
	}
}

// GetPage fetches url and returns the parsed document. Non-2xx responses count
// as failed attempts.
func (f *Fetcher) GetPage(ctx context.Context, url string) (*goquery.Document, error) {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		doc, err := f.fetchOnce(ctx, url)
		if err == nil {
			if err := f.Sleep(ctx, jitter(f.Politeness)); err != nil {
				return nil, err
			}
			return doc, nil
		}
		lastErr = err
		f.log.Warn("page fetch failed",
			zap.String("url", url), zap.Int("attempt", i), zap.Int("of", attempts), zap.Error(err))
		if i < attempts {
			if err := f.Sleep(ctx, jitter(f.Backoff)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("get %s: %d attempts: %w", url, attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func jitter(r [2]time.Duration) time.Duration {
	lo, hi := r[0], r[1]
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
