package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/log"
)

// Scraper produces validated tenders for one source.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]domain.Tender, error)
}

// CountryScraper serves a national procurement portal. Without a live source
// it returns the built-in sample records.
type CountryScraper struct {
	name    string
	country string
	baseURL string
	sample  func(now time.Time) []RawTender

	live    *HTMLSource
	fetcher *Fetcher
	log     *zap.Logger
}

type Option func(*CountryScraper)

// WithLive switches the scraper to parsing the portal's HTML pages.
func WithLive(f *Fetcher) Option {
	return func(s *CountryScraper) {
		s.fetcher = f
		s.live = NewHTMLSource(s.baseURL, s.country)
	}
}

func WithLogger(lg *zap.Logger) Option {
	return func(s *CountryScraper) { s.log = lg }
}

func newCountry(name, country, baseURL string, sample func(time.Time) []RawTender, opts ...Option) *CountryScraper {
	s := &CountryScraper{name: name, country: country, baseURL: baseURL, sample: sample, log: log.L()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("source", name))
	return s
}

func NewNigeria(opts ...Option) *CountryScraper {
	return newCountry("nigeria", "Nigeria", "https://www.tenders.gov.ng", nigeriaSample, opts...)
}

func NewKenya(opts ...Option) *CountryScraper {
	return newCountry("kenya", "Kenya", "https://www.tenders.go.ke", kenyaSample, opts...)
}

func NewGhana(opts ...Option) *CountryScraper {
	return newCountry("ghana", "Ghana", "https://www.ghanatenders.gov.gh", ghanaSample, opts...)
}

func (s *CountryScraper) Name() string    { return s.name }
func (s *CountryScraper) Country() string { return s.country }

func (s *CountryScraper) Scrape(ctx context.Context) ([]domain.Tender, error) {
	s.log.Info("scrape started", zap.String("country", s.country), zap.Bool("live", s.live != nil))

	var raws []RawTender
	if s.live != nil {
		var err error
		if raws, err = s.live.Fetch(ctx, s.fetcher, s.log); err != nil {
			return nil, err
		}
	} else {
		raws = s.sample(now())
	}

	out := Collect(s.log, s.name, raws)
	s.log.Info("scrape finished", zap.Int("raw", len(raws)), zap.Int("valid", len(out)))
	return out, nil
}
