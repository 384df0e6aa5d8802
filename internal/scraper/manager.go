package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/queue"
)

const SampleSource = "sample"

// TenderStore is the persistence the manager needs.
type TenderStore interface {
	// UpsertTender replaces the tender with the same (title, organization)
	// or inserts it. inserted reports which one happened.
	UpsertTender(ctx context.Context, t domain.Tender) (inserted bool, err error)
	// InsertTenderIfAbsent never touches an existing (title, organization).
	InsertTenderIfAbsent(ctx context.Context, t domain.Tender) (inserted bool, err error)
}

// Locker guards a job across scraper processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type SaveResult struct {
	Inserted int
	Updated  int
	Failed   int
}

type Manager struct {
	store    TenderStore
	log      *zap.Logger
	scrapers []Scraper
	byName   map[string]Scraper

	Events   queue.Publisher
	Exchange string
	Locker   Locker
	LockTTL  time.Duration
}

func NewManager(store TenderStore, lg *zap.Logger, scrapers ...Scraper) *Manager {
	if lg == nil {
		lg = log.L()
	}
	m := &Manager{
		store:    store,
		log:      lg,
		byName:   make(map[string]Scraper, len(scrapers)),
		Events:   queue.NewNoop(),
		Exchange: queue.DefaultExchange,
		LockTTL:  30 * time.Minute,
	}
	for _, s := range scrapers {
		m.scrapers = append(m.scrapers, s)
		m.byName[s.Name()] = s
	}
	return m
}

// Sources lists registered scraper names in registration order.
func (m *Manager) Sources() []string {
	out := make([]string, 0, len(m.scrapers))
	for _, s := range m.scrapers {
		out = append(out, s.Name())
	}
	return out
}

// RunSource runs one scraper and persists its output. Unknown names and
// scraper errors are logged, never returned.
func (m *Manager) RunSource(ctx context.Context, name string) SaveResult {
	s, ok := m.byName[name]
	if !ok {
		m.log.Error("unknown scraper", zap.String("source", name))
		return SaveResult{}
	}
	lg := m.log.With(zap.String("source", name))
	start := time.Now()
	defer func() { metrics.ScrapeDuration.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	tenders, err := s.Scrape(ctx)
	if err != nil {
		lg.Error("scrape failed", zap.Error(err))
		return SaveResult{}
	}
	res, inserted := m.saveTenders(ctx, tenders, name)
	lg.Info("source run complete",
		zap.Int("scraped", len(tenders)), zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated), zap.Int("failed", res.Failed),
		zap.Duration("took", time.Since(start)))

	if res.Inserted+res.Updated > 0 {
		m.publishScraped(ctx, s, inserted, res)
	}
	return res
}

// RunAll runs every source sequentially in registration order.
func (m *Manager) RunAll(ctx context.Context) {
	m.log.Info("running all scrapers", zap.Int("sources", len(m.scrapers)))
	for _, s := range m.scrapers {
		if ctx.Err() != nil {
			m.log.Warn("run all interrupted", zap.Error(ctx.Err()))
			return
		}
		m.RunSource(ctx, s.Name())
	}
}

// SaveTenders stamps provenance and upserts each tender by (title, organization).
// A failed write is logged and the loop moves on.
func (m *Manager) SaveTenders(ctx context.Context, tenders []domain.Tender, source string) SaveResult {
	res, _ := m.saveTenders(ctx, tenders, source)
	return res
}

// saveTenders also returns the tenders that were new to the store.
func (m *Manager) saveTenders(ctx context.Context, tenders []domain.Tender, source string) (SaveResult, []domain.Tender) {
	var (
		res      SaveResult
		inserted []domain.Tender
	)
	for _, t := range tenders {
		at := now()
		t.SourceCountry = source
		t.ScrapedAt = &at

		ok, err := m.store.UpsertTender(ctx, t)
		switch {
		case err != nil:
			res.Failed++
			metrics.SavedTenders.WithLabelValues(source, "failed").Inc()
			m.log.Error("save tender failed",
				zap.String("source", source), zap.String("title", t.Title), zap.Error(err))
		case ok:
			res.Inserted++
			inserted = append(inserted, t)
			metrics.SavedTenders.WithLabelValues(source, "inserted").Inc()
		default:
			res.Updated++
			metrics.SavedTenders.WithLabelValues(source, "updated").Inc()
		}
	}
	return res, inserted
}

// LoadSampleData inserts the tenders from a JSON file that are not stored yet.
// A missing file is only a warning.
func (m *Manager) LoadSampleData(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		m.log.Warn("sample data file not found", zap.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sample data: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return 0, fmt.Errorf("decode sample data: %w", err)
	}
	raws := make([]RawTender, 0, len(items))
	for i, item := range items {
		var raw RawTender
		if err := json.Unmarshal(item, &raw); err != nil {
			m.log.Warn("sample record skipped", zap.Int("index", i), zap.Error(err))
			metrics.ScrapedRecords.WithLabelValues(SampleSource, "rejected").Inc()
			continue
		}
		raws = append(raws, raw)
	}

	loaded := 0
	for _, t := range Collect(m.log, SampleSource, raws) {
		at := now()
		t.SourceCountry = SampleSource
		t.ScrapedAt = &at
		inserted, err := m.store.InsertTenderIfAbsent(ctx, t)
		if err != nil {
			m.log.Error("insert sample tender failed", zap.String("title", t.Title), zap.Error(err))
			continue
		}
		if inserted {
			loaded++
		}
	}
	m.log.Info("sample data loaded", zap.String("path", path), zap.Int("inserted", loaded), zap.Int("records", len(items)))
	return loaded, nil
}

// publishScraped announces a run. Categories cover only newly inserted tenders.
func (m *Manager) publishScraped(ctx context.Context, s Scraper, inserted []domain.Tender, res SaveResult) {
	seen := map[string]struct{}{}
	var cats []string
	for _, t := range inserted {
		if _, ok := seen[t.Category]; !ok && t.Category != "" {
			seen[t.Category] = struct{}{}
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)

	ev := queue.TendersScraped{
		Source:     s.Name(),
		Inserted:   res.Inserted,
		Updated:    res.Updated,
		Categories: cats,
		ScrapedAt:  now(),
	}
	if c, ok := s.(interface{ Country() string }); ok {
		ev.Country = c.Country()
	}
	if err := m.Events.Publish(ctx, m.Exchange, queue.KeyTendersScraped, ev, ""); err != nil {
		m.log.Warn("publish tenders.scraped failed", zap.String("source", s.Name()), zap.Error(err))
	}
}

type job struct {
	id   string
	spec string
	run  func(ctx context.Context)
}

func (m *Manager) jobs() []job {
	out := []job{{id: "scrape_all", spec: "0 */6 * * *", run: m.RunAll}}
	hours := map[string]int{"nigeria": 0, "kenya": 2, "ghana": 4}
	for _, name := range m.Sources() {
		h, ok := hours[name]
		if !ok {
			continue
		}
		out = append(out, job{
			id:   "scrape_" + name,
			spec: fmt.Sprintf("0 %d * * *", h),
			run:  func(ctx context.Context) { m.RunSource(ctx, name) },
		})
	}
	return out
}

// NewCron builds a UTC scheduler whose jobs never overlap themselves.
func NewCron(lg *zap.Logger) *cron.Cron {
	cl := cronLogger{lg.Sugar()}
	return cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Schedule registers the job table on c. Jobs run with ctx.
func (m *Manager) Schedule(ctx context.Context, c *cron.Cron) error {
	for _, j := range m.jobs() {
		if _, err := c.AddFunc(j.spec, func() { m.runLocked(ctx, j) }); err != nil {
			return fmt.Errorf("schedule %s: %w", j.id, err)
		}
		m.log.Info("job scheduled", zap.String("job", j.id), zap.String("cron", j.spec))
	}
	return nil
}

func (m *Manager) runLocked(ctx context.Context, j job) {
	if m.Locker == nil {
		j.run(ctx)
		return
	}
	release, ok, err := m.Locker.TryLock(ctx, "afrioffres:job:"+j.id, m.LockTTL)
	if err != nil {
		m.log.Warn("job lock unavailable, running unguarded", zap.String("job", j.id), zap.Error(err))
		j.run(ctx)
		return
	}
	if !ok {
		m.log.Info("job already running elsewhere", zap.String("job", j.id))
		return
	}
	defer release()
	j.run(ctx)
}

// Start loads sample data, schedules the jobs, optionally runs every source
// once, then blocks running the scheduler until ctx is done.
func (m *Manager) Start(ctx context.Context, samplePath string, runNow bool) error {
	if samplePath != "" {
		if _, err := m.LoadSampleData(ctx, samplePath); err != nil {
			m.log.Error("sample data", zap.Error(err))
		}
	}
	c := NewCron(m.log)
	if err := m.Schedule(ctx, c); err != nil {
		return err
	}
	if runNow {
		m.RunAll(ctx)
	}
	c.Start()
	m.log.Info("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	m.log.Info("scheduler stopped")
	return nil
}

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw("cron: "+msg, kv...) }
func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron: "+msg, append(kv, "error", err)...)
}
