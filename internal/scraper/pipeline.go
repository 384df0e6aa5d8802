package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/metrics"
)

const minTitleLen = 10

// RawTender is a record as a source produced it, before cleaning.
// Deadline is free text; DeadlineAt wins when a source already has a time.
type RawTender struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Organization string     `json:"organization"`
	Country      string     `json:"country"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Budget       *string    `json:"budget"`
	Currency     string     `json:"currency"`
	Requirements []string   `json:"requirements"`
	ContactEmail string     `json:"contact_email"`
	ContactPhone string     `json:"contact_phone"`
	Website      string     `json:"website"`
	Deadline     string     `json:"deadline"`
	DeadlineAt   *time.Time `json:"-"`
}

var now = func() time.Time { return time.Now().UTC() }

// CleanText collapses every whitespace run to a single space and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tried in order; the first layout that parses wins.
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"1/2/2006",
	"2-1-2006",
	"2006-1-2 15:04:05",
	"2/1/2006 15:04",
	"January 2, 2006",
	"2 January 2006",
}

// ExtractDate parses a deadline string. Unrecognised input falls back to the
// current time; it never fails.
func ExtractDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	log.Warnf("could not parse date %q, using current time", s)
	return now()
}

var (
	budgetNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// Priority order matters: a string mentioning both Naira and $ is NGN.
	currencyMarkers = []struct {
		code    string
		markers []string
	}{
		{"NGN", []string{"NGN", "Naira", "naira", "₦"}},
		{"KES", []string{"KES", "KSh", "Shilling", "shilling"}},
		{"GHS", []string{"GHS", "GH₵", "Cedi", "cedi"}},
		{"USD", []string{"USD", "$"}},
		{"EUR", []string{"EUR", "€"}},
	}
)

// ExtractBudget pulls an integer amount and ISO currency out of free text such
// as "NGN 1,250,000" or "$500". Empty input yields (nil, ""). When no digits
// are present, blank text included, the amount is nil but the currency is
// still reported.
func ExtractBudget(s string) (*string, string) {
	if s == "" {
		return nil, ""
	}

	currency := domain.DefaultCurrency
detect:
	for _, c := range currencyMarkers {
		for _, m := range c.markers {
			if strings.Contains(s, m) {
				currency = c.code
				break detect
			}
		}
	}

	cleaned := strings.ReplaceAll(s, ",", "")
	for _, c := range currencyMarkers {
		for _, m := range c.markers {
			cleaned = strings.ReplaceAll(cleaned, m, "")
		}
	}

	num := budgetNumber.FindString(cleaned)
	if num == "" {
		return nil, currency
	}
	whole, _, _ := strings.Cut(num, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	return &whole, currency
}

// ValidateTender reports whether t is complete enough to store.
func ValidateTender(t domain.Tender) bool {
	if err := validate(t); err != nil {
		log.L().Warn("tender rejected", zap.String("title", t.Title), zap.Error(err))
		return false
	}
	return true
}

func validate(t domain.Tender) error {
	switch {
	case t.Title == "":
		return fmt.Errorf("missing title")
	case t.Description == "":
		return fmt.Errorf("missing description")
	case t.Organization == "":
		return fmt.Errorf("missing organization")
	case utf8.RuneCountInString(t.Title) < minTitleLen:
		return fmt.Errorf("title shorter than %d characters", minTitleLen)
	}
	return nil
}

// NormalizeTender maps a raw record onto the stored shape with defaults applied.
// It never rejects; ValidateTender decides.
func NormalizeTender(raw RawTender) domain.Tender {
	t := domain.Tender{
		Title:        CleanText(raw.Title),
		Description:  CleanText(raw.Description),
		Organization: CleanText(raw.Organization),
		Country:      raw.Country,
		Category:     raw.Category,
		Status:       raw.Status,
		Budget:       raw.Budget,
		Currency:     raw.Currency,
		Requirements: raw.Requirements,
		ContactEmail: raw.ContactEmail,
		ContactPhone: raw.ContactPhone,
		Website:      raw.Website,
		CreatedAt:    now(),
	}
	if t.Status == "" {
		t.Status = domain.DefaultStatus
	}
	if t.Currency == "" {
		t.Currency = domain.DefaultCurrency
	}
	if t.Requirements == nil {
		t.Requirements = []string{}
	}
	switch {
	case raw.DeadlineAt != nil:
		d := raw.DeadlineAt.UTC()
		t.Deadline = &d
	case raw.Deadline != "":
		d := ExtractDate(raw.Deadline)
		t.Deadline = &d
	}
	return t
}

// Collect normalizes and validates raws, dropping rejected records. A panic
// while handling one record is logged and only that record is lost.
func Collect(lg *zap.Logger, source string, raws []RawTender) []domain.Tender {
	if lg == nil {
		lg = log.L()
	}
	out := make([]domain.Tender, 0, len(raws))
	for i, raw := range raws {
		t, ok := collectOne(lg, source, i, raw)
		if !ok {
			metrics.ScrapedRecords.WithLabelValues(source, "rejected").Inc()
			continue
		}
		metrics.ScrapedRecords.WithLabelValues(source, "accepted").Inc()
		out = append(out, t)
	}
	return out
}

func collectOne(lg *zap.Logger, source string, i int, raw RawTender) (t domain.Tender, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			lg.Error("tender record panicked", zap.String("source", source), zap.Int("index", i), zap.Any("panic", r))
			ok = false
		}
	}()
	t = NormalizeTender(raw)
	return t, ValidateTender(t)
}
