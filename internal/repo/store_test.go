package repo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/repo"
)

var mongoURI string

func TestMain(m *testing.M) {
	ctx := context.Background()
	var mc *mongodb.MongoDBContainer
	if os.Getenv("SKIP_MONGO_TESTS") == "" {
		var err error
		if mc, err = mongodb.Run(ctx, "mongo:6"); err != nil {
			fmt.Fprintf(os.Stderr, "mongo container unavailable, store tests skipped: %v\n", err)
			mc = nil
		} else if mongoURI, err = mc.ConnectionString(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "mongo uri: %v\n", err)
		}
	}
	code := m.Run()
	if mc != nil {
		_ = mc.Terminate(ctx)
	}
	os.Exit(code)
}

func newStore(t *testing.T) *repo.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	if mongoURI == "" {
		t.Skip("mongo not available")
	}
	ctx := context.Background()
	db := "afrioffres_" + strings.ToLower(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	s, err := repo.NewStore(ctx, mongoURI, db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = s.DB.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func sampleTender(title, org string) domain.Tender {
	budget := "1000"
	deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Tender{
		Title:        title,
		Description:  "description of " + title,
		Organization: org,
		Country:      "Kenya",
		Category:     "Technology",
		Status:       domain.DefaultStatus,
		Budget:       &budget,
		Currency:     "KES",
		Requirements: []string{},
		Website:      "https://example.org",
		Deadline:     &deadline,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUpsertTender_Idempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := sampleTender("Digital Financial Services Platform", "Central Bank of Kenya")
	inserted, err := s.UpsertTender(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("first upsert: %v %v", inserted, err)
	}

	second := first
	second.Description = "updated"
	second.Budget = nil
	second.Website = ""
	inserted, err = s.UpsertTender(ctx, second)
	if err != nil || inserted {
		t.Fatalf("second upsert: %v %v", inserted, err)
	}

	if n, _ := s.CountTenders(ctx); n != 1 {
		t.Fatalf("count=%d", n)
	}
	items, _, err := s.ListTenders(ctx, domain.TenderFilter{}, domain.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	got := items[0]
	if got.Description != "updated" || got.Budget != nil || got.Website != "" {
		t.Fatalf("overwrite kept stale fields: %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(*first.Deadline) {
		t.Fatalf("deadline %v", got.Deadline)
	}
}

func TestUpsertTender_Concurrent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	tn := sampleTender("Mombasa Port Infrastructure Upgrade", "Kenya Ports Authority")

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			c := tn
			c.Description = fmt.Sprintf("writer %d", i)
			_, err := s.UpsertTender(ctx, c)
			errs <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := s.CountTenders(ctx); n != 1 {
		t.Fatalf("count=%d", n)
	}
}

func TestInsertTenderIfAbsent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tn := sampleTender("Accra Smart City Development Project", "Ministry of Communications")
	if ok, err := s.InsertTenderIfAbsent(ctx, tn); err != nil || !ok {
		t.Fatalf("insert: %v %v", ok, err)
	}
	tn.Description = "should not win"
	if ok, err := s.InsertTenderIfAbsent(ctx, tn); err != nil || ok {
		t.Fatalf("second insert: %v %v", ok, err)
	}
	items, _, _ := s.ListTenders(ctx, domain.TenderFilter{}, domain.Page{Number: 1, Size: 10})
	if len(items) != 1 || items[0].Description == "should not win" {
		t.Fatalf("items %+v", items)
	}
}

func TestListTenders_FiltersAndPaging(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		tn := sampleTender(fmt.Sprintf("Road Construction Lot %02d", i), "Highways Authority")
		tn.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i%3 == 0 {
			tn.Country = "Ghana"
			tn.Category = "Infrastructure"
		}
		if _, err := s.UpsertTender(ctx, tn); err != nil {
			t.Fatal(err)
		}
	}
	odd := sampleTender("Supply of (special) lab equipment", "Univ.")
	odd.CreatedAt = base.Add(-time.Hour)
	if _, err := s.UpsertTender(ctx, odd); err != nil {
		t.Fatal(err)
	}

	items, total, err := s.ListTenders(ctx, domain.TenderFilter{}, domain.Page{Number: 2, Size: 5})
	if err != nil {
		t.Fatal(err)
	}
	if total != 13 || len(items) != 5 || items[0].Title != "Road Construction Lot 06" {
		t.Fatalf("page 2: total=%d first=%q", total, items[0].Title)
	}

	_, total, _ = s.ListTenders(ctx, domain.TenderFilter{Country: "Ghana"}, domain.Page{Number: 1, Size: 50})
	if total != 4 {
		t.Fatalf("ghana total=%d", total)
	}
	_, total, _ = s.ListTenders(ctx, domain.TenderFilter{Country: "ghana"}, domain.Page{Number: 1, Size: 50})
	if total != 0 {
		t.Fatalf("country filter must be exact, got %d", total)
	}

	items, total, _ = s.ListTenders(ctx, domain.TenderFilter{Search: "(SPECIAL)"}, domain.Page{Number: 1, Size: 50})
	if total != 1 || items[0].Title != odd.Title {
		t.Fatalf("search total=%d", total)
	}
	_, total, _ = s.ListTenders(ctx, domain.TenderFilter{Search: "highways"}, domain.Page{Number: 1, Size: 50})
	if total != 12 {
		t.Fatalf("organization search total=%d", total)
	}

	items, total, _ = s.ListTenders(ctx, domain.TenderFilter{}, domain.Page{Number: 9, Size: 5})
	if total != 13 || len(items) != 0 {
		t.Fatalf("past last page: total=%d len=%d", total, len(items))
	}
}

func TestDistinctAndRecommend(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rows := []struct{ title, country, category string }{
		{"Cocoa Processing Facility Modernization", "Ghana", "Agriculture"},
		{"Digital Infrastructure Development Lagos", "Nigeria", "Technology"},
		{"Renewable Energy Project Development", "Nigeria", "Energy"},
		{"Untagged tender with no category", "Kenya", ""},
	}
	for i, r := range rows {
		tn := sampleTender(r.title, "Org")
		tn.Country, tn.Category = r.country, r.category
		tn.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if _, err := s.UpsertTender(ctx, tn); err != nil {
			t.Fatal(err)
		}
	}

	cats, err := s.DistinctTenderValues(ctx, "category")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cats, ",") != "Agriculture,Energy,Technology" {
		t.Fatalf("categories %v", cats)
	}
	countries, _ := s.DistinctTenderValues(ctx, "country")
	if strings.Join(countries, ",") != "Ghana,Kenya,Nigeria" {
		t.Fatalf("countries %v", countries)
	}

	recs, err := s.RecommendTenders(ctx, []string{"Technology", "Energy"}, []string{"Nigeria"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Category != "Energy" {
		t.Fatalf("recommendations %+v", recs)
	}
	recs, _ = s.RecommendTenders(ctx, []string{"Agriculture"}, []string{"Nigeria"}, 5)
	if len(recs) != 0 {
		t.Fatalf("expected AND semantics, got %d", len(recs))
	}
	recs, _ = s.RecommendTenders(ctx, nil, nil, 2)
	if len(recs) != 2 {
		t.Fatalf("unfiltered limit, got %d", len(recs))
	}
}

func TestFindTenderByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.UpsertTender(ctx, sampleTender("Healthcare Equipment Supply", "Ministry of Health")); err != nil {
		t.Fatal(err)
	}
	items, _, _ := s.ListTenders(ctx, domain.TenderFilter{}, domain.Page{Number: 1, Size: 1})
	got, err := s.FindTenderByID(ctx, items[0].ID)
	if err != nil || got.Title != "Healthcare Equipment Supply" {
		t.Fatalf("find: %v %+v", err, got)
	}
	if _, err := s.FindTenderByID(ctx, primitive.NewObjectID()); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u := &domain.User{Email: "ada@example.com", PasswordHash: "hash", FirstName: "Ada", Provider: domain.ProviderLocal, NotificationsEnabled: true}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID.IsZero() {
		t.Fatal("id not set")
	}
	dup := &domain.User{Email: "ada@example.com", PasswordHash: "other"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("duplicate: %v", err)
	}

	got, err := s.FindUserByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("find by email: %v %+v", err, got)
	}
	if _, err := s.FindUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing user: %v", err)
	}

	upd, err := s.UpdateUserFields(ctx, u.ID, map[string]any{
		"preferences": domain.Preferences{"categories": []string{"Energy"}},
		"last_name":   "Lovelace",
	})
	if err != nil {
		t.Fatal(err)
	}
	if upd.LastName != "Lovelace" || len(upd.Preferences.Categories()) != 1 {
		t.Fatalf("updated %+v", upd)
	}
	// same values again still finds the user
	if _, err := s.UpdateUserFields(ctx, u.ID, map[string]any{"last_name": "Lovelace"}); err != nil {
		t.Fatalf("unchanged update: %v", err)
	}
	if _, err := s.UpdateUserFields(ctx, primitive.NewObjectID(), map[string]any{"last_name": "x"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing update: %v", err)
	}

	quiet := &domain.User{Email: "quiet@example.com", NotificationsEnabled: false}
	_ = s.CreateUser(ctx, quiet)
	users, err := s.ListNotifiableUsers(ctx)
	if err != nil || len(users) != 1 || users[0].Email != "ada@example.com" || users[0].PasswordHash != "" {
		t.Fatalf("notifiable: %v %+v", err, users)
	}
}

func TestUpsertExternalUser(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u, created, err := s.UpsertExternalUser(ctx, domain.ProviderGoogle, "sub-1", "grace@example.com", "Grace", "Hopper")
	if err != nil || !created {
		t.Fatalf("first: %v created=%v", err, created)
	}
	if u.Provider != domain.ProviderGoogle || !u.NotificationsEnabled || u.FirstName != "Grace" {
		t.Fatalf("user %+v", u)
	}

	again, created, err := s.UpsertExternalUser(ctx, domain.ProviderGoogle, "sub-1", "grace@example.com", "G", "H")
	if err != nil || created || again.ID != u.ID || again.FirstName != "Grace" {
		t.Fatalf("second: %v created=%v %+v", err, created, again)
	}

	local := &domain.User{Email: "linus@example.com", PasswordHash: "h", FirstName: "Linus", Provider: domain.ProviderLocal}
	if err := s.CreateUser(ctx, local); err != nil {
		t.Fatal(err)
	}
	linked, created, err := s.UpsertExternalUser(ctx, domain.ProviderGoogle, "sub-2", "linus@example.com", "L", "T")
	if err != nil || created || linked.ID != local.ID || linked.PasswordHash != "h" {
		t.Fatalf("link: %v created=%v %+v", err, created, linked)
	}
	if n, _ := s.CountUsersByEmail(ctx, "linus@example.com"); n != 1 {
		t.Fatalf("count=%d", n)
	}
}
