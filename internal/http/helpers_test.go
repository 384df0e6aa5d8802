package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	api "github.com/ayamekni/AfriOffres/internal/http"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
)

// memStore mirrors the Mongo store's semantics closely enough for handler tests.
type memStore struct {
	mu      sync.Mutex
	tenders []domain.Tender
	users   []*domain.User
	pingErr error
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) addTender(t domain.Tender) domain.Tender {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.tenders = append(m.tenders, t)
	return t
}

func matches(t domain.Tender, f domain.TenderFilter) bool {
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), s) &&
			!strings.Contains(strings.ToLower(t.Description), s) &&
			!strings.Contains(strings.ToLower(t.Organization), s) {
			return false
		}
	}
	return (f.Country == "" || t.Country == f.Country) &&
		(f.Category == "" || t.Category == f.Category) &&
		(f.Status == "" || t.Status == f.Status)
}

func (m *memStore) sorted(keep func(domain.Tender) bool) []domain.Tender {
	var out []domain.Tender
	for _, t := range m.tenders {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListTenders(_ context.Context, f domain.TenderFilter, p domain.Page) ([]domain.Tender, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(t domain.Tender) bool { return matches(t, f) })
	start := int(p.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memStore) FindTenderByID(_ context.Context, id primitive.ObjectID) (*domain.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenders {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) DistinctTenderValues(_ context.Context, field string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, t := range m.tenders {
		v := t.Category
		if field == "country" {
			v = t.Country
		}
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func in(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memStore) RecommendTenders(_ context.Context, cats, countries []string, limit int) ([]domain.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(t domain.Tender) bool {
		return (len(cats) == 0 || in(cats, t.Category)) && (len(countries) == 0 || in(countries, t.Country))
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *memStore) UpdateUserFields(_ context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != id {
			continue
		}
		for k, v := range fields {
			switch k {
			case "first_name":
				u.FirstName = v.(string)
			case "last_name":
				u.LastName = v.(string)
			case "preferences":
				u.Preferences = domain.Preferences(v.(map[string]any))
			case "notifications_enabled":
				u.NotificationsEnabled = v.(bool)
			}
		}
		cp := *u
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) UpsertExternalUser(_ context.Context, provider, subject, email, first, last string) (*domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.ExternalID = subject
			cp := *u
			return &cp, false, nil
		}
	}
	u := &domain.User{
		ID: primitive.NewObjectID(), Email: email, FirstName: first, LastName: last,
		Preferences: domain.Preferences{}, NotificationsEnabled: true,
		Provider: provider, ExternalID: subject, CreatedAt: time.Now().UTC(),
	}
	m.users = append(m.users, u)
	cp := *u
	return &cp, true, nil
}

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// recordingPub collects published events.
type recordingPub struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPub) Publish(_ context.Context, _, key string, _ any, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, key)
	return nil
}
func (p *recordingPub) Close() error { return nil }

func (p *recordingPub) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

var _ queue.Publisher = (*recordingPub)(nil)

type testEnv struct {
	T       *testing.T
	Store   *memStore
	Pub     *recordingPub
	Handler *api.Handler
	Router  *gin.Engine
}

func newTestEnv(t *testing.T, tweak ...func(h *api.Handler)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{}
	pub := &recordingPub{}
	h := api.NewHandler(store, "test-secret", zap.NewNop())
	h.Events = pub
	h.RateLimitPerMin = 0
	for _, f := range tweak {
		f(h)
	}
	r := api.NewRouter(h, api.RouterConfig{})
	return &testEnv{T: t, Store: store, Pub: pub, Handler: h, Router: r}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func bearer(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

type authBody struct {
	Message     string         `json:"message"`
	AccessToken string         `json:"access_token"`
	User        map[string]any `json:"user"`
}

// register creates a user and returns its access token.
func (e *testEnv) register(email string) string {
	e.T.Helper()
	w := e.do("POST", "/api/auth/register",
		`{"email":"`+email+`","password":"StrongP@ss1","first_name":"Ada","last_name":"Obi"}`, nil)
	if w.Code != 201 {
		e.T.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	return decode[authBody](e.T, w).AccessToken
}
