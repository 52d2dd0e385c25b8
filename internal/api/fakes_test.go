package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/matching"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"github.com/reusefull/reusefull/backend/matching-service/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret"

// setGinTestMode ensures Gin does not write noisy logs during tests
func setGinTestMode() { gin.SetMode(gin.TestMode) }

type upsertCall struct {
	sub        string
	rec        models.CharityRecord
	categories []string
	items      []string
}

type fakeStore struct {
	mu sync.Mutex

	collections matching.Collections
	items       []models.Item
	listErr     error
	healthErr   error

	users   map[string]*models.User
	drafts  map[string]*models.SignupDraft
	upserts []upsertCall
	pending []models.CharityProfile

	reviewed map[int]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		drafts:   map[string]*models.SignupDraft{},
		reviewed: map[int]string{},
	}
}

func (s *fakeStore) ListCharities(context.Context) ([]models.Charity, error) {
	return s.collections.Charities, s.listErr
}

func (s *fakeStore) ListItemAcceptances(context.Context) ([]models.ItemAcceptance, error) {
	return s.collections.ItemAcceptances, s.listErr
}

func (s *fakeStore) ListCategoryMappings(context.Context) ([]models.CategoryMapping, error) {
	return s.collections.CategoryMappings, s.listErr
}

func (s *fakeStore) ListCategories(context.Context) ([]models.Category, error) {
	return s.collections.Categories, s.listErr
}

func (s *fakeStore) ListItems(context.Context) ([]models.Item, error) {
	return s.items, s.listErr
}

func (s *fakeStore) UpsertUser(_ context.Context, sub string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[sub]
	if !ok {
		u = &models.User{Sub: sub}
		s.users[sub] = u
	}
	u.EmailVerified = verified
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, sub string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[sub]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) IsAdmin(ctx context.Context, sub string) (bool, error) {
	u, err := s.GetUser(ctx, sub)
	if err != nil {
		return false, nil
	}
	return u.Admin, nil
}

func (s *fakeStore) UpsertCharityForUser(_ context.Context, sub string, rec models.CharityRecord, categories, items []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, upsertCall{sub: sub, rec: rec, categories: categories, items: items})
	return 42, nil
}

func (s *fakeStore) GetSignupDraft(_ context.Context, sub string) (*models.SignupDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[sub]
	if !ok {
		return nil, db.ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) ListPendingCharities(context.Context) ([]models.CharityProfile, error) {
	return s.pending, nil
}

func (s *fakeStore) review(id int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.ID == id {
			s.reviewed[id] = action
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *fakeStore) ApproveCharity(_ context.Context, id int) error { return s.review(id, "approve") }

func (s *fakeStore) DenyCharity(_ context.Context, id int) error { return s.review(id, "deny") }

func (s *fakeStore) Health(context.Context) error { return s.healthErr }

type fakeSigner struct {
	err error
}

func (f *fakeSigner) SignLogoUpload(_ context.Context, sub, fileName, contentType string) (*storage.LogoUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := storage.LogoKey(sub, fileName, time.UnixMilli(1000))
	return &storage.LogoUpload{
		UploadURL: "https://bucket.example/" + key + "?sig=1",
		PublicURL: "https://bucket.example/" + key,
		Key:       key,
	}, nil
}

type fakeGeocoder struct {
	coords *models.Coordinates
	err    error
}

func (g fakeGeocoder) Geocode(context.Context, string) (*models.Coordinates, error) {
	return g.coords, g.err
}

func fptr(v float64) *float64 { return &v }

// testCollections: A takes blankets and is in "Housing"; B only takes books.
func testCollections() matching.Collections {
	return matching.Collections{
		Charities: []models.Charity{
			{ID: 1, Name: "A", Pickup: true, Dropoff: true, NewItems: true, GoodItems: true, Lat: fptr(39.05), Lng: fptr(-94.59)},
			{ID: 2, Name: "B", Pickup: true, GoodItems: true, Lat: fptr(45), Lng: fptr(-94.59)},
		},
		ItemAcceptances: []models.ItemAcceptance{
			{CharityID: 1, CharityName: "A", ItemID: 10, ItemName: "Blankets"},
			{CharityID: 2, CharityName: "B", ItemID: 11, ItemName: "Books"},
		},
		CategoryMappings: []models.CategoryMapping{{CharityID: 1, TypeID: 5}, {CharityID: 2, TypeID: 6}},
		Categories:       []models.Category{{ID: 5, Type: "Housing"}, {ID: 6, Type: "Education"}},
	}
}

type testEnv struct {
	store  *fakeStore
	router *gin.Engine
}

func newTestEnv(t *testing.T, geo matching.Geocoder) *testEnv {
	t.Helper()
	setGinTestMode()
	store := newFakeStore()
	store.collections = testCollections()
	matcher := matching.NewMatcher(geo, zap.NewNop())
	h := NewHandler(Options{
		Store:    store,
		Matcher:  matcher,
		Sessions: matching.NewSessions(matcher, time.Hour),
		Logos:    &fakeSigner{},
		Logger:   zap.NewNop(),
	})
	r := NewRouter(h, RouterConfig{JWTSecret: testSecret, ActionSecret: "hook-secret"}, zap.NewNop())
	return &testEnv{store: store, router: r}
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	if sub != "" {
		claims["sub"] = sub
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRecorder(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	return serve(r, newRequest(method, path))
}
