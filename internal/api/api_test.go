package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type matchResponse struct {
	Charities  []models.Charity `json:"charities"`
	Count      int              `json:"count"`
	Complete   bool             `json:"complete"`
	Generation uint64           `json:"generation"`
	Superseded bool             `json:"superseded"`
}

func charityIDs(cs []models.Charity) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func donorPrefs() models.DonorPreferences {
	return models.DonorPreferences{
		DeliveryMethod:     models.DeliveryMethod{Pickup: true},
		ItemCondition:      models.ItemCondition{New: true},
		SelectedItems:      []string{"blanket"},
		SelectedCategories: []string{"housing"},
	}
}

func TestLiveEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "matching-service", body["service"])

	env.store.healthErr = errors.New("no route to host")
	w = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthWithoutStore(t *testing.T) {
	setGinTestMode()
	r := NewRouter(NewHandler(Options{}), RouterConfig{}, nil)

	w := newRecorder(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = newRecorder(r, http.MethodGet, "/api/v1/orgs")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = newRecorder(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCollections(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.items = []models.Item{{ID: 10, Name: "Blankets"}}

	w := env.do(t, http.MethodGet, "/api/v1/orgs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orgs := decode[[]map[string]any](t, w)
	require.Len(t, orgs, 2)
	assert.EqualValues(t, 1, orgs[0]["Id"])
	assert.Equal(t, "A", orgs[0]["Name"])

	w = env.do(t, http.MethodGet, "/api/v1/org-items", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ItemAcceptance](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/v1/categories", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.store.collections.Categories, decode[[]models.Category](t, w))

	w = env.do(t, http.MethodGet, "/api/v1/org-charity-types", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.store.collections.CategoryMappings, decode[[]models.CategoryMapping](t, w))

	w = env.do(t, http.MethodGet, "/api/v1/items", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.store.items, decode[[]models.Item](t, w))

	env.store.listErr = errors.New("timeout")
	w = env.do(t, http.MethodGet, "/api/v1/orgs", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "timeout")
}

func TestMatch(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/matches", donorPrefs(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[matchResponse](t, w)
	assert.Equal(t, []int{1}, charityIDs(res.Charities))
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.Complete)

	w = env.do(t, http.MethodPost, "/api/v1/matches", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchUnknownItemFailsClosed(t *testing.T) {
	env := newTestEnv(t, nil)
	p := donorPrefs()
	p.SelectedItems = []string{"grand piano"}

	w := env.do(t, http.MethodPost, "/api/v1/matches", p, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[matchResponse](t, w)
	assert.Empty(t, res.Charities)
	assert.Zero(t, res.Count)
}

func TestMatchWithLocation(t *testing.T) {
	p := models.DonorPreferences{
		DeliveryMethod: models.DeliveryMethod{Pickup: true},
		ItemCondition:  models.ItemCondition{Used: true},
		Location:       models.LocationPreference{ZipCode: "64111", DistanceMiles: 25},
	}

	env := newTestEnv(t, fakeGeocoder{coords: &models.Coordinates{Latitude: 39.0, Longitude: -94.59}})
	w := env.do(t, http.MethodPost, "/api/v1/matches", p, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[matchResponse](t, w)
	assert.Equal(t, []int{1}, charityIDs(res.Charities))
	assert.False(t, res.Complete)

	env = newTestEnv(t, fakeGeocoder{err: errors.New("provider down")})
	w = env.do(t, http.MethodPost, "/api/v1/matches", p, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[matchResponse](t, w)
	assert.Empty(t, res.Charities)
}

func TestDonorSessions(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/donor-sessions", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]string](t, w)["session_id"]
	require.NotEmpty(t, id)

	w = env.do(t, http.MethodGet, "/api/v1/donor-sessions/"+id+"/results", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[matchResponse](t, w)
	assert.Empty(t, res.Charities)
	assert.Zero(t, res.Generation)

	w = env.do(t, http.MethodPut, "/api/v1/donor-sessions/"+id+"/preferences", donorPrefs(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[matchResponse](t, w)
	assert.Equal(t, []int{1}, charityIDs(res.Charities))
	assert.Equal(t, uint64(1), res.Generation)
	assert.False(t, res.Superseded)

	w = env.do(t, http.MethodGet, "/api/v1/donor-sessions/"+id+"/results", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[matchResponse](t, w)
	assert.Equal(t, []int{1}, charityIDs(res.Charities))
	assert.Equal(t, uint64(1), res.Generation)

	w = env.do(t, http.MethodGet, "/api/v1/donor-sessions/nope/results", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPut, "/api/v1/donor-sessions/nope/preferences", donorPrefs(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDonorSessionReusesCollections(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/donor-sessions", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]string](t, w)["session_id"]

	w = env.do(t, http.MethodPut, "/api/v1/donor-sessions/"+id+"/preferences", donorPrefs(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Later preference changes in the same session run on the cached collections.
	env.store.listErr = errors.New("connection refused")
	w = env.do(t, http.MethodPut, "/api/v1/donor-sessions/"+id+"/preferences", donorPrefs(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[matchResponse](t, w)
	assert.Equal(t, []int{1}, charityIDs(res.Charities))
	assert.Equal(t, uint64(2), res.Generation)

	// A new session has to load its own collections.
	w = env.do(t, http.MethodPost, "/api/v1/donor-sessions", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	other := decode[map[string]string](t, w)["session_id"]
	w = env.do(t, http.MethodPut, "/api/v1/donor-sessions/"+other+"/preferences", donorPrefs(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, bearer(signToken(t, "")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, bearer(signToken(t, "auth0|abc")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareWithoutSecret(t *testing.T) {
	setGinTestMode()
	r := NewRouter(NewHandler(Options{Store: newFakeStore()}), RouterConfig{}, zap.NewNop())
	req := newRequest(http.MethodGet, "/api/v1/me")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "auth0|abc"))
	w := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetMe(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := signToken(t, "auth0|abc")

	w := env.do(t, http.MethodGet, "/api/v1/me", nil, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Nil(t, body["user"])
	assert.Nil(t, body["draft"])
	assert.Equal(t, false, body["completed"])

	env.store.users["auth0|abc"] = &models.User{Sub: "auth0|abc", EmailVerified: true}
	env.store.drafts["auth0|abc"] = &models.SignupDraft{
		Charity:           models.CharityProfile{Charity: models.Charity{ID: 42, Name: "Shelter"}},
		Categories:        []string{"Housing"},
		AcceptedItemTypes: []string{"Blankets"},
	}
	w = env.do(t, http.MethodGet, "/api/v1/me", nil, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[map[string]any](t, w)
	assert.Equal(t, map[string]any{"sub": "auth0|abc", "admin": false, "email_verified": true}, body["user"])
	assert.Equal(t, true, body["completed"])
	draft := body["draft"].(map[string]any)
	assert.Equal(t, []any{"Housing"}, draft["categories"])
	assert.Equal(t, "Shelter", draft["charity"].(map[string]any)["Name"])
}

func TestCharitySignup(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := signToken(t, "auth0|abc")

	draft := map[string]any{
		"organizationName":  "Shelter",
		"zip":               "64111",
		"pickupDonations":   true,
		"acceptedItemTypes": []string{"Blankets", models.NewItemsOnlyLabel},
	}
	w := env.do(t, http.MethodPut, "/api/v1/charity-signup/draft", draft, bearer(tok))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/charity-signup/submit", draft, bearer(tok))
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 42, body["charityId"])

	require.Len(t, env.store.upserts, 2)
	saved, submitted := env.store.upserts[0], env.store.upserts[1]
	assert.Equal(t, "auth0|abc", saved.sub)
	assert.Nil(t, saved.rec.Approved)
	assert.Equal(t, "Shelter", *saved.rec.Name)
	assert.True(t, saved.rec.NewItems)
	assert.Nil(t, saved.categories)
	assert.Equal(t, []string{"Blankets", models.NewItemsOnlyLabel}, saved.items)

	require.NotNil(t, submitted.rec.Approved)
	assert.False(t, *submitted.rec.Approved)

	w = env.do(t, http.MethodPost, "/api/v1/charity-signup/submit", "[]", bearer(tok))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoUploadURL(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := signToken(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/v1/uploads/logo-url",
		map[string]string{"fileName": "my logo.png", "contentType": "image/png"}, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "charities/user-1/1000-my_logo.png", body["key"])
	assert.NotEmpty(t, body["uploadUrl"])
	assert.NotEmpty(t, body["publicUrl"])

	w = env.do(t, http.MethodPost, "/api/v1/uploads/logo-url",
		map[string]string{"fileName": "logo.png"}, bearer(tok))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertUser(t *testing.T) {
	env := newTestEnv(t, nil)
	body := map[string]any{"sub": "auth0|abc", "email_verified": true}

	w := env.do(t, http.MethodPost, "/api/v1/users", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/users", body, map[string]string{"x-action-secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	hook := map[string]string{"x-action-secret": "hook-secret"}
	w = env.do(t, http.MethodPost, "/api/v1/users", body, hook)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, env.store.users["auth0|abc"].EmailVerified)

	w = env.do(t, http.MethodPost, "/api/v1/users", map[string]any{"email_verified": true}, hook)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdentityLogsWebhook(t *testing.T) {
	env := newTestEnv(t, nil)
	hook := map[string]string{"x-action-secret": "hook-secret"}

	batch := []map[string]any{
		{"type": "sv", "user_id": "auth0|one"},
		{"type": "s", "user_id": "auth0|login"},
		{"type": "sv", "details": map[string]any{"user_id": "auth0|two"}},
		{"type": "sv"},
	}
	w := env.do(t, http.MethodPost, "/api/v1/identity/logs/webhook", batch, hook)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, env.store.users["auth0|one"].EmailVerified)
	assert.True(t, env.store.users["auth0|two"].EmailVerified)
	assert.NotContains(t, env.store.users, "auth0|login")

	w = env.do(t, http.MethodPost, "/api/v1/identity/logs/webhook", map[string]any{"type": "sv", "user_id": "auth0|three"}, hook)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, env.store.users, "auth0|three")

	w = env.do(t, http.MethodPost, "/api/v1/identity/logs/webhook", "{broken", hook)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/identity/logs/webhook", batch, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminReview(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.users["admin"] = &models.User{Sub: "admin", Admin: true}
	env.store.users["donor"] = &models.User{Sub: "donor"}
	env.store.pending = []models.CharityProfile{{Charity: models.Charity{ID: 7, Name: "Pending"}}}
	admin := bearer(signToken(t, "admin"))

	w := env.do(t, http.MethodGet, "/api/v1/admin/charities/pending", nil, bearer(signToken(t, "donor")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/charities/pending", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]map[string]any](t, w)
	require.Len(t, pending, 1)
	assert.EqualValues(t, 7, pending[0]["Id"])

	w = env.do(t, http.MethodPost, "/api/v1/admin/charities/7/approve", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approve", env.store.reviewed[7])

	w = env.do(t, http.MethodPost, "/api/v1/admin/charities/7/deny", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deny", env.store.reviewed[7])

	w = env.do(t, http.MethodPost, "/api/v1/admin/charities/99/approve", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/charities/abc/approve", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodOptions, "/api/v1/matches", nil, map[string]string{
		"Origin":                        "https://app.reusefull.org",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://app.reusefull.org"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := newRequest(http.MethodGet, "/ping")
	req.Header.Set("Origin", "https://app.reusefull.org")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.reusefull.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = newRequest(http.MethodGet, "/ping")
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
