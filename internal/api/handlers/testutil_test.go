// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/api"
	"github.com/Kalfadda/indiecraft/internal/api/handlers"
	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	pkgerrors "github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/repository/redis"
	"github.com/Kalfadda/indiecraft/internal/services/asset"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
	"github.com/Kalfadda/indiecraft/internal/services/board"
	"github.com/Kalfadda/indiecraft/internal/services/feed"
	"github.com/Kalfadda/indiecraft/internal/services/guide"
	"github.com/Kalfadda/indiecraft/internal/services/request"
	"github.com/Kalfadda/indiecraft/internal/services/schedule"
	"github.com/Kalfadda/indiecraft/internal/services/user"
)

const testJWTSecret = "test-secret-key-for-testing-purposes-only-minimum-32-chars"

// Stable identities used across handler tests.
var (
	adminID  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	memberID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	viewerID = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// testSuite wires every handler against in-memory stores so handler tests
// exercise the full router, middleware chain, and service layer.
type testSuite struct {
	router chi.Router

	users    *memUserStore
	sessions *memSessionStore
	events   *memEventStore
	feeds    *memFeedStore
	assets   *memAssetStore
	notes    *memBoardStore
	requests *memRequestStore
	guides   *memGuideStore

	authService *auth.Service
}

// setupTestSuite builds a fully wired test router. The three fixture users
// (admin, member, viewer) are pre-seeded without passwords; auth tests seed
// their own credentialed users.
func setupTestSuite(t *testing.T) *testSuite {
	t.Helper()

	s := &testSuite{
		users:    newMemUserStore(),
		sessions: newMemSessionStore(),
		events:   newMemEventStore(),
		assets:   newMemAssetStore(),
		notes:    newMemBoardStore(),
		requests: newMemRequestStore(),
		guides:   newMemGuideStore(),
	}
	s.feeds = newMemFeedStore(s.events)

	s.seedUser(&models.User{ID: adminID, Username: "admin", Role: models.RoleAdmin, IsActive: true})
	s.seedUser(&models.User{ID: memberID, Username: "member", Role: models.RoleMember, IsActive: true})
	s.seedUser(&models.User{ID: viewerID, Username: "viewer", Role: models.RoleViewer, IsActive: true})

	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret: testJWTSecret,
		Issuer: "indiecraft-test",
	})
	s.authService = auth.NewService(s.users, s.sessions, jwtSvc, nil)

	assetService := asset.NewService(s.assets, nil)

	h := &api.Handlers{
		System:   handlers.NewSystemHandler("test-version", "test-commit", "2026-01-01T00:00:00Z", nil),
		Auth:     handlers.NewAuthHandler(s.authService, nil),
		User:     handlers.NewUserHandler(user.NewService(s.users, nil), nil),
		Schedule: handlers.NewScheduleHandler(schedule.NewService(s.events, nil, nil, nil), feed.NewService(s.feeds, nil, nil), nil),
		Asset:    handlers.NewAssetHandler(assetService, nil),
		Board:    handlers.NewBoardHandler(board.NewService(s.notes, nil), nil),
		Request:  handlers.NewRequestHandler(request.NewService(s.requests, assetService, nil), nil),
		Guide:    handlers.NewGuideHandler(guide.NewService(s.guides, nil), nil),
	}

	config := api.RouterConfig{
		JWTSecret:          testJWTSecret,
		CORSConfig:         middleware.DefaultCORSConfig(),
		RateLimitPerMinute: 10000,
		RequestTimeout:     5 * time.Second,
	}

	s.router = api.NewRouter(config, h)
	return s
}

// seedUser inserts a user directly into the store.
func (s *testSuite) seedUser(u *models.User) {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users.users[u.ID] = clone(u)
}

// generateTestToken creates a valid access token for testing.
func generateTestToken(t *testing.T, userID uuid.UUID, username, role string) string {
	t.Helper()

	claims := middleware.UserClaims{
		UserID:   userID.String(),
		Username: username,
		Role:     role,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "indiecraft-test",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return tokenString
}

func adminToken(t *testing.T) string  { return generateTestToken(t, adminID, "admin", "admin") }
func memberToken(t *testing.T) string { return generateTestToken(t, memberID, "member", "member") }
func viewerToken(t *testing.T) string { return generateTestToken(t, viewerID, "viewer", "viewer") }

// doRequest performs an HTTP request against the test router.
func doRequest(t *testing.T, router chi.Router, method, path string, body string, token string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// assertJSON checks that the response is valid JSON and returns the parsed body.
func assertJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	contentType := w.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Errorf("failed to parse JSON response: %v. Body: %s", err, w.Body.String())
	}
	return result
}

// decodeJSONList parses the response body as a JSON array of objects.
func decodeJSONList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var result []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON list: %v. Body: %s", err, w.Body.String())
	}
	return result
}

// assertErrorCode checks the error code in the JSON response.
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Errorf("failed to parse error response: %v. Body: %s", err, w.Body.String())
		return
	}
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q", expectedCode, errResp.Code)
	}
}

// newRawRequest builds a request/recorder pair for calling a handler method
// directly, bypassing the router.
func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

// withUserContext adds user claims to the request context.
func withUserContext(r *http.Request, userID uuid.UUID, username, role string) *http.Request {
	claims := &middleware.UserClaims{
		UserID:   userID.String(),
		Username: username,
		Role:     role,
	}
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, claims)
	return r.WithContext(ctx)
}

// ============================================================================
// In-memory stores
// ============================================================================

// clone returns a shallow copy so the fakes behave like a real database:
// callers never share memory with the store.
func clone[T any](v *T) *T {
	c := *v
	return &c
}

// --- users ---

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *memUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return pkgerrors.AlreadyExists("username")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = clone(u)
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.NotFound("user")
	}
	return clone(u), nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, pkgerrors.NotFound("user")
}

func (s *memUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *memUserStore) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.users[u.ID] = clone(u)
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (s *memUserStore) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (s *memUserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// --- sessions ---

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*redis.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*redis.Session)}
}

func (s *memSessionStore) Create(_ context.Context, userID, username, role, userAgent, ipAddress string) (*redis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	sess := &redis.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		Role:         role,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		CreatedAt:    now,
		LastAccessAt: now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
	s.sessions[sess.ID] = sess
	return clone(sess), nil
}

func (s *memSessionStore) Get(_ context.Context, sessionID string) (*redis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, redis.ErrSessionNotFound
	}
	return clone(sess), nil
}

func (s *memSessionStore) Touch(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	sess.LastAccessAt = time.Now()
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *memSessionStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// --- schedule events ---

type memEventStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.ScheduleEvent
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[uuid.UUID]*models.ScheduleEvent)}
}

func (s *memEventStore) CreateEvent(_ context.Context, ev *models.ScheduleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = ev.CreatedAt
	s.events[ev.ID] = clone(ev)
	return nil
}

func (s *memEventStore) GetEvent(_ context.Context, id, userID uuid.UUID) (*models.ScheduleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || (ev.UserID != userID && !ev.IsShared) {
		return nil, pkgerrors.NotFound("schedule event")
	}
	return clone(ev), nil
}

func (s *memEventStore) ListEventsByMonth(_ context.Context, userID uuid.UUID, year, month int) ([]*models.ScheduleEvent, error) {
	prefix := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ScheduleEvent
	for _, ev := range s.events {
		if (ev.UserID == userID || ev.IsShared) && strings.HasPrefix(ev.EventDate, prefix) {
			out = append(out, clone(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate < out[j].EventDate })
	return out, nil
}

func (s *memEventStore) ListEventsByRange(_ context.Context, userID uuid.UUID, from, to string) ([]*models.ScheduleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ScheduleEvent
	for _, ev := range s.events {
		if (ev.UserID == userID || ev.IsShared) && ev.EventDate >= from && ev.EventDate <= to {
			out = append(out, clone(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate < out[j].EventDate })
	return out, nil
}

func (s *memEventStore) UpdateEvent(_ context.Context, ev *models.ScheduleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[ev.ID]
	if !ok || cur.UserID != ev.UserID || cur.FeedSourceID != nil {
		return pkgerrors.ErrNotFound
	}
	ev.UpdatedAt = time.Now()
	s.events[ev.ID] = clone(ev)
	return nil
}

func (s *memEventStore) DeleteEvent(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[id]
	if !ok || cur.UserID != userID || cur.FeedSourceID != nil {
		return pkgerrors.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// --- feed sources ---

type memFeedStore struct {
	mu     sync.Mutex
	feeds  map[uuid.UUID]*models.FeedSource
	events *memEventStore
}

func newMemFeedStore(events *memEventStore) *memFeedStore {
	return &memFeedStore{
		feeds:  make(map[uuid.UUID]*models.FeedSource),
		events: events,
	}
}

func (s *memFeedStore) CreateFeedSource(_ context.Context, fs *models.FeedSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs.ID == uuid.Nil {
		fs.ID = uuid.New()
	}
	fs.CreatedAt = time.Now()
	fs.UpdatedAt = fs.CreatedAt
	s.feeds[fs.ID] = clone(fs)
	return nil
}

func (s *memFeedStore) GetFeedSource(_ context.Context, id, userID uuid.UUID) (*models.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.feeds[id]
	if !ok || fs.UserID != userID {
		return nil, pkgerrors.NotFound("feed source")
	}
	return clone(fs), nil
}

func (s *memFeedStore) ListFeedSources(_ context.Context, userID uuid.UUID) ([]*models.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FeedSource
	for _, fs := range s.feeds {
		if fs.UserID == userID {
			out = append(out, clone(fs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memFeedStore) ListEnabledFeedSources(_ context.Context) ([]*models.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FeedSource
	for _, fs := range s.feeds {
		if fs.Enabled {
			out = append(out, clone(fs))
		}
	}
	return out, nil
}

func (s *memFeedStore) MarkFeedFetched(_ context.Context, id uuid.UUID, fetchErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.feeds[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	now := time.Now()
	fs.LastFetchedAt = &now
	fs.LastError = fetchErr
	fs.UpdatedAt = now
	return nil
}

func (s *memFeedStore) DeleteFeedSource(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.feeds[id]
	if !ok || fs.UserID != userID {
		return pkgerrors.ErrNotFound
	}
	delete(s.feeds, id)
	s.removeFeedEvents(id)
	return nil
}

func (s *memFeedStore) ReplaceFeedEvents(_ context.Context, feedID uuid.UUID, events []*models.ScheduleEvent) error {
	s.removeFeedEvents(feedID)
	s.events.mu.Lock()
	defer s.events.mu.Unlock()
	for _, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		fid := feedID
		ev.FeedSourceID = &fid
		s.events.events[ev.ID] = clone(ev)
	}
	return nil
}

func (s *memFeedStore) removeFeedEvents(feedID uuid.UUID) {
	s.events.mu.Lock()
	defer s.events.mu.Unlock()
	for id, ev := range s.events.events {
		if ev.FeedSourceID != nil && *ev.FeedSourceID == feedID {
			delete(s.events.events, id)
		}
	}
}

// --- assets ---

type memAssetStore struct {
	mu     sync.Mutex
	assets map[uuid.UUID]*models.Asset
	steps  map[uuid.UUID]*models.PipelineStep
}

func newMemAssetStore() *memAssetStore {
	return &memAssetStore{
		assets: make(map[uuid.UUID]*models.Asset),
		steps:  make(map[uuid.UUID]*models.PipelineStep),
	}
}

func (s *memAssetStore) Create(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.assets[a.ID] = clone(a)
	return nil
}

func (s *memAssetStore) Get(_ context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok || (a.UserID != userID && !a.IsShared) {
		return nil, pkgerrors.NotFound("asset")
	}
	return clone(a), nil
}

func (s *memAssetStore) List(_ context.Context, userID uuid.UUID, category, phase string) ([]*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Asset
	for _, a := range s.assets {
		if a.UserID != userID && !a.IsShared {
			continue
		}
		if category != "" && a.Category != category {
			continue
		}
		if phase != "" && a.Phase != phase {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memAssetStore) Update(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assets[a.ID]
	if !ok || cur.UserID != a.UserID {
		return pkgerrors.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	s.assets[a.ID] = clone(a)
	return nil
}

func (s *memAssetStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assets[id]
	if !ok || cur.UserID != userID {
		return pkgerrors.ErrNotFound
	}
	delete(s.assets, id)
	for sid, step := range s.steps {
		if step.AssetID == id {
			delete(s.steps, sid)
		}
	}
	return nil
}

func (s *memAssetStore) CreateStep(_ context.Context, step *models.PipelineStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	step.CreatedAt = time.Now()
	step.UpdatedAt = step.CreatedAt
	s.steps[step.ID] = clone(step)
	return nil
}

func (s *memAssetStore) GetStep(_ context.Context, id uuid.UUID) (*models.PipelineStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[id]
	if !ok {
		return nil, pkgerrors.NotFound("pipeline step")
	}
	return clone(step), nil
}

func (s *memAssetStore) ListSteps(_ context.Context, assetID uuid.UUID) ([]*models.PipelineStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PipelineStep
	for _, step := range s.steps {
		if step.AssetID == assetID {
			out = append(out, clone(step))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *memAssetStore) UpdateStepStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	step.Status = status
	step.UpdatedAt = time.Now()
	return nil
}

func (s *memAssetStore) DeleteStep(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(s.steps, id)
	return nil
}

func (s *memAssetStore) MaxStepPosition(_ context.Context, assetID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, step := range s.steps {
		if step.AssetID == assetID && step.Position > max {
			max = step.Position
		}
	}
	return max, nil
}

// --- board notes ---

type memBoardStore struct {
	mu    sync.Mutex
	notes map[uuid.UUID]*models.BoardNote
}

func newMemBoardStore() *memBoardStore {
	return &memBoardStore{notes: make(map[uuid.UUID]*models.BoardNote)}
}

func (s *memBoardStore) Create(_ context.Context, n *models.BoardNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = n.CreatedAt
	s.notes[n.ID] = clone(n)
	return nil
}

func (s *memBoardStore) Get(_ context.Context, id, userID uuid.UUID) (*models.BoardNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || (n.UserID != userID && !n.IsShared) {
		return nil, pkgerrors.NotFound("board note")
	}
	return clone(n), nil
}

func (s *memBoardStore) List(_ context.Context, userID uuid.UUID) ([]*models.BoardNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BoardNote
	for _, n := range s.notes {
		if n.UserID == userID || n.IsShared {
			out = append(out, clone(n))
		}
	}
	// Pinned first, newest first within each group.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memBoardStore) Update(_ context.Context, n *models.BoardNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.notes[n.ID]
	if !ok || cur.UserID != n.UserID {
		return pkgerrors.ErrNotFound
	}
	n.UpdatedAt = time.Now()
	s.notes[n.ID] = clone(n)
	return nil
}

func (s *memBoardStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.notes[id]
	if !ok || cur.UserID != userID {
		return pkgerrors.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// --- asset requests ---

type memRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.AssetRequest
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{requests: make(map[uuid.UUID]*models.AssetRequest)}
}

func (s *memRequestStore) Create(_ context.Context, req *models.AssetRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *memRequestStore) Get(_ context.Context, id uuid.UUID) (*models.AssetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, pkgerrors.NotFound("asset request")
	}
	return clone(req), nil
}

func (s *memRequestStore) List(_ context.Context, status string) ([]*models.AssetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AssetRequest
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			out = append(out, clone(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memRequestStore) UpdateStatus(_ context.Context, id uuid.UUID, status string, reviewerID *uuid.UUID, reviewerNote string, assetID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	req.Status = status
	if reviewerID != nil {
		req.ReviewerID = reviewerID
	}
	req.ReviewerNote = reviewerNote
	if assetID != nil {
		req.AssetID = assetID
	}
	req.UpdatedAt = time.Now()
	return nil
}

func (s *memRequestStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.UserID != userID || req.Status != models.RequestStatusPending {
		return pkgerrors.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// --- guides ---

type memGuideStore struct {
	mu     sync.Mutex
	guides map[uuid.UUID]*models.Guide
}

func newMemGuideStore() *memGuideStore {
	return &memGuideStore{guides: make(map[uuid.UUID]*models.Guide)}
}

func (s *memGuideStore) Create(_ context.Context, g *models.Guide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.guides {
		if existing.Slug == g.Slug {
			return pkgerrors.AlreadyExists("guide slug")
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	s.guides[g.ID] = clone(g)
	return nil
}

func (s *memGuideStore) Get(_ context.Context, id uuid.UUID) (*models.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guides[id]
	if !ok {
		return nil, pkgerrors.NotFound("guide")
	}
	return clone(g), nil
}

func (s *memGuideStore) GetBySlug(_ context.Context, slug string) (*models.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.guides {
		if g.Slug == slug {
			return clone(g), nil
		}
	}
	return nil, pkgerrors.NotFound("guide")
}

func (s *memGuideStore) List(_ context.Context, userID uuid.UUID, topic string, includeDrafts bool) ([]*models.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Guide
	for _, g := range s.guides {
		if topic != "" && g.Topic != topic {
			continue
		}
		if !g.Published && g.AuthorID != userID && !includeDrafts {
			continue
		}
		out = append(out, clone(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *memGuideStore) Search(_ context.Context, query string) ([]*models.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []*models.Guide
	for _, g := range s.guides {
		if !g.Published {
			continue
		}
		if strings.Contains(strings.ToLower(g.Title), q) || strings.Contains(strings.ToLower(g.Body), q) {
			out = append(out, clone(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *memGuideStore) Update(_ context.Context, g *models.Guide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.guides[g.ID]
	if !ok || cur.AuthorID != g.AuthorID {
		return pkgerrors.ErrNotFound
	}
	g.UpdatedAt = time.Now()
	s.guides[g.ID] = clone(g)
	return nil
}

func (s *memGuideStore) Delete(_ context.Context, id, authorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.guides[id]
	if !ok || cur.AuthorID != authorID {
		return pkgerrors.ErrNotFound
	}
	delete(s.guides, id)
	return nil
}
