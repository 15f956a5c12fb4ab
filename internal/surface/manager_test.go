package surface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/realtime"
	"github.com/hapsayhub/backend/internal/store"
	"github.com/hapsayhub/backend/internal/worker"
)

type pushRecorder struct {
	mu     sync.Mutex
	events []string
}

func (p *pushRecorder) BroadcastToSurface(_ string, event string, _ interface{}) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *pushRecorder) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}

// readGauge delays category reads, which only refreshes perform, and records how many
// run at once.
type readGauge struct {
	store.Medium
	delay       atomic.Int64
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (g *readGauge) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == store.KeyCategories {
		n := g.inFlight.Add(1)
		defer g.inFlight.Add(-1)
		for {
			peak := g.maxInFlight.Load()
			if n <= peak || g.maxInFlight.CompareAndSwap(peak, n) {
				break
			}
		}
		time.Sleep(time.Duration(g.delay.Load()))
	}
	return g.Medium.Get(ctx, key)
}

type fixture struct {
	medium  *store.MemoryMedium
	gauge   *readGauge
	hub     *realtime.Hub
	catalog Catalog
	pusher  *pushRecorder
	manager *Manager
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	m := store.NewMemoryMedium()
	g := &readGauge{Medium: m}
	hub := realtime.NewHub(nil, nil, nil)
	catalog := Catalog{
		Events:     bridge.New(store.New(g, store.KeyEvents, models.EventKey), hub, nil),
		Attendees:  bridge.New(store.New(g, store.KeyAttendees, models.AttendeeKey), hub, nil),
		Users:      bridge.New(store.New(g, store.KeyUsers, models.UserKey), hub, nil),
		Categories: bridge.New(store.New(g, store.KeyCategories, models.CategoryKey), hub, nil),
	}
	pusher := &pushRecorder{}
	if cfg.StaffInterval == 0 {
		cfg.StaffInterval = time.Hour
	}
	if cfg.VisitorInterval == 0 {
		cfg.VisitorInterval = time.Hour
	}
	mgr := NewManager(catalog, hub, pusher, cfg, nil)
	t.Cleanup(mgr.Stop)
	return &fixture{medium: m, gauge: g, hub: hub, catalog: catalog, pusher: pusher, manager: mgr}
}

func TestOpen_LoadsSnapshotAndComputesStatus(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: 1, Name: "Past", DateRange: "Jan 1, 2020", StartTime: "09:00", EndTime: "10:00", Status: models.StatusUpcoming}))
	require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: 2, Name: "Waiting", DateRange: "Jan 1, 2020", StartTime: "09:00", EndTime: "10:00", Status: models.StatusPending, ApprovalOverride: true}))

	s, err := f.manager.Open(ctx, KindAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, f.manager.Count())

	page, err := s.Events(Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, models.StatusArchived, page.Items[0].Status)
	assert.Equal(t, models.StatusPending, page.Items[1].Status)

	stored, err := f.catalog.Events.Find(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, stored.Status, "refresh never writes back")
}

func TestOpen_RejectsUnknownKind(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.manager.Open(context.Background(), Kind("kiosk"))
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestNotification_RefreshesOtherSurfaces(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	organizer, err := f.manager.Open(ctx, KindOrganizer)
	require.NoError(t, err)
	admin, err := f.manager.Open(ctx, KindAdmin)
	require.NoError(t, err)

	require.NoError(t, f.catalog.Attendees.Save(ctx, models.Attendee{TicketID: "HH-AAAA0001", FirstName: "Ana"}))

	for _, s := range []*Surface{organizer, admin} {
		s := s
		assert.Eventually(t, func() bool {
			p, err := s.Attendees(Params{})
			return err == nil && p.Total == 1
		}, 2*time.Second, 10*time.Millisecond)
	}
	assert.Eventually(t, func() bool { return f.pusher.count("catalog_changed") >= 4 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotification_BurstCoalesces(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	_, err := f.manager.Open(ctx, KindAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, f.pusher.count("catalog_changed"))

	f.gauge.delay.Store(int64(100 * time.Millisecond))
	for i := 0; i < 50; i++ {
		f.hub.Notify(ctx, bridge.Notification{Key: store.KeyEvents})
	}

	assert.Eventually(t, func() bool { return f.pusher.count("catalog_changed") >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return f.pusher.count("catalog_changed") > 3 }, 500*time.Millisecond, 20*time.Millisecond)
}

func TestNotification_BurstSeesLastWrite(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, err := f.manager.Open(ctx, KindOrganizer)
	require.NoError(t, err)

	f.gauge.delay.Store(int64(20 * time.Millisecond))
	for i := 1; i <= 10; i++ {
		require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: models.FlexInt(i), Name: "Burst"}))
	}

	assert.Eventually(t, func() bool {
		p, err := s.Events(Params{})
		return err == nil && p.Total == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestVisitorSurface_IgnoresStaffKeysAndViews(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	v, err := f.manager.Open(ctx, KindVisitor)
	require.NoError(t, err)

	assert.False(t, v.watches(store.KeyUsers))
	assert.False(t, v.watches(store.KeyAttendees))
	assert.True(t, v.watches(store.KeyEvents))

	_, err = v.Events(Params{})
	assert.ErrorIs(t, err, ErrViewUnavailable)
	_, err = v.Users(Params{})
	assert.ErrorIs(t, err, ErrViewUnavailable)
	assert.Equal(t, 0, v.Visitor(Params{}).Total)
}

func TestClose_StopsRefreshing(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, err := f.manager.Open(ctx, KindAdmin)
	require.NoError(t, err)

	require.NoError(t, f.manager.Close(s.ID))
	assert.ErrorIs(t, f.manager.Close(s.ID), models.ErrNotFound)
	assert.False(t, s.refresher.Running())
	assert.False(t, f.manager.Exists(s.ID))

	require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: 7, Name: "After close"}))
	time.Sleep(50 * time.Millisecond)
	p, err := s.Events(Params{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Total)
}

func TestReapIdle(t *testing.T) {
	f := newFixture(t, Config{IdleTimeout: time.Minute})
	clock := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return clock }

	s, err := f.manager.Open(context.Background(), KindVisitor)
	require.NoError(t, err)

	clock = clock.Add(30 * time.Second)
	assert.Equal(t, 0, f.manager.ReapIdle())
	_, err = f.manager.Get(s.ID)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, f.manager.ReapIdle())
	assert.Equal(t, 0, f.manager.Count())
}

func TestParseErrorKeepsSnapshot(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: 1, Name: "Kept"}))
	s, err := f.manager.Open(ctx, KindAdmin)
	require.NoError(t, err)

	require.NoError(t, f.medium.Set(ctx, store.KeyEvents, []byte("[{")))
	err = s.Refresh(ctx, worker.TriggerManual)
	var pe *store.ParseError
	require.ErrorAs(t, err, &pe)

	p, err := s.Events(Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Total)
	assert.NotEmpty(t, s.Summary().LastError)
}

func TestHandleClientMessage_PushesRender(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		require.NoError(t, f.catalog.Events.Save(ctx, models.Event{ID: models.FlexInt(i), Name: "Event"}))
	}
	s, err := f.manager.Open(ctx, KindOrganizer)
	require.NoError(t, err)
	_, err = s.Events(Params{})
	require.NoError(t, err)

	f.manager.HandleClientMessage(s.ID, "step", json.RawMessage(`{"view":"events","delta":1}`))
	assert.Equal(t, 1, f.pusher.count("render"))
	assert.Equal(t, 2, s.eventView.Page())

	f.manager.HandleClientMessage(s.ID, "search", json.RawMessage(`{"view":"events","value":"event"}`))
	assert.Equal(t, 1, s.eventView.Page())

	f.manager.HandleClientMessage(s.ID, "step", json.RawMessage(`{"view":"users","delta":1}`))
	assert.Equal(t, 2, f.pusher.count("render"), "organizers have no user list")
}

func TestHandleClientMessage_StepBeforeFirstRender(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	for i := 0; i < 13; i++ {
		require.NoError(t, f.catalog.Attendees.Save(ctx, models.Attendee{TicketID: "HH-" + strings.Repeat("B", 7) + string(rune('A'+i)), EventName: "Expo"}))
	}
	s, err := f.manager.Open(ctx, KindOrganizer)
	require.NoError(t, err)

	f.manager.HandleClientMessage(s.ID, "step", json.RawMessage(`{"view":"attendees","delta":1}`))
	assert.Equal(t, 1, f.pusher.count("render"))
	assert.Equal(t, 2, s.attendeeView.Page())
}

func TestHandler_RefreshSerializesWithScheduledTicks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, Config{})
	s, err := f.manager.Open(context.Background(), KindOrganizer)
	require.NoError(t, err)
	f.gauge.delay.Store(int64(30 * time.Millisecond))

	h := NewHandler(f.manager)
	r := gin.New()
	r.POST("/surfaces/:id/refresh", h.Refresh)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.refresher.Trigger(worker.TriggerTimer)
		}()
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/surfaces/"+s.ID+"/refresh", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), f.gauge.maxInFlight.Load(), "refreshes never overlap")

	require.NoError(t, f.manager.Close(s.ID))
	assert.ErrorIs(t, s.RefreshNow(), worker.ErrStopped)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/surfaces/"+s.ID+"/refresh", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_OpenRenderClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, Config{})
	ctx := context.Background()
	for i := 1; i <= 13; i++ {
		require.NoError(t, f.catalog.Attendees.Save(ctx, models.Attendee{TicketID: "HH-" + strings.Repeat("A", 7) + string(rune('A'+i)), EventName: "Expo"}))
	}

	h := NewHandler(f.manager)
	r := gin.New()
	r.POST("/surfaces", h.Open)
	r.DELETE("/surfaces/:id", h.Close)
	r.GET("/surfaces/:id/attendees", h.Render(ViewAttendees))
	r.GET("/surfaces/:id/users", h.Render(ViewUsers))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/surfaces", strings.NewReader(`{"kind":"organizer"}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	var opened struct {
		Data Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	id := opened.Data.ID

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/surfaces/"+id+"/attendees?page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data struct {
			Items      []models.Attendee `json:"items"`
			Page       int               `json:"page"`
			TotalPages int               `json:"total_pages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Data.Page)
	assert.Equal(t, 2, page.Data.TotalPages)
	assert.Len(t, page.Data.Items, 5)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/surfaces/"+id+"/users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/surfaces/"+id+"/attendees?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/surfaces/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/surfaces/"+id+"/attendees", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
