package access_api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/access/access_api"
	"controle-acesso/internal/access/db"
	"controle-acesso/internal/access/service"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var now = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

type testEnv struct {
	router http.Handler
	store  *db.DB
}

func setup(t *testing.T) testEnv {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := &db.DB{Bun: bunDB}
	ctx := context.Background()
	require.NoError(t, store.CreateSchema(ctx))

	require.NoError(t, store.CreateEvent(ctx, models.Event{
		ID: "ev-1", Name: "Festival", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(5 * time.Hour), CreatedAt: now,
	}))
	require.NoError(t, store.AddVip(ctx, models.VipEntry{ID: "vip-1", EventID: "ev-1", FullName: "Luiz Inácio Lula da Silva", CreatedAt: now}))
	require.NoError(t, store.CreateTickets(ctx, []models.TicketCode{
		{ID: "t-1", EventID: "ev-1", Code: "ING123FESTIVAL", Type: models.TicketTypeStandard, CreatedAt: now},
	}))

	log := logger.NewNopLogger()
	engine := access.NewEngine(store, store, store, log)
	svc := service.NewAccessService(store, engine, store, log)
	svc.Now = func() time.Time { return now }

	r := chi.NewRouter()
	access_api.NewHandler(svc, log).RegisterRoutes(r)
	return testEnv{router: r, store: store}
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func attempts(t *testing.T, store *db.DB) []models.AccessAttempt {
	list, err := store.ListAttempts(context.Background(), db.AttemptFilter{EventID: "ev-1"})
	require.NoError(t, err)
	return list
}

func TestSubmitAccess_VipByName(t *testing.T) {
	env := setup(t)

	w := postJSON(t, env.router, "/api/access", map[string]string{
		"name": "luiz inacio lula da silva", "cpf": "123.456.789-09",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["admitted"])
	assert.Equal(t, access_api.MessageGranted, body["message"])

	logged := attempts(t, env.store)
	require.Len(t, logged, 1)
	require.NotNil(t, logged[0].MatchedVipID)
	assert.Equal(t, "vip-1", *logged[0].MatchedVipID)
}

func TestSubmitAccess_TicketSingleUse(t *testing.T) {
	env := setup(t)
	sub := map[string]string{"name": "Maria Silva", "cpf": "52998224725", "ticket": " ing123festival "}

	first := decode(t, postJSON(t, env.router, "/api/access", sub))
	second := decode(t, postJSON(t, env.router, "/api/access", sub))

	assert.Equal(t, true, first["admitted"])
	assert.Equal(t, false, second["admitted"])
	assert.Equal(t, access_api.MessageDenied, second["message"])

	logged := attempts(t, env.store)
	require.Len(t, logged, 2)
	// newest first
	require.NotNil(t, logged[0].DenyReason)
	assert.Equal(t, access.ReasonTicketUsed, *logged[0].DenyReason)
}

func TestSubmitAccess_FormPost(t *testing.T) {
	env := setup(t)

	form := url.Values{"nome": {"Maria Silva"}, "cpf": {"52998224725"}, "ingresso": {"ING123FESTIVAL"}}
	req := httptest.NewRequest(http.MethodPost, "/api/access", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["admitted"])
}

func TestSubmitAccess_DeniedReasonsAreGeneric(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		sub    map[string]string
		reason string
	}{
		{"bad checksum", map[string]string{"name": "Maria Silva", "cpf": "12345678900", "ticket": "ING123FESTIVAL"}, access.ReasonInvalidID},
		{"no ticket", map[string]string{"name": "Maria Silva", "cpf": "52998224725"}, access.ReasonTicketRequired},
		{"unknown ticket", map[string]string{"name": "Maria Silva", "cpf": "52998224725", "ticket": "NOPE"}, access.ReasonTicketNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, env.router, "/api/access", tt.sub)
			require.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["admitted"])
			assert.Equal(t, access_api.MessageDenied, body["message"])
			assert.NotContains(t, w.Body.String(), tt.reason)

			logged := attempts(t, env.store)
			require.NotEmpty(t, logged)
			assert.Equal(t, tt.reason, *logged[0].DenyReason)
		})
	}
}

func TestSubmitAccess_MalformedInputNotLogged(t *testing.T) {
	env := setup(t)

	w := postJSON(t, env.router, "/api/access", map[string]string{"name": "M", "cpf": "123"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "cpf")
	assert.Empty(t, attempts(t, env.store))
}

func TestSubmitAccess_BadJSON(t *testing.T) {
	env := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/access", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAccess_UnknownEvent(t *testing.T) {
	env := setup(t)

	w := postJSON(t, env.router, "/api/access", map[string]string{
		"name": "Maria Silva", "cpf": "52998224725", "ticket": "ING123FESTIVAL", "event_id": "ev-404",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAccess_ConcurrentSameTicket(t *testing.T) {
	env := setup(t)
	sub := map[string]string{"name": "Maria Silva", "cpf": "52998224725", "ticket": "ING123FESTIVAL"}

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := postJSON(t, env.router, "/api/access", sub)
			var body struct {
				Admitted bool `json:"admitted"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err == nil {
				results[i] = body.Admitted
			}
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, ok := range results {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Len(t, attempts(t, env.store), len(results))
}

func TestPreviewAccess_NoSideEffects(t *testing.T) {
	env := setup(t)

	w := postJSON(t, env.router, "/api/access/preview", map[string]string{"name": "Maria Silva", "cpf": "52998224725"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["would_admit"])
	assert.Equal(t, true, body["valid_id"])
	assert.Equal(t, true, body["ticket_required"])
	assert.Empty(t, attempts(t, env.store))

	ticket, err := env.store.GetTicket(context.Background(), "ev-1", "t-1")
	require.NoError(t, err)
	assert.False(t, ticket.Consumed)
}

func TestCheckCPF(t *testing.T) {
	env := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cpf/check?cpf=52998224725", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "529.982.247-25", body["formatted"])

	req = httptest.NewRequest(http.MethodGet, "/api/cpf/check", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingService struct{}

func (failingService) Submit(context.Context, string, access.Submission) (access.Verdict, error) {
	return access.Verdict{}, errors.New("database is locked")
}

func (failingService) Preview(context.Context, string, access.Submission) (access.Verdict, error) {
	return access.Verdict{}, errors.New("database is locked")
}

func TestSubmitAccess_InfrastructureErrorIs500(t *testing.T) {
	r := chi.NewRouter()
	access_api.NewHandler(failingService{}, logger.NewNopLogger()).RegisterRoutes(r)

	w := postJSON(t, r, "/api/access", map[string]string{"name": "Maria Silva", "cpf": "52998224725"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "denied")
	assert.NotContains(t, w.Body.String(), "database is locked")
}
