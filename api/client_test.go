package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestion-erp/gestion-go/api"
	"github.com/gestion-erp/gestion-go/session"
	"github.com/gestion-erp/gestion-go/session/storefakes"
)

const (
	testAccessToken  = "access-token-1"
	testRefreshToken = "refresh-token-1"
	newAccessToken   = "access-token-2"
	newRefreshToken  = "refresh-token-2"
)

type fixture struct {
	store  *storefakes.FakeStore
	client *api.Client
	server *httptest.Server
}

func newFixture(t *testing.T, handler http.Handler, creds *session.Credentials, options ...api.Option) *fixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	if creds != nil {
		store = storefakes.NewFakeStoreWith(*creds)
	}

	client, err := api.New(server.URL, store, options...)
	require.NoError(t, err)

	return &fixture{store: store, client: client, server: server}
}

func storedCreds() *session.Credentials {
	return &session.Credentials{AccessToken: testAccessToken, RefreshToken: testRefreshToken}
}

// refreshHandler answers the refresh endpoint with a rotated token pair and
// counts calls.
func refreshHandler(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Write([]byte(`{"success":true,"data":{"access":"` + newAccessToken + `","refresh":"` + newRefreshToken + `"}}`))
	}
}

func TestRequestUnwrapsEnvelope(t *testing.T) {
	var gotAuth, gotRequestID string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/inventario/productos/7/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"success":true,"data":{"id":7,"nombre":"Teclado"}}`))
	})

	f := newFixture(t, mux, storedCreds())

	type product struct {
		ID   int64  `json:"id"`
		Name string `json:"nombre"`
	}
	got, err := api.Request[product](context.Background(), f.client, http.MethodGet, "/api/inventario/productos/7/")
	require.NoError(t, err)

	assert.Equal(t, product{ID: 7, Name: "Teclado"}, got)
	assert.Equal(t, "Bearer "+testAccessToken, gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestRequestReturnsNonEnvelopeBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/misc/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":3}`))
	})

	f := newFixture(t, mux, storedCreds())

	got, err := api.Request[map[string]int64](context.Background(), f.client, http.MethodGet, "/api/misc/")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"id": 3}, got)
}

func TestRequestEmptyBodyYieldsZeroValue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/misc/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	f := newFixture(t, mux, storedCreds())

	got, err := api.Request[*struct{ ID int64 }](context.Background(), f.client, http.MethodGet, "/api/misc/")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestNormalizesServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/inventario/productos/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"titulo":"Validación","mensaje":"Datos inválidos","warnes":{"codigo":["ya existe"]}}`))
	})

	f := newFixture(t, mux, storedCreds())

	_, err := api.Request[struct{}](context.Background(), f.client, http.MethodPost, "/api/inventario/productos/",
		api.WithBody(map[string]string{"codigo": "A-1"}))

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Validación", apiErr.Title)
	assert.Equal(t, "Datos inválidos", apiErr.Message)
	assert.Equal(t, map[string][]string{"codigo": {"ya existe"}}, apiErr.FieldErrors)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestRequestRetriesOnceAfterRefresh(t *testing.T) {
	var resourceCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&resourceCalls, 1)
		if r.Header.Get("Authorization") == "Bearer "+newAccessToken {
			w.Write([]byte(`{"success":true,"data":{"ok":true}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", refreshHandler(&refreshCalls))

	f := newFixture(t, mux, storedCreds())

	got, err := api.Request[map[string]bool](context.Background(), f.client, http.MethodGet, "/api/things/")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"ok": true}, got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&resourceCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))

	creds := f.store.Credentials()
	require.NotNil(t, creds)
	assert.Equal(t, newAccessToken, creds.AccessToken)
	assert.Equal(t, newRefreshToken, creds.RefreshToken)
}

func TestRequestSessionExpiredAfterRetriedUnauthorized(t *testing.T) {
	var resourceCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&resourceCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", refreshHandler(&refreshCalls))

	hookCalled := false
	f := newFixture(t, mux, storedCreds(), api.WithSessionExpiredHook(func() { hookCalled = true }))

	_, err := api.Request[struct{}](context.Background(), f.client, http.MethodGet, "/api/things/")

	var expired *api.SessionExpiredError
	require.ErrorAs(t, err, &expired)

	// One refresh, one retry, then give up: the retry chain must terminate.
	assert.EqualValues(t, 2, atomic.LoadInt32(&resourceCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	assert.Nil(t, f.store.Credentials())
	assert.True(t, hookCalled)
}

func TestRequestSessionExpiredWhenRefreshRejected(t *testing.T) {
	var resourceCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&resourceCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	hookCalled := false
	f := newFixture(t, mux, storedCreds(), api.WithSessionExpiredHook(func() { hookCalled = true }))

	_, err := api.Request[struct{}](context.Background(), f.client, http.MethodGet, "/api/things/")

	var expired *api.SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.EqualValues(t, 1, atomic.LoadInt32(&resourceCalls))
	assert.Nil(t, f.store.Credentials())
	assert.True(t, hookCalled)
}

func TestRequestNoRefreshCallWithoutRefreshToken(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", refreshHandler(&refreshCalls))

	f := newFixture(t, mux, &session.Credentials{AccessToken: testAccessToken})

	_, err := api.Request[struct{}](context.Background(), f.client, http.MethodGet, "/api/things/")

	var expired *api.SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.EqualValues(t, 0, atomic.LoadInt32(&refreshCalls))
}

func TestRequestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	store := storefakes.NewFakeStoreWith(*storedCreds())
	client, err := api.New(server.URL, store)
	require.NoError(t, err)
	server.Close()

	_, err = api.Request[struct{}](context.Background(), client, http.MethodGet, "/api/things/")

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Error(t, netErr.Unwrap())
}

func TestRawBodySetsOwnContentType(t *testing.T) {
	var gotContentType, gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, 16)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write([]byte(`{"success":true,"data":null}`))
	})

	f := newFixture(t, mux, storedCreds())

	_, err := f.client.Call(context.Background(), http.MethodPost, "/api/upload/",
		api.WithRawBody([]byte("raw-bytes"), "application/octet-stream"))
	require.NoError(t, err)

	assert.Equal(t, "application/octet-stream", gotContentType)
	assert.Equal(t, "raw-bytes", gotBody)
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+newAccessToken {
			w.Write([]byte(`{"success":true,"data":{"ok":true}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"success":true,"data":{"access":"` + newAccessToken + `"}}`))
	})

	f := newFixture(t, mux, storedCreds())

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = api.Request[map[string]bool](context.Background(), f.client, http.MethodGet, "/api/things/")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := api.New("", storefakes.NewFakeStore())
	require.Error(t, err)

	_, err = api.New("http://localhost:8000", nil)
	require.Error(t, err)
}

func TestIsAuthRejected(t *testing.T) {
	assert.True(t, api.IsAuthRejected(&api.APIError{StatusCode: http.StatusUnauthorized}))
	assert.False(t, api.IsAuthRejected(&api.APIError{StatusCode: http.StatusForbidden}))
	assert.False(t, api.IsAuthRejected(errors.New("boom")))
}
