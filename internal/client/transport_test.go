package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() Option {
	return WithRetry(5, time.Millisecond, time.Second)
}

func TestTransport_BearerAndHeaders(t *testing.T) {
	var auth, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		accept = r.Header.Get("Accept")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "tok", []Option{WithHeader("Accept", "application/json")})
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, tr.getJSON(context.Background(), "x", nil, &out))
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "application/json", accept)
}

func TestTransport_ResolvesUnderBasePath(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL+"/hr/v2", "", nil)
	require.NoError(t, err)

	require.NoError(t, tr.getJSON(context.Background(), "/employees", nil, &struct{}{}))
	assert.Equal(t, "/hr/v2/employees", path)
}

func TestTransport_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", []Option{fastRetry()})
	require.NoError(t, err)

	require.NoError(t, tr.getJSON(context.Background(), "x", nil, &struct{}{}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransport_RateLimitGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", []Option{fastRetry()})
	require.NoError(t, err)

	err = tr.getJSON(context.Background(), "x", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(5), calls.Load())
}

func TestTransport_OtherStatusesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", []Option{fastRetry()})
	require.NoError(t, err)

	err = tr.getJSON(context.Background(), "x", nil, &struct{}{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "nope", se.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransport_AuthFailuresAreFatal(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		tr, err := newTransport(srv.URL, "", nil)
		require.NoError(t, err)
		err = tr.getJSON(context.Background(), "x", nil, &struct{}{})
		assert.True(t, IsAuth(err), status)
		assert.True(t, fatal(context.Background(), err))
		srv.Close()
	}
}

func TestTransport_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", nil)
	require.NoError(t, err)

	err = tr.getJSON(context.Background(), "x", nil, &struct{}{})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x", de.Path)
}

func TestTransport_SendEncodesBody(t *testing.T) {
	var method, contentType, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new-1"}`))
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", nil)
	require.NoError(t, err)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, tr.send(context.Background(), http.MethodPost, "things", map[string]string{"a": "b"}, &created))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"a":"b"}`, body)
	assert.Equal(t, "new-1", created.ID)
}

func TestTransport_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, err := newTransport(srv.URL, "", []Option{WithRetry(5, time.Second, time.Minute)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tr.getJSON(ctx, "x", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, fatal(ctx, err))
}

func TestNewTransport_RejectsRelativeURL(t *testing.T) {
	_, err := newTransport("api.example.com", "", nil)
	assert.Error(t, err)
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, 0, roundUp(0, 100))
	assert.Equal(t, 100, roundUp(1, 100))
	assert.Equal(t, 100, roundUp(100, 100))
	assert.Equal(t, 300, roundUp(201, 100))
}
