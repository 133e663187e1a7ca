package waitlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostgREST 最小的 PostgREST 模拟
func fakePostgREST(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	emails := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/waitlist", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			var rows []map[string]string
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil || len(rows) != 1 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			email := rows[0]["email"]
			w.Header().Set("Content-Type", "application/json")
			if emails[email] {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
				return
			}
			emails[email] = true
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[{"id":"8b0d","email":"` + email + `","created_at":"2025-01-02T03:04:05Z"}]`))
		case http.MethodGet:
			assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
			w.Header().Set("Content-Range", "0-0/"+strconv.Itoa(len(emails)))
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseStore(t *testing.T) {
	srv := fakePostgREST(t)
	store, err := NewSupabaseStore(srv.URL+"/", "anon-key", "waitlist")
	require.NoError(t, err)
	ctx := context.Background()

	entry, err := store.Insert(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "8b0d", entry.ID)
	assert.Equal(t, "a@b.co", entry.Email)

	_, err = store.Insert(ctx, "a@b.co")
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// droppingServer 每种方法的第一个请求直接断开连接
func droppingServer(t *testing.T, posts, gets *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter := gets
		if r.Method == http.MethodPost {
			counter = posts
		}
		if counter.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
			return
		}
		w.Header().Set("Content-Range", "0-0/7")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseStore_InsertIsNotRetried(t *testing.T) {
	var posts, gets atomic.Int32
	srv := droppingServer(t, &posts, &gets)
	store, err := NewSupabaseStore(srv.URL, "anon-key", "waitlist")
	require.NoError(t, err)

	_, err = store.Insert(context.Background(), "a@b.co")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, int32(1), posts.Load())
}

func TestSupabaseStore_CountIsRetried(t *testing.T) {
	var posts, gets atomic.Int32
	srv := droppingServer(t, &posts, &gets)
	store, err := NewSupabaseStore(srv.URL, "anon-key", "waitlist")
	require.NoError(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, int32(2), gets.Load())
}

func TestParseContentRangeTotal(t *testing.T) {
	n, err := parseContentRangeTotal("*/42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = parseContentRangeTotal("0-0/*")
	assert.Error(t, err)
	_, err = parseContentRangeTotal("")
	assert.Error(t, err)
}

func TestNewSupabaseStore_RequiresCredentials(t *testing.T) {
	_, err := NewSupabaseStore("", "", "waitlist")
	assert.Error(t, err)
}
