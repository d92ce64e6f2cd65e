package rpc

import (
	"Murmur/internal/api/config"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{RPCURL: srv.URL + "/", APIKey: "k", Timeout: 2})
}

func TestClient_CallSuccess(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":3}}`))
	})

	env, err := c.Call(context.Background(), "manage_comment", map[string]any{"p_action": "update"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"id":3}`, string(env.Data))
	assert.Equal(t, "/manage_comment", gotPath)
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, "update", gotBody["p_action"])
}

func TestClient_CallRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"cannot rate your own movie"}`))
	})

	_, err := c.Call(context.Background(), "upsert_movie_rating", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "cannot rate your own movie", rejected.Message)
	assert.Equal(t, "upsert_movie_rating: cannot rate your own movie", err.Error())
}

func TestClient_CallTransportErrors(t *testing.T) {
	t.Run("non json error status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})
		_, err := c.Call(context.Background(), "manage_comment", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("json error status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"XX000","message":"connection to database lost"}`))
		})
		env, err := c.Call(context.Background(), "manage_comment", nil)
		require.Error(t, err)
		assert.Nil(t, env)
		assert.NotErrorIs(t, err, ErrRejected)
		var rejected *RejectedError
		assert.False(t, errors.As(err, &rejected))
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), "connection to database lost")
	})

	t.Run("unreachable", func(t *testing.T) {
		c := NewClient(config.BackendConfig{RPCURL: "http://127.0.0.1:1", Timeout: 1})
		_, err := c.Call(context.Background(), "manage_comment", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRejected)
	})
}
