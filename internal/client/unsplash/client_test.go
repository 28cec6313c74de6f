package unsplash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "gala", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "Client-ID key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"results":[
			{"urls":{"regular":"https://img/r1","small":"https://img/s1"}},
			{"urls":{"small":"https://img/s2","thumb":"https://img/t2"}},
			{"urls":{"thumb":"https://img/t3"}},
			{"urls":{}}
		]}`))
	}))
	defer srv.Close()

	images, err := NewClient(srv.URL, "key").Search(context.Background(), "gala")
	require.NoError(t, err)
	assert.Equal(t, []Image{{URL: "https://img/r1"}, {URL: "https://img/s2"}, {URL: "https://img/t3"}}, images)
}

func TestSearch_NotConfigured(t *testing.T) {
	_, err := NewClient("http://unused", "").Search(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestSearch_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").Search(context.Background(), "x")
	assert.Error(t, err)
}
