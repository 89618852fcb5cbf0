package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsJSONAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "spinsignal-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("spinsignal-test"))
	resp, err := c.SendRequest(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"limit": {"5"}},
		Body:        map[string]string{"text": "hi"},
	})
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, DecodeJSON(resp, &out))
	assert.True(t, out.OK)
}

func TestDecodeJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	}))
	defer srv.Close()

	resp, err := NewClient().SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.NoError(t, err)

	err = DecodeJSON(resp, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream down", se.Body)
}

type countingTransport struct{ calls int }

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestClientCustomTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rt := &countingTransport{}
	resp, err := NewClient(WithTransport(rt)).SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, DecodeJSON(resp, nil))
	assert.Equal(t, 1, rt.calls)
}
