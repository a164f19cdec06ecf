package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menu-planning/go-menuplan"
)

type received struct {
	body    string
	headers http.Header
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []received) {
	t.Helper()
	var mu sync.Mutex
	var got []received
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, received{body: string(body), headers: r.Header.Clone()})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func TestPublisher_Destination(t *testing.T) {
	assert.Equal(t, "webhook", New().Destination())
}

func TestExtractURL(t *testing.T) {
	assert.Equal(t, "https://example.com/hook", extractURL("webhook:https://example.com/hook"))
	assert.Equal(t, "", extractURL("kafka:menus"))
	assert.Equal(t, "", extractURL("webhook:"))
}

func TestNew_Options(t *testing.T) {
	client := &http.Client{}
	p := New(
		WithHTTPClient(client),
		WithTimeout(5*time.Second),
		WithDefaultURL("https://example.com"),
		WithDefaultHeaders(map[string]string{"Authorization": "Bearer x"}),
	)

	assert.Same(t, client, p.client)
	assert.Equal(t, 5*time.Second, p.client.Timeout)
	assert.Equal(t, "https://example.com", p.defaultURL)
	assert.Equal(t, "Bearer x", p.defaultHeaders["Authorization"])
	assert.Equal(t, "application/json", p.defaultHeaders["Content-Type"])
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("posts payload with prefixed headers", func(t *testing.T) {
		srv, got := newServer(t, http.StatusAccepted)
		p := New(WithDefaultHeaders(map[string]string{"Authorization": "Bearer x"}))

		err := p.Publish(ctx, []*menuplan.Notification{{
			ID:          "n1",
			Destination: "webhook:" + srv.URL,
			Payload:     []byte(`{"menuId":"m1"}`),
			Headers: map[string]string{
				"event-type":   "MenuDeleted",
				"content-type": "application/msgpack",
			},
		}})

		require.NoError(t, err)
		reqs := got()
		require.Len(t, reqs, 1)
		assert.Equal(t, `{"menuId":"m1"}`, reqs[0].body)
		assert.Equal(t, "application/msgpack", reqs[0].headers.Get("Content-Type"))
		assert.Equal(t, "Bearer x", reqs[0].headers.Get("Authorization"))
		assert.Equal(t, "MenuDeleted", reqs[0].headers.Get("X-Menuplan-Event-Type"))
		assert.Equal(t, "n1", reqs[0].headers.Get("X-Menuplan-Notification-Id"))
	})

	t.Run("uses default URL", func(t *testing.T) {
		srv, got := newServer(t, http.StatusOK)
		p := New(WithDefaultURL(srv.URL))

		require.NoError(t, p.Publish(ctx, []*menuplan.Notification{{ID: "n1", Destination: "webhook:"}}))
		assert.Len(t, got(), 1)
	})

	t.Run("missing URL", func(t *testing.T) {
		err := New().Publish(ctx, []*menuplan.Notification{{ID: "n1", Destination: "webhook:"}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing URL")
	})

	t.Run("server error is reported and the rest still delivered", func(t *testing.T) {
		bad, _ := newServer(t, http.StatusInternalServerError)
		good, got := newServer(t, http.StatusOK)
		p := New()

		err := p.Publish(ctx, []*menuplan.Notification{
			{ID: "n1", Destination: "webhook:" + bad.URL},
			{ID: "n2", Destination: "webhook:" + good.URL},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error 500")
		assert.Len(t, got(), 1)
	})

	t.Run("client error", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusNotFound)

		err := New().Publish(ctx, []*menuplan.Notification{{ID: "n1", Destination: "webhook:" + srv.URL}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "client error 404")
	})
}
