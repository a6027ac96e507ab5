package graphql_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notetaker/internal/editor/adapters/graphql"
	"notetaker/internal/editor/config"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/ports/gateway"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type recorder struct {
	mu       sync.Mutex
	requests []gqlRequest
	headers  []http.Header
}

func (r *recorder) add(req gqlRequest, h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	r.headers = append(r.headers, h.Clone())
}

func (r *recorder) snapshot() ([]gqlRequest, []http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gqlRequest(nil), r.requests...), append([]http.Header(nil), r.headers...)
}

func newHTTPServer(t *testing.T, rec *recorder, reply func(req gqlRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		rec.add(req, r.Header)

		status, body := reply(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, endpoint string, mutate ...func(*config.GraphQLConfig)) *graphql.Gateway {
	t.Helper()
	cfg := &config.GraphQLConfig{
		Endpoint:       endpoint,
		APIKey:         "da2-key",
		ConnectTimeout: 2 * time.Second,
		WriteTimeout:   time.Second,
	}
	for _, m := range mutate {
		m(cfg)
	}
	g, err := graphql.NewGateway(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGateway_ListNotesFollowsPages(t *testing.T) {
	rec := &recorder{}
	srv := newHTTPServer(t, rec, func(req gqlRequest) (int, string) {
		if req.Variables["nextToken"] == "page-2" {
			return http.StatusOK, `{"data":{"listNotes":{"items":[{"id":"3","note":"c"}],"nextToken":null}}}`
		}
		return http.StatusOK, `{"data":{"listNotes":{"items":[{"id":"1","note":"a"},{"id":"2","note":"b"}],"nextToken":"page-2"}}}`
	})
	g := newGateway(t, srv.URL, func(c *config.GraphQLConfig) { c.Token = "opaque" })

	notes, err := g.ListNotes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []entities.Note{{ID: "1", Note: "a"}, {ID: "2", Note: "b"}, {ID: "3", Note: "c"}}, notes)

	requests, headers := rec.snapshot()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].Query, "listNotes")
	assert.Equal(t, "page-2", requests[1].Variables["nextToken"])
	assert.Equal(t, "da2-key", headers[0].Get("x-api-key"))
	assert.Equal(t, "Bearer opaque", headers[0].Get("Authorization"))
	assert.Equal(t, "application/json", headers[0].Get("Content-Type"))
}

func TestGateway_Mutations(t *testing.T) {
	rec := &recorder{}
	srv := newHTTPServer(t, rec, func(req gqlRequest) (int, string) {
		input, _ := req.Variables["input"].(map[string]any)
		switch {
		case strings.Contains(req.Query, "createNote"):
			return http.StatusOK, `{"data":{"createNote":{"id":"n1","note":"` + input["note"].(string) + `"}}}`
		case strings.Contains(req.Query, "updateNote"):
			return http.StatusOK, `{"data":{"updateNote":{"id":"` + input["id"].(string) + `","note":"` + input["note"].(string) + `"}}}`
		default:
			return http.StatusOK, `{"data":{"deleteNote":{"id":"` + input["id"].(string) + `","note":"x"}}}`
		}
	})
	g := newGateway(t, srv.URL)
	ctx := context.Background()

	created, err := g.CreateNote(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, entities.Note{ID: "n1", Note: "hello"}, created)

	updated, err := g.UpdateNote(ctx, "n1", "bye")
	require.NoError(t, err)
	assert.Equal(t, entities.Note{ID: "n1", Note: "bye"}, updated)

	require.NoError(t, g.DeleteNote(ctx, "n1"))

	requests, _ := rec.snapshot()
	require.Len(t, requests, 3)
	assert.Equal(t, map[string]any{"note": "hello"}, requests[0].Variables["input"])
	assert.Equal(t, map[string]any{"id": "n1", "note": "bye"}, requests[1].Variables["input"])
	assert.Equal(t, map[string]any{"id": "n1"}, requests[2].Variables["input"])
}

func TestGateway_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("graphql errors", func(t *testing.T) {
		srv := newHTTPServer(t, &recorder{}, func(gqlRequest) (int, string) {
			return http.StatusOK, `{"data":null,"errors":[{"message":"denied","errorType":"Unauthorized"}]}`
		})
		g := newGateway(t, srv.URL)

		_, err := g.ListNotes(ctx)
		require.ErrorIs(t, err, graphql.ErrGraphQL)
		assert.Contains(t, err.Error(), "Unauthorized: denied")
	})

	t.Run("null result", func(t *testing.T) {
		srv := newHTTPServer(t, &recorder{}, func(gqlRequest) (int, string) {
			return http.StatusOK, `{"data":{"updateNote":null}}`
		})
		g := newGateway(t, srv.URL)

		_, err := g.UpdateNote(ctx, "ghost", "x")
		assert.ErrorIs(t, err, gateway.ErrNotFound)
	})

	t.Run("http status", func(t *testing.T) {
		srv := newHTTPServer(t, &recorder{}, func(gqlRequest) (int, string) {
			return http.StatusBadGateway, `upstream down`
		})
		g := newGateway(t, srv.URL)

		err := g.DeleteNote(ctx, "1")
		require.ErrorIs(t, err, graphql.ErrHTTPStatus)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestNewGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := graphql.NewGateway(ctx, &config.GraphQLConfig{})
		assert.ErrorIs(t, err, config.ErrMissingEndpoint)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(-time.Hour))
		_, err := graphql.NewGateway(ctx, &config.GraphQLConfig{Endpoint: "https://api.example.com/graphql", Token: token})
		assert.ErrorIs(t, err, graphql.ErrTokenExpired)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(time.Hour))
		g, err := graphql.NewGateway(ctx, &config.GraphQLConfig{Endpoint: "https://api.example.com/graphql", Token: "Bearer " + token})
		require.NoError(t, err)
		assert.NoError(t, g.Close())
	})
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}
