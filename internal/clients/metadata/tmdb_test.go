package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediashelf/internal/config"
	"mediashelf/internal/utils"
)

func testConfig(tmdbURL, booksURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Metadata.Timeout = "2s"
	cfg.Metadata.TMDB.APIKey = "secret"
	cfg.Metadata.TMDB.BaseURL = tmdbURL
	cfg.Metadata.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p"
	cfg.Metadata.TMDB.PosterSize = "w500"
	cfg.Metadata.TMDB.ThumbnailSize = "w185"
	cfg.Metadata.TMDB.Language = "pt-BR"
	cfg.Metadata.GoogleBooks.BaseURL = booksURL
	cfg.Metadata.GoogleBooks.LangRestrict = "pt"
	cfg.Metadata.GoogleBooks.PrintType = "books"
	return cfg
}

func newTestTMDB(t *testing.T, handler http.HandlerFunc) *TMDBClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewTMDBClient(testConfig(srv.URL, ""), utils.Nop())
	require.NoError(t, err)
	return client
}

func TestNewTMDBClientRequiresKey(t *testing.T) {
	cfg := testConfig("https://api.example", "")
	cfg.Metadata.TMDB.APIKey = ""

	_, err := NewTMDBClient(cfg, utils.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTMDBKey)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "TMDB API key not configured", err.Error())
}

func TestTMDBSearchSendsProviderParams(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "pt-BR", q.Get("language"))
		assert.Equal(t, "false", q.Get("include_adult"))
		assert.Equal(t, "matrix", q.Get("query"))
		assert.Equal(t, "2", q.Get("page"))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"page":2,"total_pages":7,"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30","poster_path":"/p.jpg","overview":"Neo","vote_average":8.2}
		]}`))
	})

	res, err := client.Search(context.Background(), "movie", "matrix", 2)
	require.NoError(t, err)
	require.NotNil(t, res.TotalPages)
	assert.Equal(t, 7, *res.TotalPages)
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(603), res.Results[0].ID)
	assert.Equal(t, "The Matrix", res.Results[0].Title)
	require.NotNil(t, res.Results[0].VoteAverage)
	assert.InDelta(t, 8.2, *res.Results[0].VoteAverage, 1e-9)
}

func TestTMDBSearchRejectsUnknownType(t *testing.T) {
	called := false
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Search(context.Background(), "book", "x", 1)
	assert.Error(t, err)
	assert.False(t, called)
}

func TestTMDBItemAndCredits(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1399":
			_, _ = w.Write([]byte(`{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17",
				"created_by":[{"id":1,"name":"David Benioff"},{"id":2,"name":"D. B. Weiss"}],
				"episodes":[{"runtime":60},{"runtime":null}]}`))
		case "/tv/1399/credits":
			_, _ = w.Write([]byte(`{"cast":[{"name":"Emilia Clarke"}],"crew":[{"name":"X","job":"Director"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	item, err := client.GetItem(context.Background(), "tv", "1399")
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", item.Name)
	assert.Len(t, item.CreatedBy, 2)
	require.Len(t, item.Episodes, 2)
	assert.Nil(t, item.Episodes[1].Runtime)
	assert.Nil(t, item.Runtime)

	credits, err := client.GetCredits(context.Background(), "tv", "1399")
	require.NoError(t, err)
	assert.Equal(t, "Emilia Clarke", credits.Cast[0].Name)
	assert.Equal(t, "Director", credits.Crew[0].Job)
}

func TestTMDBDecodesUTF8WithoutCharset(t *testing.T) {
	padding := strings.Repeat("a", 1200)
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"overview":"` + padding + `","name":"Ação"}`))
	})

	item, err := client.GetItem(context.Background(), "tv", "1")
	require.NoError(t, err)
	assert.Equal(t, "Ação", item.Name)
}

func TestTMDBTranscodesDeclaredCharset(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=ISO-8859-1")
		// "Ação" in Latin-1.
		_, _ = w.Write([]byte("{\"id\":1,\"name\":\"A\xe7\xe3o\"}"))
	})

	item, err := client.GetItem(context.Background(), "tv", "1")
	require.NoError(t, err)
	assert.Equal(t, "Ação", item.Name)
}

func TestTMDBNonSuccessStatus(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
	})

	_, err := client.GetItem(context.Background(), "movie", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamStatus)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
	assert.Equal(t, ProviderTMDB, upErr.Provider)
	assert.Equal(t, "item", upErr.Operation)
	assert.Contains(t, upErr.Body, "Invalid API key")
}

func TestTMDBMalformedBody(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not-json`))
	})

	_, err := client.GetCredits(context.Background(), "movie", "1")
	assert.ErrorIs(t, err, ErrUpstreamBadResponse)
}

func TestTMDBUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := NewTMDBClient(testConfig(base, ""), utils.Nop())
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "tv", "x", 1)
	assert.ErrorIs(t, err, ErrUpstreamUnreachable)
}

func TestTMDBTimeout(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})
	client.upstream.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.GetItem(context.Background(), "movie", "1")
	assert.ErrorIs(t, err, ErrUpstreamUnreachable)
}

func TestTMDBImagesResolve(t *testing.T) {
	images := TMDBImages{BaseURL: "https://image.tmdb.org/t/p", PosterSize: "w500", ThumbnailSize: "w185"}
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		path *string
		size string
		want *string
	}{
		{"nil path", nil, "w500", nil},
		{"empty path", str(""), "w500", nil},
		{"relative", str("/abc.jpg"), "w500", str("https://image.tmdb.org/t/p/w500/abc.jpg")},
		{"thumbnail size", str("/abc.jpg"), "w185", str("https://image.tmdb.org/t/p/w185/abc.jpg")},
		{"absolute https", str("https://cdn.example/x.jpg"), "w500", str("https://cdn.example/x.jpg")},
		{"absolute http upgraded", str("http://cdn.example/x.jpg"), "w500", str("https://cdn.example/x.jpg")},
		{"relative starting with http", str("httpfoo.jpg"), "w500", str("https://image.tmdb.org/t/p/w500/httpfoo.jpg")},
		{"relative without slash", str("abc.jpg"), "w185", str("https://image.tmdb.org/t/p/w185/abc.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, images.Resolve(tt.path, tt.size))
		})
	}

	assert.Equal(t, str("https://image.tmdb.org/t/p/w500/p.jpg"), images.Poster(str("/p.jpg")))
	assert.Equal(t, str("https://image.tmdb.org/t/p/w185/p.jpg"), images.Thumbnail(str("/p.jpg")))
}

func TestRedactHidesKeys(t *testing.T) {
	client := &TMDBClient{apiKey: "secret", language: "en"}
	redacted := redact(client.params())
	assert.Equal(t, "REDACTED", redacted.Get("api_key"))
	assert.Equal(t, "en", redacted.Get("language"))
}
