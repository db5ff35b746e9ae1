package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mediashelf/internal/config"
	"mediashelf/internal/utils"
)

// TMDBSearchResult is the raw /search/{movie|tv} payload.
type TMDBSearchResult struct {
	Page         int              `json:"page"`
	TotalPages   *int             `json:"total_pages"`
	TotalResults int              `json:"total_results"`
	Results      []TMDBSearchItem `json:"results"`
}

// TMDBSearchItem holds the fields shared by search rows and detail payloads.
// Movies fill Title/ReleaseDate, TV shows fill Name/FirstAirDate.
type TMDBSearchItem struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Name         string   `json:"name"`
	ReleaseDate  string   `json:"release_date"`
	FirstAirDate string   `json:"first_air_date"`
	PosterPath   *string  `json:"poster_path"`
	Overview     *string  `json:"overview"`
	VoteAverage  *float64 `json:"vote_average"`
}

// TMDBItem is the raw /{movie|tv}/{id} payload.
type TMDBItem struct {
	TMDBSearchItem
	Runtime   *int          `json:"runtime"`
	Episodes  []TMDBEpisode `json:"episodes"`
	CreatedBy []TMDBPerson  `json:"created_by"`
}

type TMDBEpisode struct {
	Runtime *int `json:"runtime"`
}

type TMDBPerson struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TMDBCredits is the raw /{movie|tv}/{id}/credits payload. Cast is in
// provider billing order.
type TMDBCredits struct {
	Cast []TMDBCastMember `json:"cast"`
	Crew []TMDBCrewMember `json:"crew"`
}

type TMDBCastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

type TMDBCrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// TMDBImages builds artwork URLs from TMDB relative paths.
type TMDBImages struct {
	BaseURL       string
	PosterSize    string
	ThumbnailSize string
}

// Resolve returns the absolute URL for path at size, or nil when path is
// missing. Absolute paths pass through, with http upgraded to https.
func (i TMDBImages) Resolve(path *string, size string) *string {
	if path == nil || *path == "" {
		return nil
	}
	p := *path
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		u := upgradeHTTPS(p)
		return &u
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := fmt.Sprintf("%s/%s%s", strings.TrimRight(i.BaseURL, "/"), size, p)
	return &u
}

func (i TMDBImages) Poster(path *string) *string {
	return i.Resolve(path, i.PosterSize)
}

func (i TMDBImages) Thumbnail(path *string) *string {
	return i.Resolve(path, i.ThumbnailSize)
}

type TMDBClient struct {
	apiKey   string
	baseURL  string
	language string
	images   TMDBImages
	upstream upstream
}

// NewTMDBClient returns ErrMissingTMDBKey when no API key is configured so
// the caller can disable film/TV lookups at startup.
func NewTMDBClient(cfg *config.Config, logger *utils.Logger) (*TMDBClient, error) {
	if cfg.Metadata.TMDB.APIKey == "" {
		return nil, ErrMissingTMDBKey
	}
	timeout, err := cfg.UpstreamTimeout()
	if err != nil {
		return nil, err
	}
	return &TMDBClient{
		apiKey:   cfg.Metadata.TMDB.APIKey,
		baseURL:  strings.TrimRight(cfg.Metadata.TMDB.BaseURL, "/"),
		language: cfg.Metadata.TMDB.Language,
		images: TMDBImages{
			BaseURL:       cfg.Metadata.TMDB.ImageBaseURL,
			PosterSize:    cfg.Metadata.TMDB.PosterSize,
			ThumbnailSize: cfg.Metadata.TMDB.ThumbnailSize,
		},
		upstream: newUpstream(ProviderTMDB, timeout, logger.WithComponent("tmdb")),
	}, nil
}

func (t *TMDBClient) Images() TMDBImages {
	return t.images
}

func (t *TMDBClient) Search(ctx context.Context, mediaType, query string, page int) (*TMDBSearchResult, error) {
	if err := checkFilmTVType(mediaType); err != nil {
		return nil, err
	}
	params := t.params()
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var result TMDBSearchResult
	if err := t.get(ctx, "search", "search/"+mediaType, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *TMDBClient) GetItem(ctx context.Context, mediaType, id string) (*TMDBItem, error) {
	if err := checkFilmTVType(mediaType); err != nil {
		return nil, err
	}
	var item TMDBItem
	if err := t.get(ctx, "item", mediaType+"/"+url.PathEscape(id), t.params(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (t *TMDBClient) GetCredits(ctx context.Context, mediaType, id string) (*TMDBCredits, error) {
	if err := checkFilmTVType(mediaType); err != nil {
		return nil, err
	}
	var credits TMDBCredits
	if err := t.get(ctx, "credits", mediaType+"/"+url.PathEscape(id)+"/credits", t.params(), &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

func (t *TMDBClient) get(ctx context.Context, operation, endpoint string, params url.Values, target any) error {
	return t.upstream.getJSON(ctx, operation, t.baseURL+"/"+endpoint, params, target)
}

func (t *TMDBClient) params() url.Values {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("language", t.language)
	params.Set("include_adult", "false")
	return params
}

func checkFilmTVType(mediaType string) error {
	if mediaType != "movie" && mediaType != "tv" {
		return fmt.Errorf("tmdb: unsupported media type %q", mediaType)
	}
	return nil
}

func upgradeHTTPS(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
