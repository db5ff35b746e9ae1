package metadata

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediashelf/internal/config"
	"mediashelf/internal/utils"
)

// BooksPageSize is the fixed page size used for volume searches.
const BooksPageSize = 10

// coverPreference lists imageLinks keys from largest to smallest.
var coverPreference = []string{"extraLarge", "large", "medium", "small", "thumbnail"}

type GoogleVolumesResult struct {
	TotalItems int            `json:"totalItems"`
	Items      []GoogleVolume `json:"items"`
}

type GoogleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo GoogleVolumeInfo `json:"volumeInfo"`
}

type GoogleVolumeInfo struct {
	Title         string            `json:"title"`
	Authors       []string          `json:"authors"`
	PublishedDate string            `json:"publishedDate"`
	Description   *string           `json:"description"`
	AverageRating *float64          `json:"averageRating"`
	PageCount     *int              `json:"pageCount"`
	Publisher     *string           `json:"publisher"`
	ImageLinks    map[string]string `json:"imageLinks"`
}

// BookCoverURL picks the largest available image and forces https.
func BookCoverURL(links map[string]string) *string {
	for _, size := range coverPreference {
		if u, ok := links[size]; ok && u != "" {
			u = upgradeHTTPS(u)
			return &u
		}
	}
	return nil
}

type GoogleBooksClient struct {
	apiKey       string
	baseURL      string
	langRestrict string
	printType    string
	upstream     upstream
}

// NewGoogleBooksClient never fails on a missing key: the service allows
// low-volume anonymous use.
func NewGoogleBooksClient(cfg *config.Config, logger *utils.Logger) *GoogleBooksClient {
	timeout, err := cfg.UpstreamTimeout()
	if err != nil {
		timeout = 10 * time.Second
	}
	return &GoogleBooksClient{
		apiKey:       cfg.Metadata.GoogleBooks.APIKey,
		baseURL:      strings.TrimRight(cfg.Metadata.GoogleBooks.BaseURL, "/"),
		langRestrict: cfg.Metadata.GoogleBooks.LangRestrict,
		printType:    cfg.Metadata.GoogleBooks.PrintType,
		upstream:     newUpstream(ProviderGoogleBooks, timeout, logger.WithComponent("google_books")),
	}
}

func (g *GoogleBooksClient) Search(ctx context.Context, query string, page int) (*GoogleVolumesResult, error) {
	page = min(max(page, 1), MaxPage)
	params := g.params()
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa((page-1)*BooksPageSize))
	params.Set("maxResults", strconv.Itoa(BooksPageSize))
	if g.langRestrict != "" {
		params.Set("langRestrict", g.langRestrict)
	}
	if g.printType != "" {
		params.Set("printType", g.printType)
	}

	var result GoogleVolumesResult
	if err := g.upstream.getJSON(ctx, "search", g.baseURL+"/volumes", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *GoogleBooksClient) GetVolume(ctx context.Context, id string) (*GoogleVolume, error) {
	var volume GoogleVolume
	if err := g.upstream.getJSON(ctx, "volume", g.baseURL+"/volumes/"+url.PathEscape(id), g.params(), &volume); err != nil {
		return nil, err
	}
	return &volume, nil
}

func (g *GoogleBooksClient) params() url.Values {
	params := url.Values{}
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}
	return params
}
