package media

import "errors"

type Type string

const (
	TypeMovie Type = "movie"
	TypeTV    Type = "tv"
	TypeBook  Type = "book"
)

// ErrInvalidMediaType is returned for any media type outside movie, tv and book.
var ErrInvalidMediaType = errors.New("invalid media type")

// ParseType validates a client supplied media type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeMovie, TypeTV, TypeBook:
		return t, nil
	}
	return "", ErrInvalidMediaType
}

func (t Type) IsFilmTV() bool {
	return t == TypeMovie || t == TypeTV
}

// Item is the provider independent representation returned to clients.
type Item struct {
	ID          string   `json:"id"`
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Year        string   `json:"year"`
	CoverImage  *string  `json:"coverImage,omitempty"`
	Rating      float64  `json:"rating"`
	Description *string  `json:"description,omitempty"`
	Creator     *string  `json:"creator,omitempty"`
	Tags        []string `json:"tags"`

	// AdditionalInfo is a FilmTVInfo or BookInfo on detail lookups and nil
	// on search rows.
	AdditionalInfo any `json:"additionalInfo,omitempty"`
}

type FilmTVInfo struct {
	Runtime int      `json:"runtime"`
	Cast    []string `json:"cast"`
}

type BookInfo struct {
	Pages     *int    `json:"pages"`
	Publisher *string `json:"publisher"`
}

type SearchResult struct {
	Results    []Item `json:"results"`
	TotalPages int    `json:"totalPages"`
}
