package media

import (
	"math"
	"strconv"
	"strings"

	"mediashelf/internal/clients/metadata"
)

// maxCast is how many billed cast members detail views carry.
const maxCast = 5

// FilmTVSummary converts a TMDB search row. Search rows use thumbnail artwork
// and carry no creator or additional info.
func FilmTVSummary(raw metadata.TMDBSearchItem, t Type, images metadata.TMDBImages) Item {
	return Item{
		ID:          strconv.FormatInt(raw.ID, 10),
		Type:        t,
		Title:       filmTVTitle(raw),
		Year:        Year(raw.ReleaseDate, raw.FirstAirDate),
		CoverImage:  images.Thumbnail(raw.PosterPath),
		Rating:      filmTVRating(raw.VoteAverage),
		Description: raw.Overview,
		Tags:        []string{},
	}
}

// FilmTV converts a TMDB detail payload and its credits.
func FilmTV(raw metadata.TMDBItem, credits metadata.TMDBCredits, t Type, images metadata.TMDBImages) Item {
	item := FilmTVSummary(raw.TMDBSearchItem, t, images)
	item.CoverImage = images.Poster(raw.PosterPath)
	item.Creator = filmTVCreator(raw, credits, t)
	item.AdditionalInfo = FilmTVInfo{
		Runtime: runtime(raw),
		Cast:    castNames(credits.Cast),
	}
	return item
}

// Book converts a Google Books volume. Detail lookups also carry page count
// and publisher.
func Book(raw metadata.GoogleVolume, detailed bool) Item {
	info := raw.VolumeInfo
	creator := JoinNames(info.Authors)

	rating := 0.0
	if info.AverageRating != nil {
		rating = ClampRating(*info.AverageRating)
	}

	item := Item{
		ID:          raw.ID,
		Type:        TypeBook,
		Title:       info.Title,
		Year:        Year(info.PublishedDate),
		CoverImage:  metadata.BookCoverURL(info.ImageLinks),
		Rating:      rating,
		Description: info.Description,
		Creator:     &creator,
		Tags:        []string{},
	}
	if detailed {
		item.AdditionalInfo = BookInfo{Pages: info.PageCount, Publisher: info.Publisher}
	}
	return item
}

// PaginateBooks returns ceil(totalItems / page size).
func PaginateBooks(totalItems int) int {
	if totalItems <= 0 {
		return 0
	}
	return (totalItems + metadata.BooksPageSize - 1) / metadata.BooksPageSize
}

// Year returns the leading four characters of the first non-empty date, or
// "" when that date is shorter than a year.
func Year(dates ...string) string {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if len(d) < 4 {
			return ""
		}
		return d[:4]
	}
	return ""
}

func JoinNames(names []string) string {
	return strings.Join(names, ", ")
}

func ClampRating(r float64) float64 {
	switch {
	case r < 0 || math.IsNaN(r):
		return 0
	case r > 5:
		return 5
	}
	return r
}

func filmTVTitle(raw metadata.TMDBSearchItem) string {
	if raw.Title != "" {
		return raw.Title
	}
	return raw.Name
}

func filmTVRating(voteAverage *float64) float64 {
	if voteAverage == nil {
		return 0
	}
	return ClampRating(*voteAverage / 2)
}

func filmTVCreator(raw metadata.TMDBItem, credits metadata.TMDBCredits, t Type) *string {
	var names []string
	switch t {
	case TypeMovie:
		for _, c := range credits.Crew {
			if c.Job == "Director" {
				names = append(names, c.Name)
			}
		}
	case TypeTV:
		for _, p := range raw.CreatedBy {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	joined := JoinNames(names)
	return &joined
}

// runtime prefers the item runtime and falls back to summing episodes, which
// is how TMDB reports some TV specials.
func runtime(raw metadata.TMDBItem) int {
	if raw.Runtime != nil && *raw.Runtime != 0 {
		return *raw.Runtime
	}
	total := 0
	for _, e := range raw.Episodes {
		if e.Runtime != nil {
			total += *e.Runtime
		}
	}
	return total
}

func castNames(cast []metadata.TMDBCastMember) []string {
	n := len(cast)
	if n > maxCast {
		n = maxCast
	}
	names := make([]string, 0, n)
	for _, c := range cast[:n] {
		names = append(names, c.Name)
	}
	return names
}
