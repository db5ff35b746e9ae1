package media

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediashelf/internal/clients/metadata"
)

var testImages = metadata.TMDBImages{
	BaseURL:       "https://image.tmdb.org/t/p",
	PosterSize:    "w500",
	ThumbnailSize: "w185",
}

func str(s string) *string { return &s }
func num(n int) *int { return &n }
func flt(f float64) *float64 { return &f }

func TestParseType(t *testing.T) {
	for _, s := range []string{"movie", "tv", "book"} {
		got, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, Type(s), got)
	}
	for _, s := range []string{"podcast", "", "Movie", "movies"} {
		_, err := ParseType(s)
		assert.ErrorIs(t, err, ErrInvalidMediaType, s)
	}
}

func TestFilmTVSummary(t *testing.T) {
	raw := metadata.TMDBSearchItem{
		ID:          603,
		Title:       "The Matrix",
		ReleaseDate: "1999-03-30",
		PosterPath:  str("/m.jpg"),
		Overview:    str("A hacker learns the truth."),
		VoteAverage: flt(8.2),
	}

	got := FilmTVSummary(raw, TypeMovie, testImages)
	want := Item{
		ID:          "603",
		Type:        TypeMovie,
		Title:       "The Matrix",
		Year:        "1999",
		CoverImage:  str("https://image.tmdb.org/t/p/w185/m.jpg"),
		Rating:      4.1,
		Description: str("A hacker learns the truth."),
		Tags:        []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilmTVSummary() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilmTVSummaryFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		raw        metadata.TMDBSearchItem
		wantTitle  string
		wantYear   string
		wantRating float64
	}{
		{
			name:      "tv uses name and first air date",
			raw:       metadata.TMDBSearchItem{ID: 1, Name: "Dark", FirstAirDate: "2017-12-01"},
			wantTitle: "Dark",
			wantYear:  "2017",
		},
		{
			name:      "empty release date falls through to first air date",
			raw:       metadata.TMDBSearchItem{ID: 1, Title: "X", ReleaseDate: "", FirstAirDate: "2001-01-01"},
			wantTitle: "X",
			wantYear:  "2001",
		},
		{
			name:      "no dates gives empty year",
			raw:       metadata.TMDBSearchItem{ID: 1, Title: "X"},
			wantTitle: "X",
			wantYear:  "",
		},
		{
			name:       "missing vote average is zero",
			raw:        metadata.TMDBSearchItem{ID: 1, Title: "X"},
			wantTitle:  "X",
			wantRating: 0,
		},
		{
			name:       "perfect score maps to five",
			raw:        metadata.TMDBSearchItem{ID: 1, Title: "X", VoteAverage: flt(10)},
			wantTitle:  "X",
			wantRating: 5,
		},
		{
			name:       "out of range score is clamped",
			raw:        metadata.TMDBSearchItem{ID: 1, Title: "X", VoteAverage: flt(14)},
			wantTitle:  "X",
			wantRating: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilmTVSummary(tt.raw, TypeTV, testImages)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantYear, got.Year)
			assert.InDelta(t, tt.wantRating, got.Rating, 1e-9)
			assert.Nil(t, got.CoverImage)
			assert.Nil(t, got.Creator)
			assert.Nil(t, got.AdditionalInfo)
		})
	}
}

func TestRatingIsHalfOfVoteAverage(t *testing.T) {
	for _, v := range []float64{0, 0.5, 3.3, 5, 7.25, 9.99, 10} {
		got := FilmTVSummary(metadata.TMDBSearchItem{ID: 1, VoteAverage: flt(v)}, TypeMovie, testImages)
		assert.InDelta(t, v/2, got.Rating, 1e-9)
		assert.GreaterOrEqual(t, got.Rating, 0.0)
		assert.LessOrEqual(t, got.Rating, 5.0)
	}
}

func TestFilmTVMovieDetails(t *testing.T) {
	raw := metadata.TMDBItem{
		TMDBSearchItem: metadata.TMDBSearchItem{
			ID:          27205,
			Title:       "Inception",
			ReleaseDate: "2010-07-15",
			PosterPath:  str("/i.jpg"),
			VoteAverage: flt(8.4),
		},
		Runtime: num(148),
	}
	credits := metadata.TMDBCredits{
		Cast: []metadata.TMDBCastMember{
			{Name: "Leonardo DiCaprio"}, {Name: "Joseph Gordon-Levitt"}, {Name: "Elliot Page"},
			{Name: "Tom Hardy"}, {Name: "Ken Watanabe"}, {Name: "Cillian Murphy"},
		},
		Crew: []metadata.TMDBCrewMember{
			{Name: "Hans Zimmer", Job: "Original Music Composer"},
			{Name: "Christopher Nolan", Job: "Director"},
			{Name: "Christopher Nolan", Job: "Writer"},
		},
	}

	got := FilmTV(raw, credits, TypeMovie, testImages)
	want := Item{
		ID:         "27205",
		Type:       TypeMovie,
		Title:      "Inception",
		Year:       "2010",
		CoverImage: str("https://image.tmdb.org/t/p/w500/i.jpg"),
		Rating:     4.2,
		Creator:    str("Christopher Nolan"),
		Tags:       []string{},
		AdditionalInfo: FilmTVInfo{
			Runtime: 148,
			Cast:    []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Elliot Page", "Tom Hardy", "Ken Watanabe"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilmTV() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilmTVMultipleDirectors(t *testing.T) {
	credits := metadata.TMDBCredits{Crew: []metadata.TMDBCrewMember{
		{Name: "Lana Wachowski", Job: "Director"},
		{Name: "Lilly Wachowski", Job: "Director"},
	}}
	got := FilmTV(metadata.TMDBItem{TMDBSearchItem: metadata.TMDBSearchItem{ID: 603, Title: "The Matrix"}}, credits, TypeMovie, testImages)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "Lana Wachowski, Lilly Wachowski", *got.Creator)
}

func TestFilmTVShowDetails(t *testing.T) {
	raw := metadata.TMDBItem{
		TMDBSearchItem: metadata.TMDBSearchItem{ID: 1399, Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
		Runtime:        num(0),
		Episodes:       []metadata.TMDBEpisode{{Runtime: num(45)}, {Runtime: nil}, {Runtime: num(50)}},
		CreatedBy:      []metadata.TMDBPerson{{Name: "David Benioff"}, {Name: "D. B. Weiss"}},
	}
	// directors in credits are ignored for tv
	credits := metadata.TMDBCredits{
		Cast: []metadata.TMDBCastMember{{Name: "Emilia Clarke"}, {Name: "Kit Harington"}},
		Crew: []metadata.TMDBCrewMember{{Name: "Someone", Job: "Director"}},
	}

	got := FilmTV(raw, credits, TypeTV, testImages)
	assert.Equal(t, "Game of Thrones", got.Title)
	assert.Equal(t, "2011", got.Year)
	assert.Nil(t, got.CoverImage)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "David Benioff, D. B. Weiss", *got.Creator)
	assert.Equal(t, FilmTVInfo{Runtime: 95, Cast: []string{"Emilia Clarke", "Kit Harington"}}, got.AdditionalInfo)
}

func TestFilmTVWithoutCreditsData(t *testing.T) {
	got := FilmTV(metadata.TMDBItem{TMDBSearchItem: metadata.TMDBSearchItem{ID: 5, Title: "Y"}}, metadata.TMDBCredits{}, TypeMovie, testImages)
	assert.Nil(t, got.Creator)
	assert.Equal(t, FilmTVInfo{Runtime: 0, Cast: []string{}}, got.AdditionalInfo)

	// cast serializes as [] rather than null
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"cast":[]`)
	assert.NotContains(t, string(b), "coverImage")
	assert.NotContains(t, string(b), "creator")
}

func TestBook(t *testing.T) {
	raw := metadata.GoogleVolume{
		ID: "zyTCAlFPjgYC",
		VolumeInfo: metadata.GoogleVolumeInfo{
			Title:         "The Google Story",
			Authors:       []string{"David A. Vise", "Mark Malseed"},
			PublishedDate: "2005-11-15",
			Description:   str("Here is the story"),
			AverageRating: flt(3.5),
			PageCount:     num(207),
			Publisher:     str("Random House Digital, Inc."),
			ImageLinks: map[string]string{
				"thumbnail":  "http://books.google.com/t.png",
				"extraLarge": "http://books.google.com/xl.png",
			},
		},
	}

	got := Book(raw, true)
	want := Item{
		ID:          "zyTCAlFPjgYC",
		Type:        TypeBook,
		Title:       "The Google Story",
		Year:        "2005",
		CoverImage:  str("https://books.google.com/xl.png"),
		Rating:      3.5,
		Description: str("Here is the story"),
		Creator:     str("David A. Vise, Mark Malseed"),
		Tags:        []string{},
		AdditionalInfo: BookInfo{
			Pages:     num(207),
			Publisher: str("Random House Digital, Inc."),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Book() mismatch (-want +got):\n%s", diff)
	}

	summary := Book(raw, false)
	assert.Nil(t, summary.AdditionalInfo)
}

func TestBookMissingFields(t *testing.T) {
	got := Book(metadata.GoogleVolume{ID: "x"}, true)

	assert.Equal(t, "", got.Title)
	assert.Equal(t, "", got.Year)
	assert.Nil(t, got.CoverImage)
	assert.Zero(t, got.Rating)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "", *got.Creator)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"additionalInfo":{"pages":null,"publisher":null}`)
	assert.Contains(t, string(b), `"tags":[]`)
	assert.NotContains(t, string(b), "coverImage")
}

func TestBookPartialYear(t *testing.T) {
	got := Book(metadata.GoogleVolume{ID: "x", VolumeInfo: metadata.GoogleVolumeInfo{PublishedDate: "1965"}}, false)
	assert.Equal(t, "1965", got.Year)
}

func TestPaginateBooks(t *testing.T) {
	tests := []struct {
		total, want int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{25, 3},
		{100, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaginateBooks(tt.total), "totalItems=%d", tt.total)
	}
}

func TestYear(t *testing.T) {
	assert.Equal(t, "1999", Year("1999-03-30"))
	assert.Equal(t, "2011", Year("", "2011-04-17"))
	assert.Equal(t, "", Year("", ""))
	assert.Equal(t, "", Year())
	assert.Equal(t, "", Year("99"))
}
