// Command fakecatalog serves a small in-memory TMDB and Google Books API for
// running mediashelf locally without API keys. Point
// metadata.tmdb.base_url at http://localhost:8090/tmdb/3 and
// metadata.google_books.base_url at http://localhost:8090/books/v1.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"mediashelf/internal/utils"
)

const tmdbPageSize = 20

type film struct {
	ID        int64
	Title     string
	Date      string
	Poster    string
	Overview  string
	Vote      float64
	Runtime   int
	Directors []string
	Creators  []string
	Cast      []string
}

type book struct {
	ID          string
	Title       string
	Authors     []string
	Published   string
	Description string
	Rating      float64
	Pages       int
	Publisher   string
	Thumbnail   string
}

var movies = []film{
	{ID: 603, Title: "The Matrix", Date: "1999-03-30", Poster: "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", Overview: "A hacker learns the truth about his reality.",
		Vote: 8.2, Runtime: 136, Directors: []string{"Lana Wachowski", "Lilly Wachowski"},
		Cast: []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss", "Hugo Weaving", "Joe Pantoliano", "Marcus Chong"}},
	{ID: 27205, Title: "Inception", Date: "2010-07-15", Poster: "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg", Overview: "A thief who steals corporate secrets through dreams.",
		Vote: 8.4, Runtime: 148, Directors: []string{"Christopher Nolan"},
		Cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Elliot Page", "Tom Hardy"}},
	{ID: 438631, Title: "Dune", Date: "2021-09-15", Overview: "Paul Atreides travels to the most dangerous planet in the universe.",
		Vote: 7.8, Runtime: 155, Directors: []string{"Denis Villeneuve"}, Cast: []string{"Timothée Chalamet", "Rebecca Ferguson"}},
}

var shows = []film{
	{ID: 1399, Title: "Game of Thrones", Date: "2011-04-17", Poster: "/1XS1oqL89opfnbLl8WnZY1O1uJx.jpg", Overview: "Seven noble families fight for the Iron Throne.",
		Vote: 8.4, Creators: []string{"David Benioff", "D. B. Weiss"}, Cast: []string{"Emilia Clarke", "Kit Harington", "Peter Dinklage"}},
	{ID: 70523, Title: "Dark", Date: "2017-12-01", Overview: "A missing child sets four families on a frantic hunt.",
		Vote: 8.4, Creators: []string{"Baran bo Odar", "Jantje Friese"}, Cast: []string{"Louis Hofmann", "Lisa Vicari"}},
}

var books = []book{
	{ID: "B1hSG45JCX4C", Title: "Duna", Authors: []string{"Frank Herbert"}, Published: "2017-05-01", Description: "A saga de Paul Atreides.",
		Rating: 4.5, Pages: 680, Publisher: "Aleph", Thumbnail: "http://books.google.com/books/content?id=B1hSG45JCX4C&printsec=frontcover&img=1&zoom=1"},
	{ID: "zyTCAlFPjgYC", Title: "The Google Story", Authors: []string{"David A. Vise", "Mark Malseed"}, Published: "2005-11-15",
		Pages: 207, Publisher: "Random House Digital, Inc.", Thumbnail: "http://books.google.com/books/content?id=zyTCAlFPjgYC&img=1"},
	{ID: "noauthor1", Title: "Contos Populares", Published: "1965"},
}

var (
	latency  time.Duration
	failRate float64
	logger   *utils.Logger
)

func main() {
	port := flag.Int("port", 8090, "Port to listen on")
	flag.DurationVar(&latency, "latency", 0, "Maximum random delay added to each response")
	flag.Float64Var(&failRate, "fail-rate", 0, "Fraction of requests answered with HTTP 500")
	flag.Parse()

	logger = utils.NewLogger(true)

	router := mux.NewRouter()
	router.Use(chaos)

	tmdb := router.PathPrefix("/tmdb/3").Subrouter()
	tmdb.HandleFunc("/search/{type:movie|tv}", tmdbSearch).Methods("GET")
	tmdb.HandleFunc("/{type:movie|tv}/{id:[0-9]+}", tmdbItem).Methods("GET")
	tmdb.HandleFunc("/{type:movie|tv}/{id:[0-9]+}/credits", tmdbCredits).Methods("GET")

	gb := router.PathPrefix("/books/v1").Subrouter()
	gb.HandleFunc("/volumes", booksSearch).Methods("GET")
	gb.HandleFunc("/volumes/{id}", booksVolume).Methods("GET")

	addr := fmt.Sprintf(":%d", *port)
	logger.Info().Str("addr", addr).Msg("fake catalog listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// chaos adds the configured latency and failures.
func chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug().Str("path", r.URL.Path).Str("query", r.URL.RawQuery).Msg("request")
		if latency > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(latency))))
		}
		if failRate > 0 && rand.Float64() < failRate {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"status_message": "simulated failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func catalogFor(mediaType string) []film {
	if mediaType == "tv" {
		return shows
	}
	return movies
}

func tmdbFields(mediaType string, f film) map[string]any {
	row := map[string]any{"id": f.ID, "overview": f.Overview, "vote_average": f.Vote}
	if f.Poster != "" {
		row["poster_path"] = f.Poster
	} else {
		row["poster_path"] = nil
	}
	if mediaType == "tv" {
		row["name"] = f.Title
		row["first_air_date"] = f.Date
	} else {
		row["title"] = f.Title
		row["release_date"] = f.Date
	}
	return row
}

func tmdbSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("api_key") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status_message": "Invalid API key: You must be granted a valid key."})
		return
	}
	mediaType := mux.Vars(r)["type"]
	query := strings.ToLower(r.URL.Query().Get("query"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	var matches []map[string]any
	for _, f := range catalogFor(mediaType) {
		if strings.Contains(strings.ToLower(f.Title), query) {
			matches = append(matches, tmdbFields(mediaType, f))
		}
	}

	totalPages := (len(matches) + tmdbPageSize - 1) / tmdbPageSize
	start := (page - 1) * tmdbPageSize
	results := []map[string]any{}
	if start < len(matches) {
		results = matches[start:min(start+tmdbPageSize, len(matches))]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":          page,
		"results":       results,
		"total_pages":   totalPages,
		"total_results": len(matches),
	})
}

func findFilm(r *http.Request) (string, *film) {
	vars := mux.Vars(r)
	id, _ := strconv.ParseInt(vars["id"], 10, 64)
	for _, f := range catalogFor(vars["type"]) {
		if f.ID == id {
			return vars["type"], &f
		}
	}
	return vars["type"], nil
}

func tmdbItem(w http.ResponseWriter, r *http.Request) {
	mediaType, f := findFilm(r)
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"status_message": "The resource you requested could not be found."})
		return
	}
	item := tmdbFields(mediaType, *f)
	if mediaType == "tv" {
		var createdBy []map[string]any
		for i, name := range f.Creators {
			createdBy = append(createdBy, map[string]any{"id": i + 1, "name": name})
		}
		item["created_by"] = createdBy
		item["episodes"] = []map[string]any{{"runtime": 50}, {"runtime": 55}}
	} else {
		item["runtime"] = f.Runtime
	}
	writeJSON(w, http.StatusOK, item)
}

func tmdbCredits(w http.ResponseWriter, r *http.Request) {
	_, f := findFilm(r)
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"status_message": "The resource you requested could not be found."})
		return
	}
	cast := []map[string]any{}
	for _, name := range f.Cast {
		cast = append(cast, map[string]any{"name": name})
	}
	crew := []map[string]any{{"name": "Hans Zimmer", "job": "Original Music Composer"}}
	for _, name := range f.Directors {
		crew = append(crew, map[string]any{"name": name, "job": "Director"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": f.ID, "cast": cast, "crew": crew})
}

func volumeJSON(b book) map[string]any {
	info := map[string]any{"title": b.Title, "publishedDate": b.Published}
	if len(b.Authors) > 0 {
		info["authors"] = b.Authors
	}
	if b.Description != "" {
		info["description"] = b.Description
	}
	if b.Rating > 0 {
		info["averageRating"] = b.Rating
	}
	if b.Pages > 0 {
		info["pageCount"] = b.Pages
	}
	if b.Publisher != "" {
		info["publisher"] = b.Publisher
	}
	if b.Thumbnail != "" {
		info["imageLinks"] = map[string]string{"smallThumbnail": b.Thumbnail, "thumbnail": b.Thumbnail}
	}
	return map[string]any{"kind": "books#volume", "id": b.ID, "volumeInfo": info}
}

func booksSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.ToLower(q.Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": "Missing query."}})
		return
	}
	startIndex, _ := strconv.Atoi(q.Get("startIndex"))
	maxResults, err := strconv.Atoi(q.Get("maxResults"))
	if err != nil || maxResults <= 0 {
		maxResults = 10
	}

	var matches []map[string]any
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), query) || strings.Contains(strings.ToLower(strings.Join(b.Authors, " ")), query) {
			matches = append(matches, volumeJSON(b))
		}
	}

	resp := map[string]any{"kind": "books#volumes", "totalItems": len(matches)}
	if startIndex < len(matches) {
		resp["items"] = matches[startIndex:min(startIndex+maxResults, len(matches))]
	}
	writeJSON(w, http.StatusOK, resp)
}

func booksVolume(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, b := range books {
		if b.ID == id {
			writeJSON(w, http.StatusOK, volumeJSON(b))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "The volume ID could not be found."}})
}
