package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"mediashelf/internal/clients/metadata"
	"mediashelf/internal/config"
	"mediashelf/internal/database/models"
	"mediashelf/internal/media"
	"mediashelf/internal/utils"
)

var (
	ErrEmptyQuery  = errors.New("query must not be empty")
	ErrInvalidPage = errors.New("page must be between 1 and 500")
)

// FilmTVProvider is the movie and TV catalog. TMDBClient implements it.
type FilmTVProvider interface {
	Images() metadata.TMDBImages
	Search(ctx context.Context, mediaType, query string, page int) (*metadata.TMDBSearchResult, error)
	GetItem(ctx context.Context, mediaType, id string) (*metadata.TMDBItem, error)
	GetCredits(ctx context.Context, mediaType, id string) (*metadata.TMDBCredits, error)
}

// BookProvider is the book catalog. GoogleBooksClient implements it.
type BookProvider interface {
	Search(ctx context.Context, query string, page int) (*metadata.GoogleVolumesResult, error)
	GetVolume(ctx context.Context, id string) (*metadata.GoogleVolume, error)
}

type Manager struct {
	config    *config.Config
	library   *models.LibraryRepository
	tags      *models.TagRepository
	films     FilmTVProvider
	books     BookProvider
	logger    *utils.Logger
	scheduler *cron.Cron
	started   time.Time
}

// NewManager wires the catalog providers from cfg. A missing TMDB key is
// logged and leaves movie and TV lookups disabled; books keep working.
func NewManager(cfg *config.Config, db *sql.DB, logger *utils.Logger) (*Manager, error) {
	var films FilmTVProvider
	tmdb, err := metadata.NewTMDBClient(cfg, logger)
	switch {
	case err == nil:
		films = tmdb
	case errors.Is(err, metadata.ErrConfiguration):
		logger.Warn().Err(err).Msg("movie and tv lookups disabled")
	default:
		return nil, fmt.Errorf("creating TMDB client: %w", err)
	}

	return NewManagerWithProviders(cfg, db, logger, films, metadata.NewGoogleBooksClient(cfg, logger)), nil
}

// NewManagerWithProviders is NewManager with explicit providers. films may be
// nil to run without a movie and TV catalog.
func NewManagerWithProviders(cfg *config.Config, db *sql.DB, logger *utils.Logger, films FilmTVProvider, books BookProvider) *Manager {
	return &Manager{
		config:    cfg,
		library:   models.NewLibraryRepository(db),
		tags:      models.NewTagRepository(db),
		films:     films,
		books:     books,
		logger:    logger.WithComponent("core"),
		scheduler: cron.New(),
		started:   time.Now(),
	}
}

// Search runs a catalog search for mediaType and normalizes the page of
// results. Unknown media types fail before any provider is contacted.
func (m *Manager) Search(ctx context.Context, mediaType, query string, page int) (*media.SearchResult, error) {
	t, err := media.ParseType(mediaType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if page < 1 || page > metadata.MaxPage {
		return nil, ErrInvalidPage
	}

	log := m.logger.Ctx(ctx)
	log.Debug().Str("type", string(t)).Str("query", query).Int("page", page).Msg("catalog search")

	if t == media.TypeBook {
		return m.searchBooks(ctx, query, page)
	}
	return m.searchFilmTV(ctx, t, query, page)
}

func (m *Manager) searchFilmTV(ctx context.Context, t media.Type, query string, page int) (*media.SearchResult, error) {
	if m.films == nil {
		return nil, metadata.ErrMissingTMDBKey
	}
	res, err := m.films.Search(ctx, string(t), query, page)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", t, err)
	}

	images := m.films.Images()
	results := make([]media.Item, 0, len(res.Results))
	for _, raw := range res.Results {
		results = append(results, media.FilmTVSummary(raw, t, images))
	}

	totalPages := 1
	if res.TotalPages != nil {
		totalPages = *res.TotalPages
	}
	return &media.SearchResult{Results: results, TotalPages: totalPages}, nil
}

func (m *Manager) searchBooks(ctx context.Context, query string, page int) (*media.SearchResult, error) {
	res, err := m.books.Search(ctx, query, page)
	if err != nil {
		return nil, fmt.Errorf("searching books: %w", err)
	}

	results := make([]media.Item, 0, len(res.Items))
	for _, raw := range res.Items {
		results = append(results, media.Book(raw, false))
	}
	return &media.SearchResult{Results: results, TotalPages: media.PaginateBooks(res.TotalItems)}, nil
}

// GetDetails fetches and normalizes a single catalog item. For movies and TV
// the item and its credits are fetched concurrently and both must succeed.
func (m *Manager) GetDetails(ctx context.Context, mediaType, id string) (*media.Item, error) {
	t, err := media.ParseType(mediaType)
	if err != nil {
		return nil, err
	}

	m.logger.Ctx(ctx).Debug().Str("type", string(t)).Str("id", id).Msg("catalog details")

	if t == media.TypeBook {
		volume, err := m.books.GetVolume(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching book %s: %w", id, err)
		}
		item := media.Book(*volume, true)
		return &item, nil
	}

	if m.films == nil {
		return nil, metadata.ErrMissingTMDBKey
	}

	var raw *metadata.TMDBItem
	var credits *metadata.TMDBCredits
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = m.films.GetItem(gctx, string(t), id)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = m.films.GetCredits(gctx, string(t), id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", t, id, err)
	}

	item := media.FilmTV(*raw, *credits, t, m.films.Images())
	return &item, nil
}

// StartScheduler registers the periodic library maintenance jobs.
func (m *Manager) StartScheduler() error {
	interval, err := m.config.TagPruneInterval()
	if err != nil {
		return err
	}
	if interval == 0 {
		m.logger.Info().Msg("tag pruning disabled")
		return nil
	}

	_, err = m.scheduler.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := m.PruneOrphanTags(ctx); err != nil {
			m.logger.Error().Err(err).Msg("tag pruning failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling tag pruning: %w", err)
	}

	m.scheduler.Start()
	m.logger.Info().Dur("interval", interval).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.scheduler.Stop().Done()
}
