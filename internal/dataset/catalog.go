// Package dataset loads the movie catalog and rating history the engine is
// built from: the TMDB 5000 CSV pair for metadata and MovieLens-style rating
// dumps or a Postgres ratings table for preferences.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/engine"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

var (
	movieColumns  = []string{"id", "title", "overview", "genres", "keywords"}
	creditColumns = []string{"movie_id", "title", "cast", "crew"}
)

// CatalogStats counts what happened to the rows of the catalog files.
type CatalogStats struct {
	MovieRows     int `json:"movie_rows"`
	CreditRows    int `json:"credit_rows"`
	Merged        int `json:"merged"`
	Unmatched     int `json:"unmatched"`
	MalformedRows int `json:"malformed_rows"`
}

type namedEntry struct {
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

type creditRow struct {
	movieID  int64
	cast     []string
	director string
}

// LoadCatalog reads the movies and credits CSV files and merges them on title.
func LoadCatalog(moviesPath, creditsPath string, logger *logrus.Logger) ([]engine.Item, CatalogStats, error) {
	movies, err := os.Open(moviesPath)
	if err != nil {
		return nil, CatalogStats{}, fmt.Errorf("failed to open movies file: %w", err)
	}
	defer movies.Close()

	credits, err := os.Open(creditsPath)
	if err != nil {
		return nil, CatalogStats{}, fmt.Errorf("failed to open credits file: %w", err)
	}
	defer credits.Close()

	items, stats, err := ReadCatalog(movies, credits)
	if err != nil {
		return nil, stats, err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"movies":    moviesPath,
			"credits":   creditsPath,
			"items":     len(items),
			"unmatched": stats.Unmatched,
			"malformed": stats.MalformedRows,
		}).Info("Catalog loaded")
	}
	return items, stats, nil
}

// ReadCatalog merges a TMDB movies CSV with its credits CSV. Every movie row is
// paired with every credits row sharing its exact title, in movie file order.
// The item ID is the credits movie_id. Rows whose JSON columns cannot be parsed
// are skipped and counted.
func ReadCatalog(movies, credits io.Reader) ([]engine.Item, CatalogStats, error) {
	var stats CatalogStats

	byTitle, err := readCredits(credits, &stats)
	if err != nil {
		return nil, stats, err
	}

	r := newReader(movies)
	cols, err := readHeader(r, movieColumns)
	if err != nil {
		return nil, stats, fmt.Errorf("movies: %w", err)
	}

	var items []engine.Item
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isRowError(err) {
				stats.MalformedRows++
				continue
			}
			return nil, stats, fmt.Errorf("movies: %w", err)
		}
		stats.MovieRows++

		genres, errG := parseNames(record[cols["genres"]])
		keywords, errK := parseNames(record[cols["keywords"]])
		if errG != nil || errK != nil {
			stats.MalformedRows++
			continue
		}

		title := record[cols["title"]]
		matches := byTitle[title]
		if len(matches) == 0 {
			stats.Unmatched++
			continue
		}

		for _, credit := range matches {
			items = append(items, engine.Item{
				ID:       credit.movieID,
				Title:    title,
				Overview: record[cols["overview"]],
				Genres:   genres,
				Keywords: keywords,
				Cast:     credit.cast,
				Director: credit.director,
			})
			stats.Merged++
		}
	}

	return items, stats, nil
}

func readCredits(in io.Reader, stats *CatalogStats) (map[string][]creditRow, error) {
	r := newReader(in)
	cols, err := readHeader(r, creditColumns)
	if err != nil {
		return nil, fmt.Errorf("credits: %w", err)
	}

	byTitle := make(map[string][]creditRow)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isRowError(err) {
				stats.MalformedRows++
				continue
			}
			return nil, fmt.Errorf("credits: %w", err)
		}
		stats.CreditRows++

		movieID, err := strconv.ParseInt(strings.TrimSpace(record[cols["movie_id"]]), 10, 64)
		if err != nil {
			stats.MalformedRows++
			continue
		}
		cast, err := parseNames(record[cols["cast"]])
		if err != nil {
			stats.MalformedRows++
			continue
		}
		director, err := parseDirector(record[cols["crew"]])
		if err != nil {
			stats.MalformedRows++
			continue
		}

		title := record[cols["title"]]
		byTitle[title] = append(byTitle[title], creditRow{
			movieID:  movieID,
			cast:     cast,
			director: director,
		})
	}
	return byTitle, nil
}

func newReader(in io.Reader) *csv.Reader {
	r := csv.NewReader(in)
	r.LazyQuotes = true
	return r
}

func readHeader(r *csv.Reader, required []string) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

// isRowError reports whether err affects a single record only.
func isRowError(err error) bool {
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount)
}

// parseNames extracts the "name" of every entry of a JSON array column. An
// empty cell is an empty list.
func parseNames(raw string) ([]string, error) {
	entries, err := parseEntries(raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// parseDirector returns the first crew member whose job is Director, or "".
func parseDirector(raw string) (string, error) {
	entries, err := parseEntries(raw)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Job == "Director" {
			return e.Name, nil
		}
	}
	return "", nil
}

func parseEntries(raw string) ([]namedEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var entries []namedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON column: %w", err)
	}
	return entries, nil
}
