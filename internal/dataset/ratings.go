package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temcen/cinematch/internal/engine"
)

const ratingSeparator = "::"

// RatingStats counts the lines of a ratings dump.
type RatingStats struct {
	Lines     int `json:"lines"`
	Parsed    int `json:"parsed"`
	Malformed int `json:"malformed"`
}

// ParseRatings reads MovieLens "user::movie::rating::timestamp" lines. The
// timestamp is ignored and may be absent. Blank lines are skipped; lines that
// do not parse are counted as malformed and skipped.
func ParseRatings(in io.Reader) ([]engine.Rating, RatingStats, error) {
	var (
		ratings []engine.Rating
		stats   RatingStats
	)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		rating, ok := parseRatingLine(line)
		if !ok {
			stats.Malformed++
			continue
		}
		ratings = append(ratings, rating)
		stats.Parsed++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read ratings: %w", err)
	}

	return ratings, stats, nil
}

func parseRatingLine(line string) (engine.Rating, bool) {
	fields := strings.Split(line, ratingSeparator)
	if len(fields) < 3 || len(fields) > 4 {
		return engine.Rating{}, false
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return engine.Rating{}, false
	}
	itemID, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return engine.Rating{}, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return engine.Rating{}, false
	}

	return engine.Rating{UserID: userID, ItemID: itemID, Value: value}, true
}
