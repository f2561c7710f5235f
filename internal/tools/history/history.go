// Package history persists each forecast attempt to disk as a
// models.SavedForecast, and serves them back both to the get_prediction_history
// tool (so a running forecast can see what an earlier pass on the same
// question concluded) and to the backfill-comments CLI command (so a
// reasoning comment can be posted after the fact for forecasts that were
// submitted without one).
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/haasonsaas/oracleforge/pkg/models"
)

// Store persists SavedForecast records as one JSON file per attempt, under
// BasePath/<question_id>/<unix-nanos>.json — mirrors internal/tools/notes'
// file-per-record layout.
type Store struct {
	mu       sync.Mutex
	BasePath string
}

// NewStore creates a Store rooted at basePath, creating it if necessary.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./history"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create history base dir: %w", err)
	}
	return &Store{BasePath: basePath}, nil
}

func (s *Store) postDir(postID int64) string {
	return filepath.Join(s.BasePath, strconv.FormatInt(postID, 10))
}

// Save persists output as a new SavedForecast attempt and returns it along
// with the file name it was stored under (for later MarkSubmitted/MarkCommented calls).
func (s *Store) Save(ctx context.Context, output *models.ForecastOutput) (*models.SavedForecast, string, error) {
	saved := models.SavedForecast{ForecastOutput: *output}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.postDir(output.PostID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create history dir for post %d: %w", output.PostID, err)
	}

	encoded, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("encode saved forecast: %w", err)
	}

	fileName := fmt.Sprintf("%d.json", time.Now().UnixNano())
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return nil, "", fmt.Errorf("write saved forecast: %w", err)
	}
	return &saved, fileName, nil
}

// MarkSubmitted records that a saved forecast (identified by postID and its
// file name) was submitted to the platform.
func (s *Store) MarkSubmitted(ctx context.Context, postID int64, fileName string, submittedAt time.Time) error {
	return s.updateRecord(postID, fileName, func(saved *models.SavedForecast) {
		saved.SubmittedAt = &submittedAt
	})
}

// MarkCommented records that a reasoning comment was posted for a saved
// forecast.
func (s *Store) MarkCommented(ctx context.Context, postID int64, fileName string, commentedAt time.Time) error {
	return s.updateRecord(postID, fileName, func(saved *models.SavedForecast) {
		saved.CommentedAt = &commentedAt
	})
}

func (s *Store) updateRecord(postID int64, fileName string, mutate func(*models.SavedForecast)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.postDir(postID), fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read saved forecast %s: %w", path, err)
	}
	var saved models.SavedForecast
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("decode saved forecast %s: %w", path, err)
	}
	mutate(&saved)

	encoded, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("encode saved forecast %s: %w", path, err)
	}
	return os.WriteFile(path, encoded, 0o644)
}

// Record pairs a SavedForecast with the file name it's stored under, so
// callers can round-trip it back through MarkSubmitted/MarkCommented.
type Record struct {
	FileName string
	Forecast models.SavedForecast
}

// ListByPost returns every saved attempt for postID, oldest first.
func (s *Store) ListByPost(ctx context.Context, postID int64) ([]Record, error) {
	dir := s.postDir(postID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history dir for post %d: %w", postID, err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var saved models.SavedForecast
		if err := json.Unmarshal(data, &saved); err != nil {
			continue
		}
		records = append(records, Record{FileName: entry.Name(), Forecast: saved})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FileName < records[j].FileName })
	return records, nil
}

// ListAll returns every saved attempt across every question, oldest first
// within each question. Used by the backfill-comments command, which has no
// single post ID to scope to.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.BasePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history base dir: %w", err)
	}

	var all []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		postID, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}
		records, err := s.ListByPost(ctx, postID)
		if err != nil {
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}
