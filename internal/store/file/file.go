// Package file implements the posting and subscriber stores on top of JSON
// or YAML files holding a list of loosely typed records.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

const lastSentKey = "last_sent_at"

type Store struct {
	postingsPath    string
	subscribersPath string
	logger          *zap.Logger

	mu sync.Mutex
}

func New(postingsPath, subscribersPath string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		postingsPath:    postingsPath,
		subscribersPath: subscribersPath,
		logger:          logger,
	}
}

// ListPostings returns every posting in the file. The window is left to the caller.
func (s *Store) ListPostings(ctx context.Context, _ time.Time) (*posting.Postings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := readRecords(s.postingsPath)
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}

	postings := &posting.Postings{Items: make([]*posting.Posting, 0, len(records))}
	for idx, record := range records {
		p := &posting.Posting{}
		if err := decodeRecord(normalizeRecord(record), p); err != nil {
			s.logger.Warn("skipping malformed posting", zap.Int("row", idx+1), zap.Error(err))
			continue
		}
		if p.ID == "" {
			p.ID = rowID(idx)
		}
		p.RemoteScope = posting.ParseRemoteScope(string(p.RemoteScope))
		postings.Items = append(postings.Items, p)
	}

	return postings, nil
}

func (s *Store) ListSubscribers(ctx context.Context) ([]*subscriber.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readRecords(s.subscribersPath)
	if err != nil {
		return nil, fmt.Errorf("reading subscribers: %w", err)
	}

	profiles := make([]*subscriber.Profile, 0, len(records))
	for idx, record := range records {
		p := &subscriber.Profile{}
		if err := decodeRecord(normalizeRecord(record), p); err != nil {
			s.logger.Warn("skipping malformed subscriber", zap.Int("row", idx+1), zap.Error(err))
			continue
		}
		p.ID = rowID(idx)
		profiles = append(profiles, p)
	}

	return profiles, nil
}

// UpdateLastSent stamps the subscriber row and rewrites the file in its
// original format. Subscriber ids are 1-based row numbers.
func (s *Store) UpdateLastSent(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row, err := strconv.Atoi(id)
	if err != nil || row < 1 {
		return fmt.Errorf("invalid subscriber id %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readRecords(s.subscribersPath)
	if err != nil {
		return fmt.Errorf("reading subscribers: %w", err)
	}
	if row > len(records) {
		return fmt.Errorf("subscriber row %d not found", row)
	}

	record := records[row-1]
	key := lastSentKey
	for k := range record {
		if normalizeKey(k) == lastSentKey {
			key = k
			break
		}
	}
	record[key] = at.UTC().Format(time.RFC3339)

	if err := writeRecords(s.subscribersPath, records); err != nil {
		return fmt.Errorf("writing subscribers: %w", err)
	}
	return nil
}

func rowID(idx int) string {
	return strconv.Itoa(idx + 1)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func readRecords(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	if len(strings.TrimSpace(string(data))) == 0 {
		return records, nil
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &records)
	} else {
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func writeRecords(path string, records []map[string]any) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(records)
	} else {
		data, err = json.MarshalIndent(records, "", "  ")
	}
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
