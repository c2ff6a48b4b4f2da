package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TimeLayout is used for processed_at stamps and matches the scraper's
// scraped_at format.
const TimeLayout = time.RFC3339

// Store persists raw and processed jobs as two JSON array files. Records are
// kept most-recent-first. It assumes a single writer process.
type Store struct {
	mu            sync.Mutex
	rawPath       string
	processedPath string
	log           *zap.Logger
	now           func() time.Time
}

// New creates the data directories and initialises missing files to [].
func New(rawPath, processedPath string, log *zap.Logger) *Store {
	s := &Store{
		rawPath:       rawPath,
		processedPath: processedPath,
		log:           log.Named("store"),
		now:           time.Now,
	}
	for _, path := range []string{rawPath, processedPath} {
		s.ensureFile(path)
	}
	return s
}

// WithClock replaces the clock used for processed_at stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ensureFile(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.log.Warn("⚠️ Failed to create data directory", zap.String("path", path), zap.Error(err))
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeJSON(path, []json.RawMessage{}); err != nil {
			s.log.Warn("⚠️ Failed to initialise store file", zap.String("path", path), zap.Error(err))
		}
	}
}

// ExistingRawURLs returns every URL with a raw record.
func (s *Store) ExistingRawURLs() map[string]struct{} {
	s.mu.Lock()
	defer  s.mu.Unlock()
	return urlSet(s.load(s.rawPath))
}

// AppendRawJobs prepends the jobs whose URL is not stored yet and returns
// how many were added. An empty input performs no write. When the write
// fails nothing counts as added.
func (s *Store) AppendRawJobs(jobs []models.RawJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.load(s.rawPath)
	seen := urlSet(existing)

	fresh := make([]json.RawMessage, 0, len(jobs))
	for _, job := range jobs {
		if job.URL == "" {
			continue
		}
		if _, ok := seen[job.URL]; ok {
			continue
		}
		data, err := json.Marshal(job)
		if err != nil {
			s.log.Warn("⚠️ Failed to encode raw job", zap.String("url", job.URL), zap.Error(err))
			continue
		}
		seen[job.URL] = struct{}{}
		fresh = append(fresh, data)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.save(s.rawPath, append(fresh, existing...)); err != nil {
		return 0, err
	}
	s.log.Info("💾 Saved new raw jobs", zap.Int("added", len(fresh)), zap.Int("total", len(existing)+len(fresh)))
	return len(fresh), nil
}

// UnprocessedRaw returns raw jobs that have no processed counterpart.
// Records that fail to decode are logged and skipped.
func (s *Store) UnprocessedRaw() []models.RawJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	processed := urlSet(s.load(s.processedPath))
	var out []models.RawJob
	for _, rec := range s.load(s.rawPath) {
		var job models.RawJob
		if err := json.Unmarshal(rec, &job); err != nil {
			s.log.Warn("⚠️ Skipping undecodable raw record", zap.Error(err))
			continue
		}
		if _, done := processed[job.URL]; done {
			continue
		}
		out = append(out, job)
	}
	return out
}

// NextJobID returns max(job_value_id)+1, or 1 when nothing is processed.
func (s *Store) NextJobID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, rec := range s.load(s.processedPath) {
		var ref struct {
			ID int `json:"job_value_id"`
		}
		if err := json.Unmarshal(rec, &ref); err != nil {
			continue
		}
		if ref.ID > maxID {
			maxID = ref.ID
		}
	}
	return maxID + 1
}

// AppendProcessed stamps processed_at and prepends the job.
func (s *Store) AppendProcessed(job models.ProcessedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.ProcessedAt = s.now().UTC().Format(TimeLayout)
	data, err := json.Marshal(job)
	if err != nil {
		return eris.Wrapf(err, "store: encode processed job %s", job.URL)
	}

	existing := s.load(s.processedPath)
	if err := s.save(s.processedPath, append([]json.RawMessage{data}, existing...)); err != nil {
		return err
	}
	return nil
}

// AllRaw returns every decodable raw job, most recent first.
func (s *Store) AllRaw() []models.RawJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeAll[models.RawJob](s.load(s.rawPath), s.log)
}

// AllProcessed returns every decodable processed job, most recent first.
func (s *Store) AllProcessed() []models.ProcessedJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeAll[models.ProcessedJob](s.load(s.processedPath), s.log)
}

// load reads a store file. Missing or corrupt files read as empty.
func (s *Store) load(path string) []json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("⚠️ Failed to read store file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Error("❌ Failed to parse store file, treating as empty", zap.String("path", path), zap.Error(err))
		return nil
	}
	return records
}

func (s *Store) save(path string, records []json.RawMessage) error {
	if err := writeJSON(path, records); err != nil {
		s.log.Error("❌ Failed to write store file", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// writeJSON writes through a temp file so a failed write never truncates
// the previous contents.
func writeJSON(path string, records []json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: replace %s", path)
	}
	return nil
}

func urlSet(records []json.RawMessage) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, rec := range records {
		var ref struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(rec, &ref); err != nil || ref.URL == "" {
			continue
		}
		set[ref.URL] = struct{}{}
	}
	return set
}

func decodeAll[T any](records []json.RawMessage, log *zap.Logger) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			log.Warn("⚠️ Skipping undecodable record", zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}
