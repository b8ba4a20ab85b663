package experience

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/unixpickle/serializer"
)

// SaveStats describes one written data file
type SaveStats struct {
	Path        string
	Transitions int
	Bytes       int64
	Duration    time.Duration
}

// Store writes and reads gathered memories as single binary files
type Store struct {
	logger zerolog.Logger
}

// NewStore creates a store
func NewStore(logger zerolog.Logger) *Store {
	return &Store{logger: logger.With().Str("component", "experience_store").Logger()}
}

// Save writes the whole memory to path in one go, creating parent
// directories as needed. An existing file is replaced.
func (s *Store) Save(path string, m *Memory) (SaveStats, error) {
	start := time.Now()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return SaveStats{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := serializer.SaveAny(path, m); err != nil {
		return SaveStats{}, fmt.Errorf("failed to save memory to %s: %w", path, err)
	}

	stats := SaveStats{Path: path, Transitions: m.Len(), Duration: time.Since(start)}
	if info, err := os.Stat(path); err == nil {
		stats.Bytes = info.Size()
	}
	s.logger.Info().
		Str("path", path).
		Int("transitions", stats.Transitions).
		Int64("bytes", stats.Bytes).
		Dur("duration", stats.Duration).
		Msg("Saved experience memory")
	return stats, nil
}

// Load reads a memory written by Save
func (s *Store) Load(path string) (*Memory, error) {
	var m *Memory
	if err := serializer.LoadAny(path, &m); err != nil {
		return nil, fmt.Errorf("failed to load memory from %s: %w", path, err)
	}
	s.logger.Debug().Str("path", path).Int("transitions", m.Len()).Msg("Loaded experience memory")
	return m, nil
}
