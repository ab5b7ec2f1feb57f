package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/filetype"
	"github.com/bretbouchard/sandbox/internal/logging"
)

// MaxSeedFileSize skips larger files when seeding
const MaxSeedFileSize = 1 << 20

// SeedResult summarizes a seeding run
type SeedResult struct {
	Files   int
	Skipped int
}

// Seeder loads a directory into a sandbox
type Seeder struct {
	store  *Store
	ignore []string
	logger *logging.Logger
}

// NewSeeder creates a seeder. Paths relative to the seed directory that
// match an ignore pattern are skipped, directories included.
func NewSeeder(store *Store, ignore []string, logger *logging.Logger) (*Seeder, error) {
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid seed ignore pattern %q", p)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Seeder{store: store, ignore: ignore, logger: logger}, nil
}

type seedFile struct {
	rel     string
	content string
}

// Seed copies the text files below dir into the sandbox
func (s *Seeder) Seed(ctx context.Context, sandboxID, dir string) (SeedResult, error) {
	var (
		mu     sync.Mutex
		files  []seedFile
		result SeedResult
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if info, err := os.Stat(dir); err != nil {
		return result, fmt.Errorf("failed to seed %s: %w", dir, err)
	} else if !info.IsDir() {
		return result, fmt.Errorf("failed to seed %s: not a directory", dir)
	}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.ignored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, skip := s.read(p)
		mu.Lock()
		defer mu.Unlock()
		if skip {
			result.Skipped++
			return nil
		}
		files = append(files, seedFile{rel: rel, content: content})
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to seed %s: %w", dir, err)
	}

	// fastwalk visits in no particular order
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	for _, f := range files {
		if _, err := s.store.Put(sandboxID, f.rel, f.content); err != nil {
			s.logger.Warn("Skipping seed file", zap.String("path", f.rel), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Files++
	}

	s.logger.Info("Seeded sandbox",
		zap.String("sandbox_id", sandboxID),
		zap.String("dir", dir),
		zap.Int("files", result.Files),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Seeder) ignored(rel string) bool {
	for _, p := range s.ignore {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// read returns a file's text, or skip for files that are too large,
// unreadable or binary
func (s *Seeder) read(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil || info.Size() > MaxSeedFileSize {
		return "", true
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", true
	}
	if filetype.Detect(filepath.Base(p), data).Binary {
		return "", true
	}
	return string(data), false
}
