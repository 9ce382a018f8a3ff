// Package storage persists dated snapshots as one JSON file per calendar
// day. A snapshot, once written, is the append-only truth for its date;
// re-running the same date replaces the file atomically.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// ErrNotFound is returned by Load when no snapshot exists for a date. It is
// a normal outcome, not a failure: the first run of the system always hits
// it.
var ErrNotFound = errors.New("snapshot not found")

const snapshotExt = ".json"

// Store is a snapshot store rooted at a single directory.
type Store struct {
	dir string
	log logger.Logger
}

// NewStore creates the snapshot directory if needed and returns a store.
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage,
			fmt.Sprintf("cannot create snapshot directory %s", dir), err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the snapshot file path for a date. The filename is derived
// from the date alone, so Load is a pure lookup.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, date+snapshotExt)
}

// Save persists a snapshot under its date. The write goes to a temporary
// file in the same directory followed by a rename, so a crash mid-write
// never leaves a half-written snapshot visible to readers.
func (s *Store) Save(snapshot *types.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "refusing to save invalid snapshot", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "cannot encode snapshot", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, snapshot.Date+".tmp-*")
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "cannot create temporary snapshot file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindStorage, "cannot write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindStorage, "cannot close snapshot file", err)
	}

	target := s.Path(snapshot.Date)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindStorage,
			fmt.Sprintf("cannot move snapshot into place at %s", target), err)
	}

	s.log.WithFields(map[string]interface{}{
		"date": snapshot.Date,
		"path": target,
	}).Info("snapshot saved")
	return nil
}

// Load returns the snapshot for a date. A missing file yields ErrNotFound; a
// file that exists but does not parse into a valid snapshot is a corrupt-
// snapshot error, which callers must treat as fatal rather than as absent
// history.
func (s *Store) Load(date string) (*types.Snapshot, error) {
	path := s.Path(date)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, apperrors.Wrap(apperrors.KindStorage,
			fmt.Sprintf("cannot read snapshot %s", path), err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptSnapshot,
			fmt.Sprintf("snapshot %s is not valid JSON", path), err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptSnapshot,
			fmt.Sprintf("snapshot %s has an invalid shape", path), err)
	}
	if snapshot.Date != date {
		return nil, apperrors.New(apperrors.KindCorruptSnapshot,
			fmt.Sprintf("snapshot %s claims date %s", path, snapshot.Date))
	}

	return &snapshot, nil
}

// IsNotFound reports whether an error is the expected no-snapshot outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Info summarizes one stored snapshot for listings.
type Info struct {
	Date       string    `json:"date"`
	CapturedAt time.Time `json:"captured_at"`
	Extensions int       `json:"extensions"`
	DIDs       int       `json:"dids"`
	Queues     int       `json:"queues"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
}

// List returns info for every stored snapshot, newest date first. Files that
// are not snapshots are skipped with a warning.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage,
			fmt.Sprintf("cannot read snapshot directory %s", s.dir), err)
	}

	var infos []Info
	for _, entry := range entries {
		date, ok := s.dateOfEntry(entry.Name())
		if !ok {
			continue
		}

		snapshot, err := s.Load(date)
		if err != nil {
			s.log.WithField("file", entry.Name()).Warn("skipping unreadable snapshot in listing")
			continue
		}

		stat, err := entry.Info()
		if err != nil {
			continue
		}

		infos = append(infos, Info{
			Date:       snapshot.Date,
			CapturedAt: snapshot.CapturedAt,
			Extensions: len(snapshot.Extensions),
			DIDs:       len(snapshot.DIDs),
			Queues:     len(snapshot.Queues),
			Path:       s.Path(date),
			Size:       stat.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Date > infos[j].Date
	})
	return infos, nil
}

// Sweep deletes snapshots dated strictly before now minus retentionDays
// whole days. A filename that does not parse as a date is skipped with a
// warning; one malformed artifact must never abort the sweep. Returns the
// number of snapshots deleted.
func (s *Store) Sweep(now time.Time, retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, apperrors.New(apperrors.KindConfiguration, "retention days must not be negative")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindStorage,
			fmt.Sprintf("cannot read snapshot directory %s", s.dir), err)
	}

	cutoff := now.AddDate(0, 0, -retentionDays).Format(types.DateLayout)
	deleted := 0

	for _, entry := range entries {
		date, ok := s.dateOfEntry(entry.Name())
		if !ok {
			continue
		}
		if _, err := time.Parse(types.DateLayout, date); err != nil {
			s.log.WithField("file", entry.Name()).Warn("skipping snapshot with malformed date in filename")
			continue
		}

		// Dates in this layout order lexicographically.
		if date >= cutoff {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.WithField("file", entry.Name()).Error("cannot delete expired snapshot", err)
			continue
		}
		deleted++
		s.log.WithField("date", date).Info("expired snapshot deleted")
	}

	return deleted, nil
}

// dateOfEntry extracts the date portion of a snapshot filename. Directories,
// temp files and foreign files report false.
func (s *Store) dateOfEntry(name string) (string, bool) {
	if !strings.HasSuffix(name, snapshotExt) {
		return "", false
	}
	if strings.Contains(name, ".tmp-") {
		return "", false
	}
	return strings.TrimSuffix(name, snapshotExt), true
}
