package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gumtree-relister/models"
)

// AdStore loads the listing payload from a JSON file on disk. The file is
// read fresh at the start of every run so edits take effect without a
// restart.
type AdStore struct {
	path string
	log  *slog.Logger
}

func NewAdStore(path string, log *slog.Logger) *AdStore {
	return &AdStore{path: path, log: log}
}

// Load reads and parses the ad data file. A missing or malformed file is a
// hard failure. Missing required fields are logged as a warning only; the
// run proceeds and the creation form is left to reject the ad.
func (s *AdStore) Load() (*models.AdData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read ad data file %s: %w", s.path, err)
	}

	var ad models.AdData
	if err := json.Unmarshal(raw, &ad); err != nil {
		return nil, fmt.Errorf("parse ad data file %s: %w", s.path, err)
	}

	if missing := ad.MissingRequiredFields(); len(missing) > 0 {
		s.log.Warn("ad data is missing required fields",
			slog.String("fields", strings.Join(missing, ", ")))
	}

	s.log.Info("ad data loaded", slog.String("file", s.path))
	return &ad, nil
}

// Check validates the ad data file without touching a browser session. It
// reports the missing required fields and any image paths that do not exist
// on disk, and never mutates the file.
func (s *AdStore) Check() error {
	ad, err := s.Load()
	if err != nil {
		return err
	}

	missingImages := 0
	for _, p := range ad.ImagePaths {
		if _, err := os.Stat(p); err != nil {
			s.log.Warn("image path does not exist", slog.String("path", p))
			missingImages++
		}
	}

	s.log.Info("ad data check passed",
		slog.Int("missing_required_fields", len(ad.MissingRequiredFields())),
		slog.Int("missing_images", missingImages),
		slog.Int("image_paths", len(ad.ImagePaths)))
	return nil
}
