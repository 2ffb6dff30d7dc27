package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrParse         = errors.New("unable to parse value")
	ErrDirNotFound   = errors.New("destination directory does not exist")
	ErrPermission    = errors.New("permission denied")
	ErrIO            = errors.New("i/o failure")
)

// accepted layouts for dates in history files, tried in order
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q, %w", s, ErrParse)
}

// classify maps a filesystem error to one of the persistence sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w, %w", ErrDirNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w, %w", ErrPermission, err)
	default:
		return fmt.Errorf("%w, %w", ErrIO, err)
	}
}
