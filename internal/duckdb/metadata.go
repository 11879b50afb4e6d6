package duckdb

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FileFingerprint identifies a panel source by size and modification time.
// A cached panel is reused only while every source still matches.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints one panel source. Directories are rejected.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	if info.IsDir() {
		return FileFingerprint{}, fmt.Errorf("panel source %s is a directory", path)
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// StatFiles fingerprints the panel sources in order.
func StatFiles(paths ...string) ([]FileFingerprint, error) {
	sources := make([]FileFingerprint, 0, len(paths))
	for _, path := range paths {
		fp, err := StatFile(path)
		if err != nil {
			return nil, fmt.Errorf("stat panel: %w", err)
		}
		sources = append(sources, fp)
	}
	return sources, nil
}

// meta returns the cache metadata entries recorded for the i-th source.
func (fp FileFingerprint) meta(i int) map[string]string {
	prefix := "source" + strconv.Itoa(i) + "_"
	return map[string]string{
		prefix + "size":    strconv.FormatInt(fp.Size, 10),
		prefix + "modtime": fp.ModTime.UTC().Format(time.RFC3339Nano),
	}
}
