package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/vibe-hla/internal/hla"
	"github.com/inodb/vibe-hla/internal/reference"
)

// PanelCache keeps a parsed reference panel as a gob file so later runs skip
// parsing the panel CSVs:
//
//	{dir}/panel.gob       (serialized sequences)
//	{dir}/panel.gob.meta  (source file fingerprints)
type PanelCache struct {
	dir string
}

// NewPanelCache creates a panel cache in the given directory.
func NewPanelCache(dir string) *PanelCache {
	return &PanelCache{dir: dir}
}

func (pc *PanelCache) gobPath() string {
	return filepath.Join(pc.dir, "panel.gob")
}

func (pc *PanelCache) metaPath() string {
	return filepath.Join(pc.dir, "panel.gob.meta")
}

// cachedSequence is the on-disk form of an hla.SequenceLoci.
type cachedSequence struct {
	Allele    string
	Sequences []string
}

type cachedPanel struct {
	AminoAcids  []cachedSequence
	Nucleotides []cachedSequence
}

// Valid checks whether the cached panel was built from exactly these sources.
func (pc *PanelCache) Valid(sources ...FileFingerprint) bool {
	meta, err := pc.readMeta()
	if err != nil {
		return false
	}

	if meta["sources"] != strconv.Itoa(len(sources)) {
		return false
	}
	for i, fp := range sources {
		for k, v := range fp.meta(i) {
			if meta[k] != v {
				return false
			}
		}
	}

	if _, err := os.Stat(pc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the cached panel.
func (pc *PanelCache) Load() (*reference.Panel, error) {
	f, err := os.Open(pc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open panel cache: %w", err)
	}
	defer f.Close()

	var data cachedPanel
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode panel cache: %w", err)
	}

	aminoAcids, err := fromCached(data.AminoAcids)
	if err != nil {
		return nil, err
	}
	nucleotides, err := fromCached(data.Nucleotides)
	if err != nil {
		return nil, err
	}
	return &reference.Panel{AminoAcids: aminoAcids, Nucleotides: nucleotides}, nil
}

// Write serializes the panel and records the source fingerprints.
func (pc *PanelCache) Write(p *reference.Panel, sources ...FileFingerprint) error {
	if err := os.MkdirAll(pc.dir, 0755); err != nil {
		return fmt.Errorf("create panel cache directory: %w", err)
	}

	data := cachedPanel{
		AminoAcids:  toCached(p.AminoAcids),
		Nucleotides: toCached(p.Nucleotides),
	}

	f, err := os.Create(pc.gobPath())
	if err != nil {
		return fmt.Errorf("create panel cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		os.Remove(pc.gobPath())
		return fmt.Errorf("encode panel cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close panel cache: %w", err)
	}

	return pc.writeMeta(sources)
}

// Clear removes the cached panel files.
func (pc *PanelCache) Clear() {
	os.Remove(pc.gobPath())
	os.Remove(pc.metaPath())
}

func toCached(seqs []hla.SequenceLoci) []cachedSequence {
	out := make([]cachedSequence, len(seqs))
	for i, s := range seqs {
		out[i] = cachedSequence{Allele: s.Allele.String(), Sequences: s.Sequences()}
	}
	return out
}

func fromCached(cached []cachedSequence) ([]hla.SequenceLoci, error) {
	out := make([]hla.SequenceLoci, len(cached))
	for i, c := range cached {
		allele, err := hla.ParseAllele(c.Allele)
		if err != nil {
			return nil, fmt.Errorf("decode panel cache: %w", err)
		}
		out[i] = hla.NewSequenceLoci(allele, c.Sequences)
	}
	return out, nil
}

func (pc *PanelCache) writeMeta(sources []FileFingerprint) error {
	lines := []string{"sources=" + strconv.Itoa(len(sources))}
	for i, fp := range sources {
		prefix := "source" + strconv.Itoa(i) + "_"
		lines = append(lines,
			prefix+"path="+fp.Path,
			prefix+"size="+strconv.FormatInt(fp.Size, 10),
			prefix+"modtime="+fp.ModTime.UTC().Format(time.RFC3339Nano),
		)
	}
	lines = append(lines, "created_at="+time.Now().UTC().Format(time.RFC3339), "")
	return os.WriteFile(pc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (pc *PanelCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(pc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
