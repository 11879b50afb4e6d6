// Package reads streams aligned reads and turns them into nucleotide fragments.
package reads

import (
	"fmt"
	"os"

	"github.com/vertgenlab/gonomics/sam"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// SAM flag bits that exclude a record from typing.
const (
	flagUnmapped      = 0x4
	flagSecondary     = 0x100
	flagQCFail        = 0x200
	flagDuplicate     = 0x400
	flagSupplementary = 0x800

	excludedFlags = flagUnmapped | flagSecondary | flagQCFail | flagDuplicate | flagSupplementary
)

// RegionLookup finds the coding regions a genomic span overlaps.
type RegionLookup interface {
	FindOverlaps(chrom string, start, end int) []hla.CodingRegion
}

// Filter decides which records take part in typing.
type Filter struct {
	MinMappingQuality int
}

// Accept reports whether the record should be used.
func (f Filter) Accept(r *sam.Sam) bool {
	if r.Flag&excludedFlags != 0 {
		return false
	}
	if r.RName == "*" || len(r.Cigar) == 0 || r.Cigar[0].Op == '*' {
		return false
	}
	return int(r.MapQ) >= f.MinMappingQuality
}

// Stats summarises a pass over an alignment file.
type Stats struct {
	Records   int // records read
	Filtered  int // records rejected by the Filter
	Offtarget int // accepted records overlapping no coding region
	Rejected  int // read/region pairs with an unexplained indel
	Fragments int // fragments after merging by read id
}

// Builder produces fragments from reads using a region lookup and a
// fragment factory.
type Builder struct {
	factory *fragment.Factory
	regions RegionLookup
	filter  Filter
	logger  *zap.Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(factory *fragment.Factory, regions RegionLookup, filter Filter) *Builder {
	return &Builder{
		factory: factory,
		regions: regions,
		filter:  filter,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Build returns one fragment for every coding region the read overlaps and
// the number of regions whose fragment was rejected.
func (b *Builder) Build(read *sam.Sam) ([]*fragment.Nucleotide, int) {
	start, end := fragment.ReadSpan(read)

	var frags []*fragment.Nucleotide
	rejected := 0
	for _, region := range b.regions.FindOverlaps(read.RName, start, end) {
		frag, ok := b.factory.Create(read, region)
		if !ok {
			rejected++
			continue
		}
		frags = append(frags, frag)
	}
	return frags, rejected
}

// Items numbers the accepted records of a read stream. Filtered records are
// counted in stats and dropped. The returned channel is closed when the
// stream ends.
func (b *Builder) Items(records <-chan sam.Sam, stats *Stats) <-chan WorkItem {
	items := make(chan WorkItem, 256)
	go func() {
		defer close(items)
		seq := 0
		for r := range records {
			stats.Records++
			if !b.filter.Accept(&r) {
				stats.Filtered++
				continue
			}
			read := r
			items <- WorkItem{Seq: seq, Read: &read}
			seq++
		}
	}()
	return items
}

// BuildFile reads a SAM or BAM file and returns the merged fragments.
func (b *Builder) BuildFile(path string, workers int) ([]*fragment.Nucleotide, Stats, error) {
	var stats Stats
	if _, err := os.Stat(path); err != nil {
		return nil, stats, fmt.Errorf("open alignments: %w", err)
	}

	records, _ := sam.GoReadToChan(path)
	results := b.ParallelBuild(b.Items(records, &stats), workers)

	var frags []*fragment.Nucleotide
	err := OrderedCollect(results, func(r WorkResult) error {
		if len(r.Fragments) == 0 && r.Rejected == 0 {
			stats.Offtarget++
		}
		stats.Rejected += r.Rejected
		frags = append(frags, r.Fragments...)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("build fragments: %w", err)
	}

	merged := fragment.Merge(frags)
	stats.Fragments = len(merged)

	b.logger.Info("fragments built",
		zap.String("path", path),
		zap.Int("records", stats.Records),
		zap.Int("filtered", stats.Filtered),
		zap.Int("offtarget", stats.Offtarget),
		zap.Int("rejected", stats.Rejected),
		zap.Int("fragments", stats.Fragments))
	return merged, stats, nil
}
