package fragment

import (
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/sam"

	"github.com/inodb/vibe-hla/internal/hla"
)

// codingRecord is the part of an aligned read that falls inside one coding
// region. Soft-clipped bases count as covering the reference positions they
// would have aligned to.
type codingRecord struct {
	positionStart int // genomic, 1-based inclusive
	positionEnd   int

	readIndexStart int // 0-based, inclusive
	readIndexEnd   int

	softClippedStart int // clipped bases inside the span at the genomic start
	softClippedEnd   int

	indels       int
	maxIndelSize int

	bases string // read bases for [readIndexStart, readIndexEnd], genomic orientation
	quals []int
}

// newCodingRecord clips the read to the region. The second return value is
// false when the read does not reach the region.
func newCodingRecord(read *sam.Sam, region hla.CodingRegion) (codingRecord, bool) {
	_, clipEnd := softClips(read)
	alignStart := int(read.Pos)
	alignEnd := alignStart + referenceLength(read) - 1
	recordStart, recordEnd := ReadSpan(read)

	r := codingRecord{
		positionStart: max(region.Start, recordStart),
		positionEnd:   min(region.End, recordEnd),
	}
	if r.positionStart > r.positionEnd || len(read.Seq) == 0 {
		return r, false
	}

	r.softClippedStart = max(0, min(alignStart, r.positionEnd+1)-r.positionStart)
	r.softClippedEnd = max(0, r.positionEnd-max(alignEnd, r.positionStart-1))

	// Skipped reference has no read bases to place on loci.
	if skipsWithin(read, r.positionStart, r.positionEnd) {
		return r, false
	}

	r.readIndexStart = readIndexAt(read, r.positionStart, recordStart, alignEnd, clipEnd, false)
	r.readIndexEnd = readIndexAt(read, r.positionEnd, recordStart, alignEnd, clipEnd, true)
	if r.readIndexEnd < r.readIndexStart {
		return r, false
	}

	r.indels, r.maxIndelSize = indelsWithin(read, r.positionStart, r.positionEnd)

	r.bases = dna.BasesToString(read.Seq[r.readIndexStart : r.readIndexEnd+1])
	r.quals = phredScores(read.Qual, r.readIndexStart, r.readIndexEnd)
	return r, true
}

func (r codingRecord) containsIndel() bool {
	return r.indels > 0
}

func (r codingRecord) containsSoftClip() bool {
	return r.softClippedStart > 0 || r.softClippedEnd > 0
}

// leadingSoftClip returns the clipped bases at the start of the span in
// coding orientation.
func (r codingRecord) leadingSoftClip(reverse bool) int {
	if reverse {
		return r.softClippedEnd
	}
	return r.softClippedStart
}

// codingBases returns the bases in coding orientation.
func (r codingRecord) codingBases(reverse bool) string {
	if !reverse {
		return r.bases
	}
	bases := dna.StringToBases(r.bases)
	dna.ReverseComplement(bases)
	return dna.BasesToString(bases)
}

// codingQualities returns the base qualities in coding orientation.
func (r codingRecord) codingQualities(reverse bool) []int {
	quals := append([]int(nil), r.quals...)
	if reverse {
		for i, j := 0, len(quals)-1; i < j; i, j = i+1, j-1 {
			quals[i], quals[j] = quals[j], quals[i]
		}
	}
	return quals
}

func softClips(read *sam.Sam) (start, end int) {
	c := read.Cigar
	if len(c) == 0 {
		return 0, 0
	}
	for i := 0; i < len(c) && (c[i].Op == 'S' || c[i].Op == 'H'); i++ {
		if c[i].Op == 'S' {
			start += c[i].RunLength
		}
	}
	for i := len(c) - 1; i >= 0 && (c[i].Op == 'S' || c[i].Op == 'H'); i-- {
		if c[i].Op == 'S' {
			end += c[i].RunLength
		}
	}
	return start, end
}

func consumesReference(op rune) bool {
	switch op {
	case 'M', 'D', 'N', '=', 'X':
		return true
	}
	return false
}

func consumesRead(op rune) bool {
	switch op {
	case 'M', 'I', 'S', '=', 'X':
		return true
	}
	return false
}

func referenceLength(read *sam.Sam) int {
	n := 0
	for _, c := range read.Cigar {
		if consumesReference(c.Op) {
			n += c.RunLength
		}
	}
	return n
}

// readIndexAt maps a reference position to a read index. Positions inside
// the soft clips map onto the clipped bases. A position inside a deletion maps
// to the next aligned base at the span start and the previous one at the end.
func readIndexAt(read *sam.Sam, pos, recordStart, alignEnd, clipEnd int, atEnd bool) int {
	clipStart := int(read.Pos) - recordStart
	if pos < int(read.Pos) {
		return pos - recordStart
	}
	if pos > alignEnd {
		return len(read.Seq) - clipEnd + (pos - alignEnd - 1)
	}

	refPos := int(read.Pos)
	readIdx := 0
	for _, c := range read.Cigar {
		switch {
		case c.Op == 'S':
			readIdx += c.RunLength
		case consumesReference(c.Op) && consumesRead(c.Op):
			if pos < refPos+c.RunLength {
				return readIdx + (pos - refPos)
			}
			refPos += c.RunLength
			readIdx += c.RunLength
		case consumesReference(c.Op):
			if pos < refPos+c.RunLength {
				if atEnd {
					return readIdx - 1
				}
				return readIdx
			}
			refPos += c.RunLength
		case consumesRead(c.Op):
			readIdx += c.RunLength
		}
	}
	return clipStart + (pos - int(read.Pos))
}

// indelsWithin counts insertions and deletions that touch [start, end].
func indelsWithin(read *sam.Sam, start, end int) (count, maxSize int) {
	refPos := int(read.Pos)
	for _, c := range read.Cigar {
		switch c.Op {
		case 'I':
			// inserted before refPos
			if refPos > start && refPos <= end {
				count++
				maxSize = max(maxSize, c.RunLength)
			}
		case 'D':
			if refPos <= end && refPos+c.RunLength-1 >= start {
				count++
				maxSize = max(maxSize, c.RunLength)
			}
		}
		if consumesReference(c.Op) {
			refPos += c.RunLength
		}
	}
	return count, maxSize
}

// skipsWithin reports whether an N operation touches [start, end].
func skipsWithin(read *sam.Sam, start, end int) bool {
	refPos := int(read.Pos)
	for _, c := range read.Cigar {
		if c.Op == 'N' && refPos <= end && refPos+c.RunLength-1 >= start {
			return true
		}
		if consumesReference(c.Op) {
			refPos += c.RunLength
		}
	}
	return false
}

// phredScores decodes phred+33 qualities for [from, to]. Missing qualities
// decode as zero.
func phredScores(qual string, from, to int) []int {
	scores := make([]int, to-from+1)
	if qual == "" || qual == "*" {
		return scores
	}
	for i := from; i <= to && i < len(qual); i++ {
		scores[i-from] = int(qual[i]) - 33
	}
	return scores
}

// ReadSpan returns the genomic span a read covers, soft clips included.
func ReadSpan(read *sam.Sam) (start, end int) {
	clipStart, clipEnd := softClips(read)
	alignStart := int(read.Pos)
	alignEnd := alignStart + referenceLength(read) - 1
	return alignStart - clipStart, alignEnd + clipEnd
}
