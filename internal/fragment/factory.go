package fragment

import (
	"strings"

	"github.com/vertgenlab/gonomics/sam"

	"github.com/inodb/vibe-hla/internal/codon"
	"github.com/inodb/vibe-hla/internal/hla"
	"github.com/inodb/vibe-hla/internal/suffix"
)

type indexedAllele struct {
	allele hla.SequenceLoci
	index  *suffix.Index
}

// Factory turns aligned reads into nucleotide fragments. Reads carrying an
// indel are reconciled against the alleles of the panel that contain
// insertions or deletions. A Factory is read-only after construction and may
// be shared between goroutines.
type Factory struct {
	minBaseQuality int
	inserts        []indexedAllele
	deletes        []indexedAllele
}

// NewFactory indexes the insert and delete allele panels.
func NewFactory(minBaseQuality int, inserts, deletes []hla.SequenceLoci) *Factory {
	return &Factory{
		minBaseQuality: minBaseQuality,
		inserts:        indexAlleles(inserts),
		deletes:        indexAlleles(deletes),
	}
}

func indexAlleles(alleles []hla.SequenceLoci) []indexedAllele {
	indexed := make([]indexedAllele, len(alleles))
	for i, a := range alleles {
		indexed[i] = indexedAllele{allele: a, index: suffix.New(a.Sequence())}
	}
	return indexed
}

// Create builds the fragment a read contributes to the coding region. The
// second return value is false when the read does not reach the region or
// carries an indel that no known allele explains.
func (f *Factory) Create(read *sam.Sam, region hla.CodingRegion) (*Nucleotide, bool) {
	record, ok := newCodingRecord(read, region)
	if !ok {
		return nil, false
	}

	reverse := region.IsReverseStrand()
	length := record.positionEnd - record.positionStart + 1
	var startLocus int
	if reverse {
		startLocus = region.LocusOffset + region.End - record.positionEnd
	} else {
		startLocus = region.LocusOffset + record.positionStart - region.Start
	}
	endLocus := startLocus + length - 1

	bases := record.codingBases(reverse)
	quals := record.codingQualities(reverse)

	if record.containsIndel() || record.containsSoftClip() {
		if frag, ok := f.reconcile(read.QName, region.Gene, record, reverse, startLocus, endLocus, bases); ok {
			return frag, true
		}
		if record.containsIndel() {
			return nil, false
		}
	}
	// Bases that do not tile the span cannot be placed on loci.
	if len(bases) != length {
		return nil, false
	}

	loci := make([]int, length)
	nucleotides := make([]string, length)
	for i := range loci {
		loci[i] = startLocus + i
		nucleotides[i] = bases[i : i+1]
	}
	return NewNucleotide(read.QName, []string{region.Gene}, loci, quals, nucleotides), true
}

// aminoAcidRange returns the amino acid loci fully covered by the nucleotide
// loci [start, end].
func aminoAcidRange(start, end int) (first, last int) {
	return (start + 2) / 3, (end+1)/3 - 1
}

func (f *Factory) reconcile(id, gene string, record codingRecord, reverse bool, startLocus, endLocus int, bases string) (*Nucleotide, bool) {
	first, _ := aminoAcidRange(startLocus, endLocus)
	skip := first*3 - startLocus
	if skip >= len(bases) {
		return nil, false
	}
	aminoAcids := codon.Translate(bases[skip:])
	if aminoAcids == "" {
		return nil, false
	}

	// Inserts are windowed as well as deletes.
	lo := first - record.leadingSoftClip(reverse)/3 - record.maxIndelSize
	hi := first + record.maxIndelSize

	for _, panel := range [][]indexedAllele{f.inserts, f.deletes} {
		allele, locus, ok := firstMatch(panel, aminoAcids, lo, hi)
		if !ok {
			continue
		}
		frag := f.fromAllele(id, gene, allele, locus, aminoAcids)
		if frag.ContainsIndel() {
			return frag, true
		}
	}
	return nil, false
}

// firstMatch returns the first allele, in panel order, whose sequence holds
// aminoAcids starting at a locus in [lo, hi]. Only the first such locus of
// each allele is considered.
func firstMatch(panel []indexedAllele, aminoAcids string, lo, hi int) (hla.SequenceLoci, int, bool) {
	for _, a := range panel {
		for _, offset := range a.index.Indices(aminoAcids) {
			locus, ok := a.allele.LocusAtOffset(offset)
			if !ok || locus < lo || locus > hi {
				continue
			}
			return a.allele, locus, true
		}
	}
	return hla.SequenceLoci{}, 0, false
}

// fromAllele rebuilds the fragment from the matched allele's codons. The read
// only claims to agree with the allele, so its own bases are not used.
func (f *Factory) fromAllele(id, gene string, allele hla.SequenceLoci, startLocus int, aminoAcids string) *Nucleotide {
	last := matchedEndLocus(startLocus, aminoAcids, allele)

	var loci, quals []int
	var nucleotides []string
	for l := startLocus; l <= last; l++ {
		calls := codon.NucleotidesFromAminoAcid(allele.At(l))
		for i, n := range calls {
			loci = append(loci, 3*l+i)
			quals = append(quals, f.minBaseQuality)
			nucleotides = append(nucleotides, n)
		}
	}
	return NewNucleotide(id, []string{gene}, loci, quals, nucleotides)
}

// matchedEndLocus extends from startLocus while the allele's residues remain a
// prefix of aminoAcids. Deleted loci contribute no residues and are only
// included when a matching residue follows them.
func matchedEndLocus(startLocus int, aminoAcids string, allele hla.SequenceLoci) int {
	var b strings.Builder
	last := startLocus - 1
	for l := startLocus; l < allele.Len(); l++ {
		seq := allele.At(l)
		if seq == hla.Deletion {
			continue
		}
		b.WriteString(seq)
		if !strings.HasPrefix(aminoAcids, b.String()) {
			return last
		}
		last = l
		if b.Len() == len(aminoAcids) {
			return last
		}
	}
	return last
}
