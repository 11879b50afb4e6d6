// Package codon translates coding sequence between nucleotides and amino acids.
package codon

import "strings"

const (
	// Stop is the residue emitted for TAA, TAG and TGA.
	Stop = 'X'
	// Unknown is the residue emitted for codons that cannot be translated.
	Unknown = '.'
)

// Bases in the order used when choosing a representative codon for an amino acid.
const codonSearchBases = "GATC"

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": Stop, "TAG": Stop,
	"TGT": 'C', "TGC": 'C', "TGA": Stop, "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// representative holds the first codon, in GATC base order, for each amino acid.
var representative = buildRepresentatives()

func buildRepresentatives() map[byte]string {
	m := make(map[byte]string, 21)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				c := string([]byte{codonSearchBases[i], codonSearchBases[j], codonSearchBases[k]})
				aa := codonTable[c]
				if _, ok := m[aa]; !ok {
					m[aa] = c
				}
			}
		}
	}
	return m
}

// TranslateCodon translates a DNA codon to its amino acid.
// Returns Unknown for anything that is not a three base ACGT codon.
func TranslateCodon(codon string) byte {
	if len(codon) != 3 {
		return Unknown
	}
	if aa, ok := codonTable[codon]; ok {
		return aa
	}
	if aa, ok := codonTable[strings.ToUpper(codon)]; ok {
		return aa
	}
	return Unknown
}

// IsStopCodon returns true if the codon is a stop codon (TAA, TAG, TGA).
func IsStopCodon(codon string) bool {
	return TranslateCodon(codon) == Stop
}

// Translate translates a DNA sequence to amino acids.
// Trailing bases that do not form a whole codon are ignored.
func Translate(seq string) string {
	n := (len(seq) / 3) * 3

	var result strings.Builder
	result.Grow(n / 3)

	for i := 0; i < n; i += 3 {
		result.WriteByte(TranslateCodon(seq[i : i+3]))
	}

	return result.String()
}

// AminoAcidToCodon returns a codon encoding the amino acid.
// The second return value is false for residues the genetic code does not produce.
func AminoAcidToCodon(aa byte) (string, bool) {
	c, ok := representative[aa]
	return c, ok
}

// AminoAcidsToCodons back-translates a residue string. Unknown residues yield "...".
func AminoAcidsToCodons(aminoAcids string) string {
	var b strings.Builder
	b.Grow(3 * len(aminoAcids))
	for i := 0; i < len(aminoAcids); i++ {
		c, ok := AminoAcidToCodon(aminoAcids[i])
		if !ok {
			c = "..."
		}
		b.WriteString(c)
	}
	return b.String()
}

// NucleotidesFromAminoAcid expands the residues at a single locus into its three
// nucleotide calls. Loci holding an insertion carry more than one residue; the
// extra bases are appended to the third call so the locus still spans three
// nucleotide loci. A deleted locus (".") expands to three deletions.
func NucleotidesFromAminoAcid(aminoAcids string) [3]string {
	if aminoAcids == "." {
		return [3]string{".", ".", "."}
	}
	codons := AminoAcidsToCodons(aminoAcids)
	if len(codons) < 3 {
		return [3]string{".", ".", "."}
	}
	return [3]string{codons[0:1], codons[1:2], codons[2:]}
}
