package seq

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Alphabet is the set of residue symbols accepted for submission.
// The twenty standard amino acids plus X for unknown residues.
const Alphabet = "ACDEFGHIKLMNPQRSTVWYX"

// Clean normalizes a raw sequence: uppercases it and strips whitespace,
// digits and punctuation commonly pasted in from FASTA viewers.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Validate checks that every residue is part of the accepted alphabet.
func Validate(sequence string) error {
	if sequence == "" {
		return fmt.Errorf("seq: sequence is empty")
	}

	for i, r := range sequence {
		if !strings.ContainsRune(Alphabet, r) {
			return fmt.Errorf("seq: invalid residue %q at position %d", r, i+1)
		}
	}

	return nil
}

// Fasta renders a single-record FASTA entry.
func Fasta(name, sequence string) string {
	return fmt.Sprintf(">%s\n%s\n", name, sequence)
}

// ReadFasta reads the first record of a FASTA file and returns its cleaned
// sequence. Additional records are ignored.
func ReadFasta(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("seq: failed to open FASTA file: %w", err)
	}
	defer f.Close()

	var (
		b        strings.Builder
		inRecord bool
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ">") {
			if inRecord {
				break
			}
			inRecord = true
			continue
		}
		b.WriteString(line)
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("seq: failed to read FASTA file: %w", err)
	}

	sequence := Clean(b.String())
	if sequence == "" {
		return "", fmt.Errorf("seq: FASTA file %s contains no sequence", path)
	}

	return sequence, nil
}
