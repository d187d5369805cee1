package msa

import (
	"fmt"
	"strings"
)

// Hit identifies a template structure matched by the remote search: a
// structure-database accession paired with a chain label.
type Hit struct {
	PDBID string
	Chain string
}

// ParseHit parses a specifier of the form PDBID_CHAIN.
func ParseHit(s string) (Hit, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Hit{}, fmt.Errorf("msa: invalid template specifier %q, want PDBID_CHAIN", s)
	}

	return Hit{
		PDBID: strings.ToLower(parts[0]),
		Chain: parts[1],
	}, nil
}

// String renders the hit in PDBID_CHAIN form.
func (h Hit) String() string {
	return h.PDBID + "_" + h.Chain
}

// filterHits applies the caller's inclusion filter. An empty filter keeps
// every hit.
func filterHits(hits, allowed []Hit) []Hit {
	if len(allowed) == 0 {
		return hits
	}

	keep := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		keep[h.String()] = true
	}

	var out []Hit
	for _, h := range hits {
		if keep[h.String()] {
			out = append(out, h)
		}
	}

	return out
}
