package msa

// Bundle is the immutable per-sequence search result: the alignment text
// plus a working directory holding any retrieved template structures. It is
// fetched once per sequence and treated as read-only by every subsequent
// prediction call.
type Bundle struct {
	// Alignment is the multiple-sequence-alignment text (a3m).
	Alignment string

	// Dir is the job working directory the result was extracted into.
	Dir string

	// TemplateDir holds the retrieved template structure files. Empty when
	// templates were not requested.
	TemplateDir string

	// Hits lists the template hits retained after filtering.
	Hits []Hit
}
