// Package admission decides whether a discovered file enters the corpus.
//
// Admission runs in two stages. CheckPath looks only at the path and size
// and is evaluated before any content is read. CheckContent looks at the
// extracted text. Both are pure and deterministic: the same input and
// filters always produce the same Decision.
//
// The package also scores the quality of accepted text (Score) and builds
// the content analysis handed to the extraction collaborator (Analyse).
package admission
