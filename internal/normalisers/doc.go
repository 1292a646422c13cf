// Package normalisers provides implementations of the Normaliser interface
// for various file formats. Each normaliser knows how to extract text
// content from files with specific extensions.
//
// Normalisers are registered with the Registry at startup; the scanner
// asks the registry for the text of every file that passes the path filters.
package normalisers
