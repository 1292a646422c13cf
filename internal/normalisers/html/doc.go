// Package html provides a Normaliser for HTML files. Documents are parsed
// with goquery; non-content elements are dropped and the remaining text is
// laid out one line per block element.
package html
