// Package pdfkit reads and writes PDF files at the document level.
//
// Basic usage:
//
//	doc, err := pdfkit.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//
//	catalog, err := doc.Catalog()
//
// Loading is lazy: opening a document parses only the file header and the
// cross-reference information; individual objects are read on first access.
// Damaged files are repaired where possible, controlled by the configuration
// passed to Load.
//
// For lower-level access to objects, cross-reference data, and revisions, the
// core package is also available.
package pdfkit
