package core

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NewImportReader wraps an uploaded file so the CSV parser always sees
// UTF-8 without a byte-order mark. A UTF-8 BOM is dropped, UTF-16 files
// with a BOM (Excel "Unicode Text") are decoded, and bytes that are not
// valid UTF-8 become U+FFFD.
func NewImportReader(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(transform.Nop),
		runes.ReplaceIllFormed(),
	))
}
