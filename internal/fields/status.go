package fields

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// NormalizeStatus maps the legacy underscore encoding onto the hyphen one.
func NormalizeStatus(s string) string {
	return types.NormalizeStatus(s)
}

// Status reads the configured status field of a record, normalized. Records
// without a status field, or configs without one, read as "".
func Status(rec types.Record, cfg *types.TableConfig) string {
	if cfg == nil || cfg.StatusField == "" {
		return ""
	}
	v, ok := Get(rec, cfg.StatusField)
	if !ok {
		return ""
	}
	return NormalizeStatus(String(v))
}

// IsTerminal reports whether the record's status is marked terminal.
func IsTerminal(rec types.Record, cfg *types.TableConfig) bool {
	if cfg == nil || cfg.StatusField == "" {
		return false
	}
	return cfg.IsTerminal(Status(rec, cfg))
}

// Folder lowercases text and, when accents are folded, strips combining
// marks after canonical decomposition. A Folder is not safe for concurrent
// use; create one per call.
type Folder struct {
	accents bool
	t       transform.Transformer
}

// NewFolder returns a Folder. With accents false it only lowercases.
func NewFolder(accents bool) *Folder {
	f := &Folder{accents: accents}
	if accents {
		f.t = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	}
	return f
}

// Fold returns the comparison form of s.
func (f *Folder) Fold(s string) string {
	s = strings.ToLower(s)
	if !f.accents || s == "" {
		return s
	}
	out, _, err := transform.String(f.t, s)
	if err != nil {
		return s
	}
	return out
}
