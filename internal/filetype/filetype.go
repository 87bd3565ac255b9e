// Package filetype validates uploaded file content against named upload
// profiles using magic-byte signatures.
//
// Filename extensions and client-supplied Content-Type headers are attacker
// controlled, so detection trusts only the leading bytes of the buffer. The
// extension is consulted only for pure-text formats (CSV) that have no fixed
// binary signature, and even then the content must pass a printable-byte scan.
//
// Every outcome is a Result value; the nominal path never returns an error.
// Callers surface Result.Message verbatim as a form validation error.
package filetype

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Reason identifies why a buffer was rejected.
type Reason string

const (
	ReasonEmptyFile       Reason = "EMPTY_FILE"
	ReasonTooLarge        Reason = "TOO_LARGE"
	ReasonUnsupportedType Reason = "UNSUPPORTED_TYPE"
)

// Result is the outcome of validating one buffer against one profile.
type Result struct {
	Valid        bool   `json:"valid"`
	DetectedType string `json:"detectedType,omitempty"` // media type, e.g. "image/jpeg"
	Reason       Reason `json:"reason,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Signature describes one acceptable file type: its media-type label, the
// fixed byte sequences that identify it, and the filename extensions it may
// carry. TextOnly formats have no binary signature and fall back to an
// extension match plus a printable-content scan.
type Signature struct {
	MediaType string   // canonical media type, e.g. "image/png"
	Label     string   // short display name used in rejection messages
	Magics    [][]byte // candidate magic sequences; any one may match
	Offset    int      // byte offset where the magic is anchored (ftyp containers use 4)

	// SecondaryTag is an additional in-buffer check performed only after a
	// primary magic matches. RIFF containers carry the real format tag at
	// byte 8 ("WEBP").
	SecondaryTag    []byte
	SecondaryOffset int

	Extensions []string // accepted extensions, lowercase with leading dot
	TextOnly   bool     // no binary signature; use extension + content heuristic
}

// textProbeSize is how many leading bytes the text heuristic inspects.
const textProbeSize = 512

// Validate checks whether data's true format is permitted by the profile and
// enforces the profile's size ceiling. The filename is used only for
// text-only formats.
func Validate(data []byte, filename string, p Profile) Result {
	if len(data) == 0 {
		return Result{
			Reason:  ReasonEmptyFile,
			Message: "The uploaded file is empty",
		}
	}

	if int64(len(data)) > p.MaxBytes {
		return Result{
			Reason: ReasonTooLarge,
			Message: fmt.Sprintf("File is %s, maximum allowed is %s",
				formatSize(int64(len(data))), formatLimit(p.MaxBytes)),
		}
	}

	for _, sig := range p.Types {
		if matches(data, filename, sig) {
			return Result{
				Valid:        true,
				DetectedType: sig.MediaType,
			}
		}
	}

	return Result{
		Reason: ReasonUnsupportedType,
		Message: fmt.Sprintf("File type not supported. Accepted formats: %s",
			strings.Join(p.Labels(), ", ")),
	}
}

// matches reports whether data looks like the given signature's format.
func matches(data []byte, filename string, sig Signature) bool {
	if sig.TextOnly {
		return hasExtension(filename, sig.Extensions) && looksLikeText(data)
	}

	for _, magic := range sig.Magics {
		if !hasBytesAt(data, magic, sig.Offset) {
			continue
		}
		if len(sig.SecondaryTag) > 0 && !hasBytesAt(data, sig.SecondaryTag, sig.SecondaryOffset) {
			continue
		}
		return true
	}
	return false
}

// hasBytesAt reports whether data contains the full sequence at the given offset.
func hasBytesAt(data, seq []byte, offset int) bool {
	if offset < 0 || len(data) < offset+len(seq) {
		return false
	}
	for i, b := range seq {
		if data[offset+i] != b {
			return false
		}
	}
	return true
}

// looksLikeText scans up to the first textProbeSize bytes and requires every
// byte to be printable or common whitespace (TAB, LF, CR). Any other control
// byte disqualifies the buffer as binary.
func looksLikeText(data []byte) bool {
	probe := data
	if len(probe) > textProbeSize {
		probe = probe[:textProbeSize]
	}
	for _, b := range probe {
		if b >= 32 {
			continue
		}
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return false
	}
	return true
}

// hasExtension reports whether the filename carries one of the accepted
// extensions (case-insensitive).
func hasExtension(filename string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// formatSize renders a byte count in megabytes with one decimal place,
// rounding half up ("3.0MB", "1.1MB").
func formatSize(n int64) string {
	mb := float64(n) / (1 << 20)
	return fmt.Sprintf("%.1fMB", math.Floor(mb*10+0.5)/10)
}

// formatLimit renders a profile ceiling as whole megabytes ("2MB").
// Ceilings are declared in whole megabytes.
func formatLimit(n int64) string {
	return fmt.Sprintf("%dMB", n>>20)
}
