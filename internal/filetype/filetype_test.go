package filetype

import (
	"bytes"
	"strings"
	"testing"
)

// mustProfile fetches a profile or fails the test.
func mustProfile(t *testing.T, name string) Profile {
	t.Helper()
	p, ok := ByName(name)
	if !ok {
		t.Fatalf("profile %q not declared", name)
	}
	return p
}

// sampleFor builds a minimal buffer that satisfies the given signature.
func sampleFor(sig Signature) ([]byte, string) {
	if sig.TextOnly {
		return []byte("a,b,c\n1,2,3"), "data" + sig.Extensions[0]
	}

	buf := make([]byte, 64)
	copy(buf[sig.Offset:], sig.Magics[0])
	if len(sig.SecondaryTag) > 0 {
		copy(buf[sig.SecondaryOffset:], sig.SecondaryTag)
	}
	return buf, "file" + sig.Extensions[0]
}

// ============================================================================
// Acceptance Tests
// ============================================================================

// TestEveryProfileTypeAccepted verifies that for every declared profile and
// every allowed type, a buffer with that type's correct signature validates
// as accepted with the matching detected type.
func TestEveryProfileTypeAccepted(t *testing.T) {
	for _, p := range All() {
		for _, sig := range p.Types {
			t.Run(p.Name+"/"+sig.Label, func(t *testing.T) {
				data, name := sampleFor(sig)
				result := Validate(data, name, p)
				if !result.Valid {
					t.Fatalf("expected valid, got reason=%s message=%q", result.Reason, result.Message)
				}
				if result.DetectedType != sig.MediaType {
					t.Errorf("DetectedType = %q, want %q", result.DetectedType, sig.MediaType)
				}
			})
		}
	}
}

func TestJPEGClassroomMedia(t *testing.T) {
	p := mustProfile(t, "classroom_media")

	// 57-byte buffer starting with the JPEG SOI marker.
	data := make([]byte, 57)
	copy(data, []byte{0xFF, 0xD8, 0xFF})

	result := Validate(data, "photo.jpg", p)
	if !result.Valid {
		t.Fatalf("expected valid, got %q", result.Message)
	}
	if result.DetectedType != "image/jpeg" {
		t.Errorf("DetectedType = %q, want image/jpeg", result.DetectedType)
	}
}

func TestCSVTabularImport(t *testing.T) {
	p := mustProfile(t, "tabular_import")

	result := Validate([]byte("a,b,c\n1,2,3"), "data.csv", p)
	if !result.Valid {
		t.Fatalf("expected valid, got %q", result.Message)
	}
	if result.DetectedType != "text/csv" {
		t.Errorf("DetectedType = %q, want text/csv", result.DetectedType)
	}
}

// ============================================================================
// Rejection Tests
// ============================================================================

func TestEmptyBufferAlwaysRejected(t *testing.T) {
	for _, p := range All() {
		t.Run(p.Name, func(t *testing.T) {
			result := Validate(nil, "file.png", p)
			if result.Valid {
				t.Fatal("expected rejection for empty buffer")
			}
			if result.Reason != ReasonEmptyFile {
				t.Errorf("Reason = %s, want %s", result.Reason, ReasonEmptyFile)
			}
		})
	}
}

func TestSizeCeilingBoundary(t *testing.T) {
	p := mustProfile(t, "organization_logo")

	atCeiling := make([]byte, p.MaxBytes)
	copy(atCeiling, PNG.Magics[0])
	if result := Validate(atCeiling, "logo.png", p); !result.Valid {
		t.Errorf("buffer exactly at ceiling rejected: %q", result.Message)
	}

	oneOver := make([]byte, p.MaxBytes+1)
	copy(oneOver, PNG.Magics[0])
	result := Validate(oneOver, "logo.png", p)
	if result.Valid {
		t.Fatal("buffer one byte over ceiling accepted")
	}
	if result.Reason != ReasonTooLarge {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonTooLarge)
	}
}

func TestOversizeMessageNamesSizes(t *testing.T) {
	p := mustProfile(t, "organization_logo")

	// 3 MB of PNG signature plus padding against a 2 MB ceiling.
	data := make([]byte, 3<<20)
	copy(data, PNG.Magics[0])

	result := Validate(data, "logo.png", p)
	if result.Valid || result.Reason != ReasonTooLarge {
		t.Fatalf("expected TOO_LARGE, got %+v", result)
	}
	if !strings.Contains(result.Message, "3.0MB") {
		t.Errorf("message %q missing actual size 3.0MB", result.Message)
	}
	if !strings.Contains(result.Message, "2MB") {
		t.Errorf("message %q missing ceiling 2MB", result.Message)
	}
}

func TestUnsupportedTypeListsAcceptedFormats(t *testing.T) {
	p := mustProfile(t, "avatar_photo")

	// A PDF is not an allowed avatar type even though it is a real format.
	data := []byte("%PDF-1.7 ...")
	result := Validate(data, "avatar.pdf", p)
	if result.Valid {
		t.Fatal("expected rejection for PDF under avatar_photo")
	}
	if result.Reason != ReasonUnsupportedType {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonUnsupportedType)
	}
	for _, label := range []string{"JPEG", "PNG", "WEBP"} {
		if !strings.Contains(result.Message, label) {
			t.Errorf("message %q missing accepted format %s", result.Message, label)
		}
	}
}

// TestExtensionDoesNotOverrideSignature verifies that a matching extension
// cannot rescue a buffer whose bytes belong to a disallowed format.
func TestExtensionDoesNotOverrideSignature(t *testing.T) {
	p := mustProfile(t, "tabular_import")

	// JPEG bytes renamed to .csv: the text-format path requires the
	// printable-byte scan to pass, and JPEG's header bytes fail it.
	data := make([]byte, 57)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})

	result := Validate(data, "disguised.csv", p)
	if result.Valid {
		t.Fatal("JPEG bytes with .csv extension accepted as tabular import")
	}
	if result.Reason != ReasonUnsupportedType {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonUnsupportedType)
	}
}

func TestTextHeuristicRejectsControlBytes(t *testing.T) {
	p := mustProfile(t, "tabular_import")

	data := []byte("a,b,c\n1,2,\x00")
	if result := Validate(data, "data.csv", p); result.Valid {
		t.Error("buffer with NUL byte accepted as CSV")
	}

	// TAB, LF and CR are the permitted control bytes.
	data = []byte("a\tb\tc\r\n1\t2\t3\r\n")
	if result := Validate(data, "data.csv", p); !result.Valid {
		t.Errorf("whitespace-only control bytes rejected: %q", result.Message)
	}
}

func TestTextFormatRequiresExtension(t *testing.T) {
	p := mustProfile(t, "tabular_import")

	result := Validate([]byte("a,b,c\n1,2,3"), "data.xlsx", p)
	if result.Valid {
		t.Error("text content with non-CSV extension accepted")
	}
}

// ============================================================================
// Container Format Tests
// ============================================================================

// TestWEBPSecondaryTag verifies the RIFF container is accepted as WEBP only
// when both the leading tag and the secondary tag at offset 8 match.
func TestWEBPSecondaryTag(t *testing.T) {
	p := mustProfile(t, "avatar_photo")

	valid := make([]byte, 32)
	copy(valid, []byte("RIFF"))
	copy(valid[8:], []byte("WEBP"))
	result := Validate(valid, "pic.webp", p)
	if !result.Valid || result.DetectedType != "image/webp" {
		t.Fatalf("valid WEBP rejected: %+v", result)
	}

	// RIFF header with a different payload tag (WAVE audio) must not pass.
	wave := make([]byte, 32)
	copy(wave, []byte("RIFF"))
	copy(wave[8:], []byte("WAVE"))
	if result := Validate(wave, "pic.webp", p); result.Valid {
		t.Error("RIFF/WAVE accepted as WEBP")
	}

	// Corrupted primary tag must not pass either.
	badPrimary := make([]byte, 32)
	copy(badPrimary, []byte("RIFX"))
	copy(badPrimary[8:], []byte("WEBP"))
	if result := Validate(badPrimary, "pic.webp", p); result.Valid {
		t.Error("corrupted RIFF tag accepted as WEBP")
	}
}

func TestFtypAnchoredAtOffsetFour(t *testing.T) {
	p := mustProfile(t, "classroom_media")

	// ftyp brand at byte 4, after the box size field.
	heic := make([]byte, 32)
	copy(heic[4:], []byte("ftypheic"))
	result := Validate(heic, "photo.heic", p)
	if !result.Valid || result.DetectedType != "image/heic" {
		t.Fatalf("HEIC rejected: %+v", result)
	}

	// The same brand at offset 0 is not a valid container.
	misplaced := make([]byte, 32)
	copy(misplaced, []byte("ftypheic"))
	if result := Validate(misplaced, "photo.heic", p); result.Valid {
		t.Error("ftyp brand at offset 0 accepted")
	}
}

func TestMP4Brands(t *testing.T) {
	p := mustProfile(t, "classroom_media")

	for _, brand := range []string{"ftypisom", "ftypmp42"} {
		buf := make([]byte, 32)
		copy(buf[4:], []byte(brand))
		result := Validate(buf, "clip.mp4", p)
		if !result.Valid || result.DetectedType != "video/mp4" {
			t.Errorf("brand %s rejected: %+v", brand, result)
		}
	}
}

// ============================================================================
// Size Formatting Tests
// ============================================================================

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "whole megabytes", n: 3 << 20, want: "3.0MB"},
		{name: "fractional rounds half up", n: 1101005, want: "1.1MB"}, // 1.05MB
		{name: "small file", n: 100 << 10, want: "0.1MB"},
		{name: "rounds down below half", n: 1 << 20, want: "1.0MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSize(tt.n); got != tt.want {
				t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestHasBytesAt(t *testing.T) {
	data := []byte("0123ftypheic")

	if !hasBytesAt(data, []byte("ftyp"), 4) {
		t.Error("expected match at offset 4")
	}
	if hasBytesAt(data, []byte("ftyp"), 0) {
		t.Error("unexpected match at offset 0")
	}
	if hasBytesAt([]byte("ab"), []byte("abc"), 0) {
		t.Error("sequence longer than buffer matched")
	}
}

func TestProfileLabels(t *testing.T) {
	p := mustProfile(t, "avatar_photo")
	want := []string{"JPEG", "PNG", "WEBP"}
	got := p.Labels()
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTruncatedBufferShorterThanMagic(t *testing.T) {
	p := mustProfile(t, "avatar_photo")

	// Shorter than any signature; must reject without panicking.
	result := Validate(bytes.Repeat([]byte{0xFF}, 2), "x.jpg", p)
	if result.Valid {
		t.Error("2-byte buffer accepted")
	}
	if result.Reason != ReasonUnsupportedType {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonUnsupportedType)
	}
}
