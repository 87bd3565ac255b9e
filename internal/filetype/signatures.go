package filetype

// signatures.go declares the file-type signatures profiles are built from.
//
// Magic sequences follow the public file-signature registries. Order within a
// profile matters: the first matching signature wins, so brand-specific ftyp
// entries (HEIC) must be listed before the generic MP4 brands when both are
// allowed.

// JPEG starts with the SOI marker followed by an APP segment byte.
var JPEG = Signature{
	MediaType:  "image/jpeg",
	Label:      "JPEG",
	Magics:     [][]byte{{0xFF, 0xD8, 0xFF}},
	Extensions: []string{".jpg", ".jpeg"},
}

// PNG carries a fixed 8-byte signature.
var PNG = Signature{
	MediaType:  "image/png",
	Label:      "PNG",
	Magics:     [][]byte{{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
	Extensions: []string{".png"},
}

// GIF has two valid version headers.
var GIF = Signature{
	MediaType:  "image/gif",
	Label:      "GIF",
	Magics:     [][]byte{[]byte("GIF87a"), []byte("GIF89a")},
	Extensions: []string{".gif"},
}

// WEBP is a RIFF container; the real format tag sits at byte 8.
var WEBP = Signature{
	MediaType:       "image/webp",
	Label:           "WEBP",
	Magics:          [][]byte{[]byte("RIFF")},
	SecondaryTag:    []byte("WEBP"),
	SecondaryOffset: 8,
	Extensions:      []string{".webp"},
}

// HEIC anchors its ftyp brand at byte 4, after the box size field.
var HEIC = Signature{
	MediaType: "image/heic",
	Label:     "HEIC",
	Offset:    4,
	Magics: [][]byte{
		[]byte("ftypheic"),
		[]byte("ftypheix"),
		[]byte("ftypmif1"),
	},
	Extensions: []string{".heic", ".heif"},
}

// MP4 anchors its ftyp brand at byte 4, after the box size field.
var MP4 = Signature{
	MediaType: "video/mp4",
	Label:     "MP4",
	Offset:    4,
	Magics: [][]byte{
		[]byte("ftypisom"),
		[]byte("ftypiso2"),
		[]byte("ftypmp41"),
		[]byte("ftypmp42"),
		[]byte("ftypM4V "),
	},
	Extensions: []string{".mp4", ".m4v"},
}

// PDF starts with "%PDF".
var PDF = Signature{
	MediaType:  "application/pdf",
	Label:      "PDF",
	Magics:     [][]byte{[]byte("%PDF")},
	Extensions: []string{".pdf"},
}

// CSV has no binary signature; it is accepted on extension plus a
// printable-content scan of the leading bytes.
var CSV = Signature{
	MediaType:  "text/csv",
	Label:      "CSV",
	Extensions: []string{".csv"},
	TextOnly:   true,
}
