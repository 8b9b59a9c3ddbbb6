package importer

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/lychee-technology/gridstore/internal/textparse"
)

// SampleSize is how much of the leading file is read for sniffing: enough
// to cover a BOM, the header line, and a generous separator-detection
// window.
const SampleSize = 64 * 1024

// Encoding identifies the character encoding a Sniff detected.
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF16LE
	EncodingUTF16BE
)

// SniffResult is what the Sniff step (spec §4.7 step 1) produces.
type SniffResult struct {
	Encoding  Encoding
	Separator byte
	Sample    []byte // sample bytes, decoded to UTF-8
}

// Sniff detects sample's character encoding from its BOM (grounded on the
// BOM-sniffing approach in the kasuganosora-sqlexec XML resource reader),
// decodes it to UTF-8, and runs separator detection over the decoded
// sample unless separator is already known.
func Sniff(sample []byte, knownSeparator byte) (SniffResult, error) {
	enc, decoded, err := detectAndDecode(sample)
	if err != nil {
		return SniffResult{}, fmt.Errorf("importer: sniff encoding: %w", err)
	}

	sep := knownSeparator
	if sep == 0 {
		sep = textparse.DetectSeparator(decoded)
	}

	return SniffResult{Encoding: enc, Separator: sep, Sample: decoded}, nil
}

func detectAndDecode(data []byte) (Encoding, []byte, error) {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		return EncodingUTF16LE, out, err
	}
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		return EncodingUTF16BE, out, err
	}
	return EncodingUTF8, bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), nil
}
