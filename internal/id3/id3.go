// Package id3 is the chapter tag codec: it maps episode metadata and
// chapter lists to and from ID3v2 frame blocks (TPE1/TIT2/TRCK plus
// CTOC/CHAP). The codec is pure and operates on in-memory byte blocks;
// reading and writing files is the caller's business.
//
// Tags are always written as ID3v2.3. On read, both v2.3 and v2.4 frame
// layouts are accepted.
package id3

import (
	"strconv"

	binutil "github.com/podsmith/chapters/internal/binary"
)

const (
	headerSize      = 10
	frameHeaderSize = 10

	writeVersion = 3

	frameTPE1 = "TPE1"
	frameTIT2 = "TIT2"
	frameTRCK = "TRCK"
	frameCTOC = "CTOC"
	frameCHAP = "CHAP"

	// CTOC flag bits.
	ctocTopLevel = 0x02
	ctocOrdered  = 0x01

	tocElementID = "toc"

	encodingLatin1 = 0x00
	encodingUTF16  = 0x01

	// CHAP byte offsets are unused; the millisecond times carry the
	// position.
	chapOffsetUnused = 0xFFFFFFFF
)

// chapterElementID is the CHAP element id for the chapter at index i, and
// the id the table of contents lists at that position.
func chapterElementID(i int) string {
	return "chp" + strconv.Itoa(i)
}

// LeadingTagSize reports the total on-disk size, header included, of an
// ID3v2 tag at the start of a file, given at least the first ten bytes.
// ok is false when head is too short or carries no ID3 magic; a file
// without a leading tag is not an error.
func LeadingTagSize(head []byte) (size int64, ok bool) {
	if len(head) < headerSize || string(head[0:3]) != "ID3" {
		return 0, false
	}
	return headerSize + int64(binutil.DecodeSynchsafe(head[6:10])), true
}
