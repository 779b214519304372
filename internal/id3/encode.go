package id3

import (
	"bytes"
	"strconv"

	binutil "github.com/podsmith/chapters/internal/binary"
	"github.com/podsmith/chapters/internal/types"
)

// Encode renders md as a complete ID3v2.3 tag block, header included, with
// no trailing padding. Absent fields emit no frame. A non-empty chapter
// list produces one top-level ordered CTOC frame listing chp0..chp{n-1},
// plus one CHAP frame per chapter carrying its millisecond interval and a
// nested TIT2 sub-frame with the chapter name.
//
// All writes land in a bytes.Buffer and cannot fail, so write errors are
// not checked here.
func Encode(md types.MetaData) []byte {
	var frames bytes.Buffer

	if md.PodcastTitle != nil {
		writeTextFrame(&frames, frameTPE1, *md.PodcastTitle)
	}
	if md.EpisodeTitle != nil {
		writeTextFrame(&frames, frameTIT2, *md.EpisodeTitle)
	}
	if md.EpisodeNumber != nil {
		writeTextFrame(&frames, frameTRCK, strconv.FormatUint(uint64(*md.EpisodeNumber), 10))
	}
	if len(md.Chapters) > 0 {
		writeTOCFrame(&frames, len(md.Chapters))
		for i, ch := range md.Chapters {
			writeChapterFrame(&frames, chapterElementID(i), ch)
		}
	}

	var tag bytes.Buffer
	sw := binutil.NewSafeWriter(&tag)
	sw.WriteString("ID3")
	binutil.Write[uint8](sw, writeVersion)
	binutil.Write[uint8](sw, 0) // revision
	binutil.Write[uint8](sw, 0) // flags
	sw.WriteSynchsafe(uint32(frames.Len()))
	sw.WriteBytes(frames.Bytes())
	return tag.Bytes()
}

// writeFrame emits one v2.3 frame: id, big-endian size, zero flags,
// payload.
func writeFrame(buf *bytes.Buffer, id string, payload []byte) {
	sw := binutil.NewSafeWriter(buf)
	sw.WriteString(id)
	binutil.Write[uint32](sw, uint32(len(payload)))
	binutil.Write[uint16](sw, 0)
	sw.WriteBytes(payload)
}

// writeTextFrame emits a Latin-1 text frame: encoding byte then the text,
// unterminated.
func writeTextFrame(buf *bytes.Buffer, id, text string) {
	payload := make([]byte, 0, 1+len(text))
	payload = append(payload, encodingLatin1)
	payload = append(payload, text...)
	writeFrame(buf, id, payload)
}

// writeTOCFrame emits the CTOC frame: element id "toc", top-level and
// ordered flags, then the child element id list in chapter order.
func writeTOCFrame(buf *bytes.Buffer, n int) {
	var p bytes.Buffer
	p.WriteString(tocElementID)
	p.WriteByte(0)
	p.WriteByte(ctocTopLevel | ctocOrdered)
	p.WriteByte(byte(n))
	for i := 0; i < n; i++ {
		p.WriteString(chapterElementID(i))
		p.WriteByte(0)
	}
	writeFrame(buf, frameCTOC, p.Bytes())
}

// writeChapterFrame emits one CHAP frame: element id, start/end in
// milliseconds, unused byte offsets, and a nested TIT2 sub-frame with the
// chapter name.
func writeChapterFrame(buf *bytes.Buffer, elementID string, ch types.Chapter) {
	var p bytes.Buffer
	sw := binutil.NewSafeWriter(&p)
	sw.WriteString(elementID)
	sw.WriteBytes([]byte{0})
	binutil.Write[uint32](sw, ch.Start)
	binutil.Write[uint32](sw, ch.End)
	binutil.Write[uint32](sw, chapOffsetUnused)
	binutil.Write[uint32](sw, chapOffsetUnused)
	writeTextFrame(&p, frameTIT2, ch.Name)

	writeFrame(buf, frameCHAP, p.Bytes())
}
