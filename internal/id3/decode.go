package id3

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	binutil "github.com/podsmith/chapters/internal/binary"
	"github.com/podsmith/chapters/internal/types"
)

// chapterFrame is one parsed CHAP frame, keyed by element id until the
// table of contents fixes the order.
type chapterFrame struct {
	elementID string
	start     uint32
	end       uint32
	title     string
}

// Decode parses a complete ID3v2 tag block (header included) back into
// MetaData. An empty block decodes to empty MetaData. Frames the codec
// does not write are skipped; a structurally broken tag fails with
// ReadError, and a table of contents naming a CHAP frame that is not
// present fails with FormatError rather than silently dropping chapters.
func Decode(tag []byte) (types.MetaData, error) {
	var md types.MetaData
	if len(tag) == 0 {
		return md, nil
	}
	if len(tag) < headerSize || string(tag[0:3]) != "ID3" {
		return md, &types.ReadError{Reason: "missing ID3 magic"}
	}

	version := tag[3]
	if version != 3 && version != 4 {
		return md, &types.ReadError{Reason: fmt.Sprintf("unsupported ID3v2 version 2.%d", version)}
	}
	flags := tag[5]
	size := binutil.DecodeSynchsafe(tag[6:10])
	if headerSize+int(size) > len(tag) {
		return md, &types.ReadError{Reason: fmt.Sprintf("declared tag size %d overruns a block of %d bytes", size, len(tag))}
	}

	body, err := skipExtendedHeader(tag[headerSize:headerSize+int(size)], version, flags)
	if err != nil {
		return md, err
	}

	var (
		tocIDs  []string
		haveTOC bool
		chaps   = map[string]chapterFrame{}
	)

	r := binutil.NewSliceReader(body)
	for r.Remaining() >= frameHeaderSize {
		head, _ := r.Bytes(frameHeaderSize, "frame header")
		if head[0] == 0 { // padding, no frames follow
			break
		}

		id := string(head[0:4])
		fsize := frameSize(head[4:8], version)
		data, err := r.Bytes(int(fsize), "frame data")
		if err != nil {
			return types.MetaData{}, &types.ReadError{Reason: fmt.Sprintf("frame %s overruns tag body", id)}
		}

		switch id {
		case frameTPE1:
			md.PodcastTitle = textPtr(data)
		case frameTIT2:
			md.EpisodeTitle = textPtr(data)
		case frameTRCK:
			md.EpisodeNumber = trackNumber(data)
		case frameCTOC:
			tocIDs, err = parseTOCFrame(data)
			if err != nil {
				return types.MetaData{}, err
			}
			haveTOC = true
		case frameCHAP:
			if cf, ok := parseChapterFrame(data, version); ok {
				chaps[cf.elementID] = cf
			}
		}
	}

	// Without a table of contents the chapter list stays absent, whatever
	// stray CHAP frames the tag carries.
	if !haveTOC {
		return md, nil
	}

	chapters := make([]types.Chapter, 0, len(tocIDs))
	for _, id := range tocIDs {
		cf, ok := chaps[id]
		if !ok {
			return types.MetaData{}, &types.FormatError{Reason: fmt.Sprintf("table of contents references missing CHAP frame %q", id)}
		}
		chapters = append(chapters, types.Chapter{Start: cf.start, End: cf.end, Name: cf.title})
	}
	md.Chapters = chapters
	return md, nil
}

// frameSize decodes a frame size field: synchsafe in v2.4, plain
// big-endian in v2.3.
func frameSize(b []byte, version byte) uint32 {
	if version == 4 {
		return binutil.DecodeSynchsafe(b)
	}
	return binary.BigEndian.Uint32(b)
}

// skipExtendedHeader advances past an extended header when the tag flags
// declare one. v2.3 sizes exclude the four size bytes, v2.4 sizes include
// them.
func skipExtendedHeader(body []byte, version, flags byte) ([]byte, error) {
	if flags&0x40 == 0 {
		return body, nil
	}
	if len(body) < 4 {
		return nil, &types.ReadError{Reason: "truncated extended header"}
	}

	var skip int
	if version == 4 {
		skip = int(binutil.DecodeSynchsafe(body[0:4]))
	} else {
		skip = int(binary.BigEndian.Uint32(body[0:4])) + 4
	}
	if skip < 4 || skip > len(body) {
		return nil, &types.ReadError{Reason: "extended header overruns tag body"}
	}
	return body[skip:], nil
}

// textPtr decodes a text frame payload (encoding byte then text). Nil for
// an empty payload, which carries not even an encoding byte.
func textPtr(data []byte) *string {
	if len(data) < 1 {
		return nil
	}
	s := decodeText(data[1:], data[0])
	return &s
}

// trackNumber parses a TRCK payload. "N/Total" also appears in the wild;
// only N matters here. A value that does not parse as a decimal is
// dropped rather than failing the whole decode.
func trackNumber(data []byte) *uint {
	p := textPtr(data)
	if p == nil {
		return nil
	}

	text := strings.TrimSpace(*p)
	if i := strings.IndexByte(text, '/'); i >= 0 {
		text = text[:i]
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return nil
	}
	num := uint(n)
	return &num
}

// parseTOCFrame returns the child element id list of a CTOC frame, in
// declared order. The entry count byte bounds the walk; sub-frames after
// the id list are ignored.
func parseTOCFrame(data []byte) ([]string, error) {
	r := binutil.NewSliceReader(data)
	if _, err := r.CString("CTOC element id"); err != nil {
		return nil, &types.ReadError{Reason: "malformed CTOC frame: unterminated element id"}
	}
	if err := r.Skip(1, "CTOC flags"); err != nil {
		return nil, &types.ReadError{Reason: "malformed CTOC frame: missing flags"}
	}
	count, err := binutil.ReadBE[uint8](r, "CTOC entry count")
	if err != nil {
		return nil, &types.ReadError{Reason: "malformed CTOC frame: missing entry count"}
	}

	ids := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.CString("CTOC child id")
		if err != nil {
			return nil, &types.ReadError{Reason: fmt.Sprintf("malformed CTOC frame: %d child ids declared, %d present", count, i)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseChapterFrame reads one CHAP frame: element id, start/end times,
// skipped byte offsets, then sub-frames of which only a nested TIT2
// matters. A malformed frame is dropped; the table of contents will then
// report the element id as missing.
func parseChapterFrame(data []byte, version byte) (chapterFrame, bool) {
	var cf chapterFrame

	r := binutil.NewSliceReader(data)
	id, err := r.CString("CHAP element id")
	if err != nil {
		return cf, false
	}
	cf.elementID = id
	if cf.start, err = binutil.ReadBE[uint32](r, "chapter start time"); err != nil {
		return cf, false
	}
	if cf.end, err = binutil.ReadBE[uint32](r, "chapter end time"); err != nil {
		return cf, false
	}
	if err = r.Skip(8, "chapter byte offsets"); err != nil {
		return cf, false
	}

	for r.Remaining() >= frameHeaderSize {
		head, _ := r.Bytes(frameHeaderSize, "sub-frame header")
		if head[0] == 0 {
			break
		}
		sub, err := r.Bytes(int(frameSize(head[4:8], version)), "sub-frame data")
		if err != nil {
			return cf, false
		}
		if string(head[0:4]) == frameTIT2 {
			if p := textPtr(sub); p != nil {
				cf.title = *p
			}
		}
	}
	return cf, true
}
