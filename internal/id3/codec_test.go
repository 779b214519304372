package id3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	binutil "github.com/podsmith/chapters/internal/binary"
	"github.com/podsmith/chapters/internal/types"
)

func strPtr(s string) *string { return &s }
func uintPtr(n uint) *uint    { return &n }

// makeTag wraps raw frame bytes in a tag header for hand-built test input.
func makeTag(version byte, frames []byte) []byte {
	var tag bytes.Buffer
	tag.WriteString("ID3")
	tag.WriteByte(version)
	tag.WriteByte(0)
	tag.WriteByte(0)
	size := binutil.EncodeSynchsafe(uint32(len(frames)))
	tag.Write(size[:])
	tag.Write(frames)
	return tag.Bytes()
}

func TestRoundTrip(t *testing.T) {
	chapters := []types.Chapter{
		{Start: 0, End: 1000, Name: "Intro"},
		{Start: 1000, End: 2000, Name: "Body"},
		{Start: 2000, End: 3000, Name: "Outro"},
	}

	tests := []struct {
		name string
		md   types.MetaData
	}{
		{"empty", types.MetaData{}},
		{"all fields", types.MetaData{
			PodcastTitle:  strPtr("Test Cast"),
			EpisodeTitle:  strPtr("Pilot"),
			EpisodeNumber: uintPtr(3),
			Chapters:      chapters,
		}},
		{"podcast title only", types.MetaData{PodcastTitle: strPtr("Solo")}},
		{"episode number only", types.MetaData{EpisodeNumber: uintPtr(255)}},
		{"empty string title is not absent", types.MetaData{EpisodeTitle: strPtr("")}},
		{"chapters only", types.MetaData{Chapters: chapters}},
		{"single unnamed chapter", types.MetaData{
			Chapters: []types.Chapter{{Start: 0, End: 60000, Name: ""}},
		}},
		{"titles with number", types.MetaData{
			PodcastTitle:  strPtr("Cast"),
			EpisodeNumber: uintPtr(12),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.md))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tt.md) {
				t.Errorf("round trip changed metadata:\n got  %+v\n want %+v", got, tt.md)
			}
		})
	}
}

func TestEncodeEmptyMetaData(t *testing.T) {
	tag := Encode(types.MetaData{})
	want := []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(tag, want) {
		t.Errorf("Encode(empty) = %v, want bare header %v", tag, want)
	}
}

func TestEncodeChapterFrameLayout(t *testing.T) {
	tag := Encode(types.MetaData{
		Chapters: []types.Chapter{
			{Start: 1000, End: 2000, Name: "One"},
			{Start: 2000, End: 3000, Name: "Two"},
		},
	})

	// First frame after the header must be the table of contents.
	body := tag[10:]
	if string(body[0:4]) != "CTOC" {
		t.Fatalf("first frame = %s, want CTOC", body[0:4])
	}
	ctocSize := binary.BigEndian.Uint32(body[4:8])
	payload := body[10 : 10+ctocSize]

	wantPayload := []byte("toc\x00\x03\x02chp0\x00chp1\x00")
	if !bytes.Equal(payload, wantPayload) {
		t.Errorf("CTOC payload = %q, want %q", payload, wantPayload)
	}

	// Second frame is the first CHAP: element id, times, unused offsets.
	chap := body[10+ctocSize:]
	if string(chap[0:4]) != "CHAP" {
		t.Fatalf("second frame = %s, want CHAP", chap[0:4])
	}
	data := chap[10:]
	if string(data[0:5]) != "chp0\x00" {
		t.Errorf("element id bytes = %q, want chp0 with terminator", data[0:5])
	}
	if start := binary.BigEndian.Uint32(data[5:9]); start != 1000 {
		t.Errorf("start = %d, want 1000", start)
	}
	if end := binary.BigEndian.Uint32(data[9:13]); end != 2000 {
		t.Errorf("end = %d, want 2000", end)
	}
	for i := 13; i < 21; i += 4 {
		if off := binary.BigEndian.Uint32(data[i : i+4]); off != 0xFFFFFFFF {
			t.Errorf("byte offset at %d = %#x, want 0xFFFFFFFF", i, off)
		}
	}
}

func TestDecodeEmptyBlock(t *testing.T) {
	md, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) failed: %v", err)
	}
	if !md.Equal(types.MetaData{}) {
		t.Errorf("Decode(nil) = %+v, want empty", md)
	}
}

func TestDecodeMalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		tag  []byte
	}{
		{"no magic", []byte("XXXXXXXXXXXX")},
		{"short block", []byte("ID3")},
		{"unsupported version", makeTag(5, nil)},
		{"size overruns block", func() []byte {
			tag := makeTag(3, make([]byte, 20))
			return tag[:15]
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tag)
			var re *types.ReadError
			if !errors.As(err, &re) {
				t.Fatalf("expected ReadError, got %v", err)
			}
		})
	}
}

func TestDecodeMissingChapFrame(t *testing.T) {
	// A table of contents naming a chapter that has no CHAP frame.
	var frames bytes.Buffer
	writeTOCFrame(&frames, 2)
	writeChapterFrame(&frames, "chp0", types.Chapter{Start: 0, End: 10, Name: "Only"})

	_, err := Decode(makeTag(3, frames.Bytes()))
	var fe *types.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError for missing CHAP, got %v", err)
	}
	if !strings.Contains(err.Error(), "chp1") {
		t.Errorf("error does not name the missing element id: %v", err)
	}
}

func TestDecodeStrayChapWithoutTOC(t *testing.T) {
	var frames bytes.Buffer
	writeChapterFrame(&frames, "chp0", types.Chapter{Start: 0, End: 10, Name: "Stray"})

	md, err := Decode(makeTag(3, frames.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(md.Chapters) != 0 {
		t.Errorf("expected no chapters without a CTOC, got %d", len(md.Chapters))
	}
}

func TestDecodeV24SynchsafeFrameSizes(t *testing.T) {
	// A 128-byte title distinguishes synchsafe from plain big-endian
	// sizes: 128 is 0x00000100 synchsafe but 0x00000080 big-endian.
	title := strings.Repeat("x", 127)

	var frames bytes.Buffer
	frames.WriteString(frameTIT2)
	size := binutil.EncodeSynchsafe(uint32(1 + len(title)))
	frames.Write(size[:])
	frames.Write([]byte{0, 0}) // flags
	frames.WriteByte(encodingLatin1)
	frames.WriteString(title)

	md, err := Decode(makeTag(4, frames.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if md.EpisodeTitle == nil || *md.EpisodeTitle != title {
		t.Errorf("EpisodeTitle not recovered from a v2.4 frame")
	}
}

func TestDecodeStopsAtPadding(t *testing.T) {
	var frames bytes.Buffer
	writeTextFrame(&frames, frameTPE1, "Cast")
	frames.Write(make([]byte, 64)) // padding counted in the declared size

	md, err := Decode(makeTag(3, frames.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if md.PodcastTitle == nil || *md.PodcastTitle != "Cast" {
		t.Errorf("PodcastTitle = %v, want Cast", md.PodcastTitle)
	}
}

func TestDecodeTrackNumber(t *testing.T) {
	tests := []struct {
		text string
		want *uint
	}{
		{"3", uintPtr(3)},
		{" 12 ", uintPtr(12)},
		{"3/10", uintPtr(3)},
		{"abc", nil},
		{"", nil},
	}

	for _, tt := range tests {
		var frames bytes.Buffer
		writeTextFrame(&frames, frameTRCK, tt.text)

		md, err := Decode(makeTag(3, frames.Bytes()))
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", tt.text, err)
		}

		switch {
		case tt.want == nil && md.EpisodeNumber != nil:
			t.Errorf("TRCK %q: EpisodeNumber = %d, want absent", tt.text, *md.EpisodeNumber)
		case tt.want != nil && (md.EpisodeNumber == nil || *md.EpisodeNumber != *tt.want):
			t.Errorf("TRCK %q: EpisodeNumber = %v, want %d", tt.text, md.EpisodeNumber, *tt.want)
		}
	}
}

func TestDecodeUTF16Text(t *testing.T) {
	// Little-endian BOM then "Hi".
	payload := []byte{encodingUTF16, 0xFF, 0xFE, 'H', 0x00, 'i', 0x00}

	var frames bytes.Buffer
	writeFrame(&frames, frameTIT2, payload)

	md, err := Decode(makeTag(3, frames.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if md.EpisodeTitle == nil || *md.EpisodeTitle != "Hi" {
		t.Errorf("EpisodeTitle = %v, want Hi", md.EpisodeTitle)
	}
}

func TestDecodeNestedChapterTitleMissing(t *testing.T) {
	// A CHAP frame with no sub-frames at all decodes to an empty name.
	var p bytes.Buffer
	p.WriteString("chp0")
	p.WriteByte(0)
	binary.Write(&p, binary.BigEndian, uint32(5))
	binary.Write(&p, binary.BigEndian, uint32(9))
	binary.Write(&p, binary.BigEndian, uint32(0xFFFFFFFF))
	binary.Write(&p, binary.BigEndian, uint32(0xFFFFFFFF))

	var frames bytes.Buffer
	writeTOCFrame(&frames, 1)
	writeFrame(&frames, frameCHAP, p.Bytes())

	md, err := Decode(makeTag(3, frames.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []types.Chapter{{Start: 5, End: 9, Name: ""}}
	if len(md.Chapters) != 1 || md.Chapters[0] != want[0] {
		t.Errorf("Chapters = %+v, want %+v", md.Chapters, want)
	}
}

func TestLeadingTagSize(t *testing.T) {
	tag := Encode(types.MetaData{EpisodeTitle: strPtr("Pilot")})

	size, ok := LeadingTagSize(tag)
	if !ok || size != int64(len(tag)) {
		t.Errorf("LeadingTagSize = %d, %v, want %d, true", size, ok, len(tag))
	}

	if _, ok := LeadingTagSize([]byte("RIFFxxxxWAVE")); ok {
		t.Error("LeadingTagSize reported a tag on non-ID3 bytes")
	}
	if _, ok := LeadingTagSize([]byte("ID")); ok {
		t.Error("LeadingTagSize reported a tag on a short block")
	}
}
