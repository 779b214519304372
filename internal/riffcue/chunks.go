package riffcue

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"

	binutil "github.com/podsmith/chapters/internal/binary"
	"github.com/podsmith/chapters/internal/types"
)

// cuePointRecordSize is the fixed on-disk size of one cue point record:
// id, position, fcc chunk, chunk start, block start, sample offset.
const cuePointRecordSize = 24

type fmtChunk struct {
	formatTag      uint16
	numChannels    uint16
	sampleRate     uint32
	avgBytesPerSec uint32
	blockAlign     uint16
	bitsPerSample  uint16
}

// decodeFmtChunk reads the fixed part of a fmt chunk and drains any
// extension bytes.
func decodeFmtChunk(ch *riff.Chunk) (*fmtChunk, error) {
	fc := &fmtChunk{}

	fields := []struct {
		name string
		dst  any
	}{
		{"format tag", &fc.formatTag},
		{"channel count", &fc.numChannels},
		{"sample rate", &fc.sampleRate},
		{"avg bytes/sec", &fc.avgBytesPerSec},
		{"block align", &fc.blockAlign},
		{"bit depth", &fc.bitsPerSample},
	}
	for _, f := range fields {
		if err := ch.ReadLE(f.dst); err != nil {
			return nil, &types.FormatError{Reason: fmt.Sprintf("truncated fmt chunk reading %s", f.name)}
		}
	}

	ch.Drain()
	return fc, nil
}

// decodeCueChunk reads the point count then the fixed-size point records,
// keeping only the cue id and sample position of each.
func decodeCueChunk(ch *riff.Chunk, points map[uint32]*cuePoint) error {
	buf, err := readWholeChunk(ch, "cue")
	if err != nil {
		return err
	}

	r := binutil.NewSliceReader(buf)
	count, err := binutil.ReadLE[uint32](r, "cue point count")
	if err != nil {
		return &types.FormatError{Reason: "truncated cue chunk"}
	}

	for i := uint32(0); i < count; i++ {
		rec, err := r.Bytes(cuePointRecordSize, "cue point record")
		if err != nil {
			return &types.FormatError{Reason: fmt.Sprintf("truncated cue point record %d of %d", i+1, count)}
		}

		rr := binutil.NewSliceReader(rec)
		id, _ := binutil.ReadLE[uint32](rr, "cue id")
		position, _ := binutil.ReadLE[uint32](rr, "cue position")

		pt := ensurePoint(points, id)
		pt.position = position
	}

	return nil
}

// decodeADTLChunk walks a LIST chunk. Only the adtl list type is of
// interest; within it, labl records attach text to cue points. Other list
// types and other adtl record kinds (ltxt, note) are skipped by size.
func decodeADTLChunk(ch *riff.Chunk, points map[uint32]*cuePoint) error {
	buf, err := readWholeChunk(ch, "LIST")
	if err != nil {
		return err
	}

	r := binutil.NewSliceReader(buf)
	listType, err := r.Bytes(4, "list type")
	if err != nil {
		return &types.FormatError{Reason: "truncated LIST chunk"}
	}
	if !bytes.Equal(listType, cidAdtl[:]) {
		return nil
	}

	for r.Remaining() > 1 { // a lone padding byte may remain
		id, err := r.Bytes(4, "adtl record id")
		if err != nil {
			return &types.FormatError{Reason: "truncated adtl record header"}
		}
		size, err := binutil.ReadLE[uint32](r, "adtl record size")
		if err != nil {
			return &types.FormatError{Reason: "truncated adtl record header"}
		}

		padded := int(size + size%2)
		body, err := r.Bytes(padded, "adtl record body")
		if err != nil {
			return &types.FormatError{Reason: fmt.Sprintf("adtl record %s overruns LIST chunk", id)}
		}

		if [4]byte(id) != cidLabl {
			continue
		}
		if size < 4 {
			return &types.FormatError{Reason: "labl record too short for a cue id"}
		}

		br := binutil.NewSliceReader(body[:size])
		cueID, _ := binutil.ReadLE[uint32](br, "labl cue id")
		text, _ := br.Bytes(int(size)-4, "labl text")

		pt := ensurePoint(points, cueID)
		pt.label = string(bytes.TrimRight(text, "\x00"))
	}

	return nil
}

// ensurePoint returns the point for id, creating it when a label arrives
// before its cue record.
func ensurePoint(points map[uint32]*cuePoint, id uint32) *cuePoint {
	pt, ok := points[id]
	if !ok {
		pt = &cuePoint{id: id}
		points[id] = pt
	}
	return pt
}

// readWholeChunk pulls a full chunk into memory. These chunks are tiny
// relative to the audio payload.
func readWholeChunk(ch *riff.Chunk, what string) ([]byte, error) {
	buf := make([]byte, ch.Size)
	n, err := io.ReadFull(ch, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read the %s chunk: %w", what, err)
	}
	ch.Drain()
	return buf[:n], nil
}
