// Package riffcue extracts cue-point chapter markers from RIFF WAVE streams.
//
// The extractor walks the chunk stream in declaration order, collecting the
// sample rate from `fmt `, marker positions from `cue `, labels from
// LIST/adtl/labl sub-chunks, and the audio length from `data`. Chunks it does
// not recognize are skipped by their declared size. Cue points are then sorted
// by sample position and turned into contiguous chapter intervals.
package riffcue

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"

	"github.com/podsmith/chapters/internal/types"
)

var (
	cidCue  = [4]byte{'c', 'u', 'e', ' '}
	cidList = [4]byte{'L', 'I', 'S', 'T'}
	cidAdtl = [4]byte{'a', 'd', 't', 'l'}
	cidLabl = [4]byte{'l', 'a', 'b', 'l'}
)

// Extraction is the result of walking one WAV stream.
type Extraction struct {
	// Format carries channel count and sample rate from the fmt chunk.
	// Nil when the stream declared no fmt chunk (only possible when the
	// stream also carried no cue points).
	Format *audio.Format

	// TotalSamples is the number of sample frames in the data chunk.
	TotalSamples uint64

	// Chapters is the ordered, contiguous chapter list. Nil when the
	// stream carries no cue points; that is not an error.
	Chapters []types.Chapter
}

// cuePoint is a marker collected during the walk, keyed by cue id.
// A repeated id overwrites the earlier occurrence (last write wins). RIFF
// cue ids are supposed to be unique, so an overwrite more likely signals a
// broken authoring tool than intent, but this matches how such files have
// always been read here.
type cuePoint struct {
	id       uint32
	position uint32
	label    string
}

// Extract walks the WAV stream and returns the chapter intervals it declares.
func Extract(r io.Reader) (*Extraction, error) {
	p := riff.New(r)

	if err := readContainerHeader(p, r); err != nil {
		return nil, err
	}

	var (
		points   = map[uint32]*cuePoint{}
		sawCue   bool
		fmtInfo  *fmtChunk
		dataSize uint64
		// declared container payload minus the 4-byte WAVE form type
		remaining = int64(p.Size) - 4
	)

	for remaining >= 8 {
		chunk, err := p.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &types.FormatError{Reason: fmt.Sprintf("truncated chunk stream: %v", err)}
		}

		remaining -= 8
		if int64(chunk.Size) > remaining {
			return nil, &types.FormatError{Reason: fmt.Sprintf("chunk %s overruns container by %d bytes", chunk.ID[:], int64(chunk.Size)-remaining)}
		}
		remaining -= int64(chunk.Size)

		switch chunk.ID {
		case riff.FmtID:
			fmtInfo, err = decodeFmtChunk(chunk)
		case riff.DataFormatID:
			dataSize = uint64(chunk.Size)
			chunk.Drain()
		case cidCue:
			sawCue = true
			err = decodeCueChunk(chunk, points)
		case cidList:
			err = decodeADTLChunk(chunk, points)
		default:
			chunk.Drain()
		}
		if err != nil {
			return nil, err
		}
	}

	ext := &Extraction{}
	if fmtInfo != nil {
		ext.Format = &audio.Format{
			NumChannels: int(fmtInfo.numChannels),
			SampleRate:  int(fmtInfo.sampleRate),
		}
		if fmtInfo.blockAlign > 0 {
			ext.TotalSamples = dataSize / uint64(fmtInfo.blockAlign)
		}
	}

	// Labels without a cue chunk never produce chapters on their own.
	if !sawCue {
		return ext, nil
	}
	if fmtInfo == nil || fmtInfo.sampleRate == 0 {
		return nil, &types.FormatError{Reason: "cue points present but no fmt chunk declares a sample rate"}
	}

	ext.Chapters = buildChapters(points, uint64(fmtInfo.sampleRate), ext.TotalSamples)
	return ext, nil
}

// readContainerHeader validates the outer RIFF/WAVE container and primes the
// parser for NextChunk.
func readContainerHeader(p *riff.Parser, r io.Reader) error {
	id, size, err := p.IDnSize()
	if err != nil {
		return &types.FormatError{Reason: "not a WAV file"}
	}
	if id != riff.RiffID {
		return &types.FormatError{Reason: "not a WAV file"}
	}

	p.ID = id
	p.Size = size

	if err := binary.Read(r, binary.BigEndian, &p.Format); err != nil {
		return &types.FormatError{Reason: "not a WAV file"}
	}
	if p.Format != riff.WavFormatID {
		return &types.FormatError{Reason: "not a WAV file"}
	}

	return nil
}

// buildChapters sorts the collected points by sample position and converts
// them to contiguous millisecond intervals. Each chapter ends where the next
// one starts; the last chapter ends at the total duration.
func buildChapters(points map[uint32]*cuePoint, sampleRate, totalSamples uint64) []types.Chapter {
	sorted := make([]*cuePoint, 0, len(points))
	for _, pt := range points {
		sorted = append(sorted, pt)
	}
	slices.SortFunc(sorted, func(a, b *cuePoint) int {
		return cmp.Compare(a.position, b.position)
	})

	chapters := make([]types.Chapter, 0, len(sorted))
	for i, pt := range sorted {
		var end uint64
		if i+1 < len(sorted) {
			end = samplesToMillis(uint64(sorted[i+1].position), sampleRate)
		} else {
			end = samplesToMillis(totalSamples, sampleRate)
		}

		chapters = append(chapters, types.Chapter{
			Start: uint32(samplesToMillis(uint64(pt.position), sampleRate)),
			End:   uint32(end),
			Name:  pt.label,
		})
	}

	return chapters
}

func samplesToMillis(samples, sampleRate uint64) uint64 {
	return samples * 1000 / sampleRate
}
