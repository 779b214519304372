// Package lame compresses WAV audio by fanning it out to external lame
// processes, one per available CPU, and reassembling their output in
// source order. Each worker owns an independent read cursor into the
// source file, one subprocess, and one goroutine draining the subprocess
// output so that feeding its input can never deadlock on a full pipe.
package lame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/go-audio/wav"
	"golang.org/x/sync/errgroup"

	"github.com/podsmith/chapters/internal/types"
)

// commandContext is swapped out by tests.
var commandContext = exec.CommandContext

// batchFrames is how many sample frames are fed to a worker's stdin per
// write, and the granularity of its progress reports.
const batchFrames = 1024

// Client is the encoding behaviour the rest of the tool depends on.
// progress, when non-nil, receives aggregate percentages in 0..100; the
// aggregate is a mean across workers and may transiently decrease when
// workers advance at different rates.
type Client interface {
	Encode(ctx context.Context, wavPath string, progress func(percent int)) ([]byte, error)
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithBinary overrides the default lame binary name.
func WithBinary(binary string) Option {
	return func(e *Encoder) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithWorkers overrides the worker count, which defaults to the number of
// available CPUs.
func WithWorkers(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Encoder runs the lame command-line encoder.
type Encoder struct {
	binary  string
	workers int
}

// New constructs an Encoder using defaults.
func New(opts ...Option) *Encoder {
	e := &Encoder{binary: "lame", workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

var _ Client = (*Encoder)(nil)

// profileArgs is the fixed invocation every worker runs: raw little-endian
// PCM on stdin, mono downmix, 24-bit input width, 44.1 kHz, 64 kbit/s,
// encoded audio on stdout. These are policy constants of the tool, not
// user-configurable.
func profileArgs() []string {
	return []string{
		"-r",
		"--little-endian",
		"--bitwidth", "24",
		"-s", "44.1",
		"-m", "m",
		"-b", "64",
		"--quiet",
		"-", "-",
	}
}

// Encode compresses the WAV file at wavPath and returns the encoded bytes.
//
// The source is split into one contiguous sample range per worker. The
// nominal share is the total frame count rounded up to a multiple of the
// worker count, divided by the worker count; the final worker clamps to
// the real end of audio rather than reading synthesized padding. Output
// buffers are concatenated strictly in range order, never completion
// order. Any worker failure cancels the siblings and fails the whole
// encode.
func (e *Encoder) Encode(ctx context.Context, wavPath string, progress func(percent int)) ([]byte, error) {
	totalFrames, frameBytes, err := readSourceInfo(wavPath)
	if err != nil {
		var fe *types.FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &types.EncoderProcessError{Worker: -1, Err: err}
	}

	share := (totalFrames + int64(e.workers) - 1) / int64(e.workers)
	chunks := make([][]byte, e.workers)
	table := newProgressTable(e.workers, progress)

	g, ctx := errgroup.WithContext(ctx)
	for k := 0; k < e.workers; k++ {
		k := k
		g.Go(func() error {
			start := int64(k) * share
			count := min(share, totalFrames-start)
			if count <= 0 {
				table.set(k, 100)
				return nil
			}

			out, err := e.encodeRange(ctx, wavPath, k, start, count, frameBytes, table)
			if err != nil {
				return err
			}
			chunks[k] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes(), nil
}

// encodeRange runs one worker: skip to the assigned sample offset, spawn
// the encoder process, drain its stdout concurrently, and feed the
// assigned frames into its stdin in batches.
func (e *Encoder) encodeRange(ctx context.Context, path string, worker int, startFrame, frameCount, frameBytes int64, table *progressTable) ([]byte, error) {
	fail := func(stderr string, err error) ([]byte, error) {
		return nil, &types.EncoderProcessError{Worker: worker, Stderr: stderr, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return fail("", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return fail("", fmt.Errorf("seek source audio: %w", err))
	}
	pcm := d.PCMChunk
	if _, err := io.CopyN(io.Discard, pcm, startFrame*frameBytes); err != nil {
		return fail("", fmt.Errorf("skip to sample %d: %w", startFrame, err))
	}

	cmd := commandContext(ctx, e.binary, profileArgs()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail("", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail("", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fail("", fmt.Errorf("start %s: %w", e.binary, err))
	}

	// Dedicated drain: stdin and stdout must be serviced concurrently or
	// the process stalls once its output pipe fills.
	var out bytes.Buffer
	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(&out, stdout)
		drained <- err
	}()

	feedErr := feed(ctx, stdin, pcm, frameCount, frameBytes, func(fed int64) {
		table.set(worker, int(fed*100/frameCount))
	})
	stdin.Close()

	drainErr := <-drained
	if err := cmd.Wait(); err != nil {
		return fail(stderr.String(), err)
	}
	if feedErr != nil {
		return fail(stderr.String(), feedErr)
	}
	if drainErr != nil {
		return fail(stderr.String(), fmt.Errorf("drain encoder output: %w", drainErr))
	}

	return out.Bytes(), nil
}

// feed copies frameCount sample frames from r to w in fixed-size batches,
// reporting the cumulative frame count after each batch.
func feed(ctx context.Context, w io.Writer, r io.Reader, frameCount, frameBytes int64, onBatch func(fed int64)) error {
	buf := make([]byte, batchFrames*frameBytes)

	var fed int64
	for fed < frameCount {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(int64(batchFrames), frameCount-fed)
		b := buf[:n*frameBytes]
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("read source audio: %w", err)
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("feed encoder input: %w", err)
		}

		fed += n
		onBatch(fed)
	}
	return nil
}

// readSourceInfo reads the WAV header and reports the frame count and the
// on-disk size of one sample frame.
func readSourceInfo(path string) (totalFrames, frameBytes int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return 0, 0, &types.FormatError{Reason: fmt.Sprintf("unreadable WAV source: %v", err)}
	}

	frameBytes = int64(d.NumChans) * int64(d.BitDepth) / 8
	if frameBytes <= 0 {
		return 0, 0, &types.FormatError{Reason: "WAV header declares a zero frame size"}
	}
	return int64(d.PCMSize) / frameBytes, frameBytes, nil
}
