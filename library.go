package chapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/podsmith/chapters/internal/id3"
	"github.com/podsmith/chapters/internal/lame"
	"github.com/podsmith/chapters/internal/riffcue"
	"github.com/podsmith/chapters/internal/types"
)

// writeBatchBytes is the copy granularity for output files, and the
// granularity of byte-proportional write progress.
const writeBatchBytes = 4096

// Library sequences chapter extraction, parallel encoding, and tag
// writing into named asynchronous operations. Each operation runs on its
// own goroutine, notifies the Listener, and returns a Task handle.
//
// A Library holds at most one pending encoded buffer between an import
// and the save that writes it. Starting a second import before the first
// buffer is consumed fails with ErrEncodeInProgress.
type Library struct {
	listener    Listener
	encoder     lame.Client
	encoderOpts []lame.Option

	mu       sync.Mutex
	encoding bool
	pending  []byte
}

// New constructs a Library. A nil listener is allowed; notifications are
// then dropped and outcomes are only visible through Task handles.
func New(listener Listener, opts ...Option) *Library {
	l := &Library{listener: nopListener{}}
	if listener != nil {
		l.listener = listener
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.encoder == nil {
		l.encoder = lame.New(l.encoderOpts...)
	}
	return l
}

// run spawns one operation goroutine: Started, the work, then exactly one
// of Complete or Failed before the task is released.
func (l *Library) run(kind Kind, path string, fn func(op Op) (Result, error)) *Task {
	op := Op{ID: uuid.New(), Kind: kind, Path: path}
	task := newTask(op)

	go func() {
		l.listener.Started(op)
		result, err := fn(op)
		if err != nil {
			l.listener.Failed(op, err)
		} else {
			l.listener.Complete(op, result)
		}
		task.finish(result, err)
	}()

	return task
}

// ImportFromWAV reads chapters from the WAV's cue points, guesses episode
// metadata from the file name, and encodes the audio into an in-memory
// buffer held until a following Save or SaveAs writes it out. Progress
// reflects the encode.
func (l *Library) ImportFromWAV(ctx context.Context, path string) *Task {
	return l.run(KindImport, path, func(op Op) (Result, error) {
		if err := l.claimEncodeSlot(); err != nil {
			return Result{}, err
		}

		md, err := l.importWAV(ctx, op, path)
		if err != nil {
			l.releaseEncodeSlot()
			return Result{}, err
		}
		return Result{Meta: md}, nil
	})
}

func (l *Library) importWAV(ctx context.Context, op Op, path string) (MetaData, error) {
	md := GuessMetaData(path)

	f, err := os.Open(path)
	if err != nil {
		return MetaData{}, err
	}
	ext, err := riffcue.Extract(f)
	f.Close()
	if err != nil {
		return MetaData{}, err
	}
	md.Chapters = ext.Chapters

	encoded, err := l.encoder.Encode(ctx, path, func(percent int) {
		l.listener.Progress(op, percent)
	})
	if err != nil {
		return MetaData{}, err
	}

	l.storePending(encoded)
	return md, nil
}

// OpenMP3 reads the chapter metadata and duration of an existing MP3.
// A file without a leading ID3 tag opens with empty metadata.
func (l *Library) OpenMP3(ctx context.Context, path string) *Task {
	return l.run(KindOpen, path, func(op Op) (Result, error) {
		f, err := os.Open(path)
		if err != nil {
			return Result{}, err
		}
		defer f.Close()

		tagEnd, err := leadingTagEnd(f)
		if err != nil {
			return Result{}, err
		}

		var md MetaData
		if tagEnd > 0 {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return Result{}, err
			}
			block := make([]byte, tagEnd)
			if _, err := io.ReadFull(f, block); err != nil {
				return Result{}, &types.ReadError{Reason: fmt.Sprintf("leading tag truncated: %v", err)}
			}
			if md, err = id3.Decode(block); err != nil {
				return Result{}, err
			}
		}

		if _, err := f.Seek(tagEnd, io.SeekStart); err != nil {
			return Result{}, err
		}
		return Result{Meta: md, Duration: mp3Duration(f)}, nil
	})
}

// Save writes md to the current file. For a WAV source this fresh-writes
// a new MP3 next to it (the pending encoded buffer tagged and streamed to
// the .mp3 sibling path); for an MP3 source it rewrites the tags in
// place. An in-place save against a file that no longer exists reports
// success without writing anything, a long-standing quirk callers rely
// on.
func (l *Library) Save(ctx context.Context, md MetaData, currentFile string, fileType FileType) *Task {
	return l.run(KindSave, currentFile, func(op Op) (Result, error) {
		switch fileType {
		case FileTypeWAV:
			return l.freshWrite(op, md, mp3Sibling(currentFile))
		case FileTypeMP3:
			return l.rewriteInPlace(op, md, currentFile)
		default:
			return Result{}, fmt.Errorf("chapters: unknown file type %q", fileType)
		}
	})
}

// SaveAs writes md to destination. For a WAV source this is the fresh
// write to an explicit path. For an MP3 source the original file's bytes
// are streamed to destination with byte progress and the freshly encoded
// tag block is appended at the end, preserving how such copies have
// always been written.
func (l *Library) SaveAs(ctx context.Context, md MetaData, currentFile string, fileType FileType, destination string) *Task {
	return l.run(KindSaveAs, currentFile, func(op Op) (Result, error) {
		switch fileType {
		case FileTypeWAV:
			return l.freshWrite(op, md, destination)
		case FileTypeMP3:
			return l.copyWithAppendedTag(op, md, currentFile, destination)
		default:
			return Result{}, fmt.Errorf("chapters: unknown file type %q", fileType)
		}
	})
}

// freshWrite tags the pending encoded buffer and streams it to dest.
func (l *Library) freshWrite(op Op, md MetaData, dest string) (Result, error) {
	audio, err := l.takePending()
	if err != nil {
		return Result{}, err
	}

	tag := id3.Encode(md)
	total := int64(len(tag)) + int64(len(audio))
	src := io.MultiReader(bytes.NewReader(tag), bytes.NewReader(audio))

	if err := l.writeAtomically(op, dest, total, src); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: dest}, nil
}

// rewriteInPlace replaces the leading tag of an existing MP3, keeping the
// audio region byte for byte. The new file is assembled beside the old
// one and renamed over it, so a failed write never leaves a truncated
// file behind.
func (l *Library) rewriteInPlace(op Op, md MetaData, path string) (Result, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		// Quirk: an in-place save against a missing file silently
		// reports success.
		return Result{OutputPath: path}, nil
	}
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	tagEnd, err := leadingTagEnd(f)
	if err != nil {
		return Result{}, err
	}
	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}
	audioLen := max(info.Size()-tagEnd, 0)
	if _, err := f.Seek(tagEnd, io.SeekStart); err != nil {
		return Result{}, err
	}

	tag := id3.Encode(md)
	total := int64(len(tag)) + audioLen
	src := io.MultiReader(bytes.NewReader(tag), io.LimitReader(f, audioLen))

	if err := l.writeAtomically(op, path, total, src); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: path}, nil
}

// copyWithAppendedTag streams the source MP3 to dest and appends the new
// tag block after the audio.
func (l *Library) copyWithAppendedTag(op Op, md MetaData, source, dest string) (Result, error) {
	f, err := os.Open(source)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}

	tag := id3.Encode(md)
	total := info.Size() + int64(len(tag))
	src := io.MultiReader(f, bytes.NewReader(tag))

	if err := l.writeAtomically(op, dest, total, src); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: dest}, nil
}

// writeAtomically streams src into a temp file in dest's directory and
// renames it into place, reporting progress as bytes written out of
// total.
func (l *Library) writeAtomically(op Op, dest string, total int64, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".chapters-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed into place
	defer tmp.Close()

	var written int64
	buf := make([]byte, writeBatchBytes)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if total > 0 {
				l.listener.Progress(op, int(written*100/total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// claimEncodeSlot reserves the single pending-buffer slot for a new
// encode.
func (l *Library) claimEncodeSlot() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.encoding || l.pending != nil {
		return ErrEncodeInProgress
	}
	l.encoding = true
	return nil
}

func (l *Library) releaseEncodeSlot() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.encoding = false
}

func (l *Library) storePending(encoded []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = encoded
	l.encoding = false
}

func (l *Library) takePending() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return nil, ErrNoPendingAudio
	}
	buf := l.pending
	l.pending = nil
	return buf, nil
}

// leadingTagEnd reads the first bytes of f and returns the offset where
// the audio starts: past a leading ID3 tag if there is one, else zero.
func leadingTagEnd(f *os.File) (int64, error) {
	head := make([]byte, 10)
	n, err := io.ReadFull(f, head)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	size, ok := id3.LeadingTagSize(head[:n])
	if !ok {
		return 0, nil
	}
	return size, nil
}

// mp3Duration decodes the audio frames to measure the episode length.
// A stream the decoder cannot read reports a zero duration rather than
// failing the open.
func mp3Duration(r io.Reader) time.Duration {
	dec, err := gomp3.NewDecoder(r)
	if err != nil || dec.SampleRate() == 0 {
		return 0
	}

	// Length is in decoded bytes: stereo 16-bit, four bytes per sample.
	samples := dec.Length() / 4
	if samples <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(dec.SampleRate())
}

// mp3Sibling maps a source path to the .mp3 written next to it.
func mp3Sibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
}
