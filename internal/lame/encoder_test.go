package lame

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/podsmith/chapters/internal/types"
)

// writeWAV writes a minimal PCM WAV file whose data bytes follow a
// deterministic pattern, so passthrough encoding is byte-comparable.
func writeWAV(t *testing.T, frames int, channels, bits uint16) string {
	t.Helper()

	frameBytes := int(channels) * int(bits) / 8
	data := make([]byte, frames*frameBytes)
	for i := range data {
		data[i] = byte(i)
	}

	var fmtPayload bytes.Buffer
	blockAlign := channels * bits / 8
	binary.Write(&fmtPayload, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&fmtPayload, binary.LittleEndian, channels)
	binary.Write(&fmtPayload, binary.LittleEndian, uint32(44100))
	binary.Write(&fmtPayload, binary.LittleEndian, uint32(44100)*uint32(blockAlign))
	binary.Write(&fmtPayload, binary.LittleEndian, blockAlign)
	binary.Write(&fmtPayload, binary.LittleEndian, bits)

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(fmtPayload.Len()))
	body.Write(fmtPayload.Bytes())
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(data)))
	body.Write(data)

	var file bytes.Buffer
	file.WriteString("RIFF")
	binary.Write(&file, binary.LittleEndian, uint32(body.Len()))
	file.Write(body.Bytes())

	path := filepath.Join(t.TempDir(), "source.wav")
	if err := os.WriteFile(path, file.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// useHelper reroutes worker subprocesses to TestHelperProcess.
func useHelper(t *testing.T, mode string, extraEnv ...string) {
	t.Helper()

	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "LAME_HELPER_MODE="+mode)
		cmd.Env = append(cmd.Env, extraEnv...)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestNewDefaults(t *testing.T) {
	e := New()
	if e.binary != "lame" {
		t.Errorf("binary = %q, want lame", e.binary)
	}
	if e.workers < 1 {
		t.Errorf("workers = %d, want at least 1", e.workers)
	}

	e = New(WithBinary("/opt/lame"), WithWorkers(3))
	if e.binary != "/opt/lame" || e.workers != 3 {
		t.Errorf("options not applied: %+v", e)
	}
}

func TestEncodeReassemblesInRangeOrder(t *testing.T) {
	useHelper(t, "passthrough")

	// 10 frames across 3 workers: ranges of 4, 4 and a clamped 2.
	path := writeWAV(t, 10, 1, 16)
	e := New(WithWorkers(3))

	out, err := e.Encode(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := make([]byte, 20)
	for i := range want {
		want[i] = byte(i)
	}
	if !bytes.Equal(out, want) {
		t.Errorf("output = %v, want source bytes in order %v", out, want)
	}
}

func TestEncodeOrderSurvivesReversedCompletion(t *testing.T) {
	// Workers sleep inversely to their first input byte, so the worker
	// for the earliest range finishes last.
	useHelper(t, "passthrough", "LAME_HELPER_STAGGER=1")

	path := writeWAV(t, 12, 1, 16)
	e := New(WithWorkers(3))

	staggered, err := e.Encode(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	useHelper(t, "passthrough")
	inOrder, err := e.Encode(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Equal(staggered, inOrder) {
		t.Error("output depends on worker completion order")
	}
}

func TestEncodeMatchesSingleWorker(t *testing.T) {
	useHelper(t, "passthrough")

	path := writeWAV(t, 50, 2, 16)

	single, err := New(WithWorkers(1)).Encode(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Encode with one worker failed: %v", err)
	}
	parallel, err := New(WithWorkers(4)).Encode(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Encode with four workers failed: %v", err)
	}

	if !bytes.Equal(single, parallel) {
		t.Error("parallel output differs from single-worker output")
	}
}

func TestEncodeWorkerFailure(t *testing.T) {
	useHelper(t, "fail")

	path := writeWAV(t, 10, 1, 16)
	_, err := New(WithWorkers(2)).Encode(context.Background(), path, nil)

	var pe *types.EncoderProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("expected EncoderProcessError, got %v", err)
	}
	if !strings.Contains(pe.Stderr, "no free format buffers") {
		t.Errorf("Stderr = %q, want the process's error output", pe.Stderr)
	}
}

func TestEncodeMissingSource(t *testing.T) {
	useHelper(t, "passthrough")

	_, err := New().Encode(context.Background(), filepath.Join(t.TempDir(), "absent.wav"), nil)

	var pe *types.EncoderProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("expected EncoderProcessError, got %v", err)
	}
	if pe.Worker != -1 {
		t.Errorf("Worker = %d, want -1 for a pre-spawn failure", pe.Worker)
	}
}

func TestEncodeNotAWAV(t *testing.T) {
	useHelper(t, "passthrough")

	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("ID3 tag, not RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New().Encode(context.Background(), path, nil)
	var fe *types.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestEncodeReportsProgress(t *testing.T) {
	useHelper(t, "passthrough")

	path := writeWAV(t, 40, 1, 16)

	var reports []int
	_, err := New(WithWorkers(2)).Encode(context.Background(), path, func(p int) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	for _, p := range reports {
		if p < 0 || p > 100 {
			t.Errorf("progress %d outside 0..100", p)
		}
	}
	if last := reports[len(reports)-1]; last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestProgressTableMean(t *testing.T) {
	var got []int
	table := newProgressTable(4, func(p int) {
		got = append(got, p)
	})

	table.set(0, 100)
	table.set(1, 50)
	table.set(0, 0) // a worker may be re-zeroed, the mean can drop

	want := []int{25, 37, 12}
	if len(got) != len(want) {
		t.Fatalf("reports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d = %d, want %d", i, got[i], want[i])
		}
	}

	// A nil callback must not panic.
	newProgressTable(2, nil).set(0, 10)
}

func TestProfileArgs(t *testing.T) {
	args := profileArgs()
	joined := strings.Join(args, " ")

	for _, want := range []string{"-r", "--little-endian", "--bitwidth 24", "-m m", "-b 64"} {
		if !strings.Contains(joined, want) {
			t.Errorf("profile args missing %q: %v", want, args)
		}
	}
	if args[len(args)-1] != "-" || args[len(args)-2] != "-" {
		t.Errorf("encoder must read stdin and write stdout: %v", args)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("LAME_HELPER_MODE") {
	case "passthrough":
		data, _ := io.ReadAll(os.Stdin)
		if os.Getenv("LAME_HELPER_STAGGER") == "1" && len(data) > 0 {
			delay := time.Duration(64-int(data[0])) * 5 * time.Millisecond
			if delay > 0 {
				time.Sleep(delay)
			}
		}
		os.Stdout.Write(data)
		os.Exit(0)
	case "fail":
		io.Copy(io.Discard, os.Stdin)
		fmt.Fprintln(os.Stderr, "no free format buffers")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
