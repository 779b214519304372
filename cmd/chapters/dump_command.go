package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	binutil "github.com/podsmith/chapters/internal/binary"
)

// Debugging tool to inspect what is actually inside a file's leading tag,
// frame by frame, without going through the codec.
func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "dump <episode.mp3>",
		Short:  "Dump the raw ID3 frames of a file's leading tag",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return dumpFrames(cmd.OutOrStdout(), f)
		},
	}
}

func dumpFrames(out io.Writer, f *os.File) error {
	head := make([]byte, 10)
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("read tag header: %w", err)
	}
	if string(head[0:3]) != "ID3" {
		fmt.Fprintln(out, "no leading ID3 tag")
		return nil
	}

	version := head[3]
	size := binutil.DecodeSynchsafe(head[6:10])
	fmt.Fprintf(out, "ID3v2.%d tag, %d bytes of frames\n", version, size)

	body := make([]byte, size)
	if _, err := io.ReadFull(f, body); err != nil {
		return fmt.Errorf("read tag body: %w", err)
	}

	offset := 0
	for offset+10 <= len(body) {
		if body[offset] == 0 {
			fmt.Fprintf(out, "%6d  padding (%d bytes)\n", offset, len(body)-offset)
			break
		}

		id := string(body[offset : offset+4])
		var frameSize uint32
		if version == 4 {
			frameSize = binutil.DecodeSynchsafe(body[offset+4 : offset+8])
		} else {
			frameSize = binary.BigEndian.Uint32(body[offset+4 : offset+8])
		}

		end := offset + 10 + int(frameSize)
		if end > len(body) {
			fmt.Fprintf(out, "%6d  %s  size %d overruns tag\n", offset, id, frameSize)
			break
		}

		fmt.Fprintf(out, "%6d  %s  %5d  %s\n", offset, id, frameSize, preview(body[offset+10:end]))
		offset = end
	}
	return nil
}

// preview shows the printable prefix of a frame payload.
func preview(data []byte) string {
	const limit = 48

	var b strings.Builder
	for _, r := range string(data) {
		if b.Len() >= limit {
			b.WriteString("...")
			break
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
