// Package chapters turns cue-marked podcast recordings into chaptered
// MP3 files.
//
// A WAV recording carries chapter markers as RIFF cue points with labels.
// This library extracts those markers, compresses the audio with the
// external lame encoder running one process per CPU, and reads and writes
// the episode metadata as ID3 CTOC/CHAP chapter frames on the MP3.
//
// # Quick Start
//
// Operations run asynchronously through a Library. Callers receive
// lifecycle notifications on a Listener and an awaitable Task per
// operation:
//
//	lib := chapters.New(listener)
//	task := lib.ImportFromWAV(ctx, "03 - Interview.wav")
//	result, err := task.Wait()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%d chapters\n", len(result.Meta.Chapters))
//
// The import guesses the episode number and title from the file name,
// reads the chapter list from the cue points, and encodes the audio into
// an in-memory buffer held by the Library until a Save writes it out.
//
// # Operations
//
//   - ImportFromWAV: chapters + metadata guess + parallel encode
//   - OpenMP3: read existing chapter metadata and duration
//   - Save: fresh-write an imported episode, or retag an MP3 in place
//   - SaveAs: write to an explicit destination
//
// Every operation reports progress as 0..100 percentages. The encode
// aggregate is a mean across workers and may transiently decrease;
// write progress is proportional to bytes written.
//
// # Errors
//
// Structural problems in inputs surface as *FormatError (broken RIFF
// containers, a chapter table of contents naming a frame that is not
// there) or *ReadError (a malformed ID3 tag). Encoder subprocess
// failures surface as *EncoderProcessError carrying the worker's stderr.
// Missing optional metadata is never an error.
package chapters
