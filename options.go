package chapters

import "github.com/podsmith/chapters/internal/lame"

// Option configures a Library.
type Option func(*Library)

// Encoder compresses a WAV file into encoded audio bytes, reporting
// aggregate progress. The default implementation shells out to lame.
type Encoder = lame.Client

// WithEncoder replaces the external encoder client. Intended for tests
// and for callers that manage their own encoder configuration.
func WithEncoder(client Encoder) Option {
	return func(l *Library) {
		if client != nil {
			l.encoder = client
		}
	}
}

// WithEncoderBinary points the default encoder at a specific lame binary
// instead of whatever is on PATH.
func WithEncoderBinary(path string) Option {
	return func(l *Library) {
		l.encoderOpts = append(l.encoderOpts, lame.WithBinary(path))
	}
}

// WithEncoderWorkers overrides the default one-worker-per-CPU split.
func WithEncoderWorkers(n int) Option {
	return func(l *Library) {
		l.encoderOpts = append(l.encoderOpts, lame.WithWorkers(n))
	}
}
