package stt

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"time"
)

const (
	// sampleRate is the expected input rate for all engines.
	sampleRate = 16000
	// bytesPerSecond of 16-bit mono PCM at sampleRate.
	bytesPerSecond = sampleRate * 2

	// segmentDuration is how much audio is buffered before recognition
	// runs over the segment (latency vs accuracy balance).
	segmentDuration = 2 * time.Second
	// minFlushDuration is the minimum trailing audio worth recognizing
	// at end of stream; shorter remainders are discarded.
	minFlushDuration = 500 * time.Millisecond

	// silenceRMS gates out segments with no speech energy, so the model
	// is not invoked on silence.
	silenceRMS = 0.015
)

// segmenter accumulates PCM bytes into fixed-duration segments for
// engines that have no streaming decoder of their own.
type segmenter struct {
	buf          []byte
	segmentBytes int
	minBytes     int
}

func newSegmenter(segment, minFlush time.Duration) *segmenter {
	segmentBytes := int(segment.Seconds() * bytesPerSecond)
	return &segmenter{
		buf:          make([]byte, 0, 2*segmentBytes),
		segmentBytes: segmentBytes,
		minBytes:     int(minFlush.Seconds() * bytesPerSecond),
	}
}

// add appends a frame and returns any completed segments.
func (s *segmenter) add(frame []byte) [][]byte {
	s.buf = append(s.buf, frame...)

	var segments [][]byte
	for len(s.buf) >= s.segmentBytes {
		segment := make([]byte, s.segmentBytes)
		copy(segment, s.buf)
		s.buf = s.buf[:copy(s.buf, s.buf[s.segmentBytes:])]
		segments = append(segments, segment)
	}
	return segments
}

// flush returns the buffered remainder when it is long enough to be worth
// recognizing, or nil. The buffer is cleared either way.
func (s *segmenter) flush() []byte {
	defer func() { s.buf = s.buf[:0] }()

	if len(s.buf) < s.minBytes {
		return nil
	}
	remainder := make([]byte, len(s.buf))
	copy(remainder, s.buf)
	return remainder
}

// transcribeFunc recognizes one segment of samples and returns its text.
type transcribeFunc func(samples []float32) (string, error)

// runSegments drives a segment-buffered engine: frames are accumulated
// into segments, silent segments are skipped, and each recognized segment
// yields exactly one final result. No partials are ever produced.
func runSegments(ctx context.Context, frames <-chan []byte, out chan<- Result, name string, transcribe transcribeFunc) {
	defer close(out)

	seg := newSegmenter(segmentDuration, minFlushDuration)

	emit := func(segment []byte) {
		samples := pcm16ToFloat32(segment)
		if rms(samples) < silenceRMS {
			return
		}
		text, err := transcribe(samples)
		if err != nil {
			// One failed segment must not stop the stream.
			slog.Error("segment recognition failed", "engine", name, "error", err)
			return
		}
		if text != "" {
			sendFinal(ctx, out, text)
		}
	}

	for {
		var frame []byte
		var ok bool
		select {
		case <-ctx.Done():
			return
		case frame, ok = <-frames:
		}
		if !ok {
			break
		}
		if len(frame) == 0 {
			continue
		}
		for _, segment := range seg.add(frame) {
			emit(segment)
		}
	}

	if remainder := seg.flush(); remainder != nil {
		emit(remainder)
	}
}

// pcm16ToFloat32 converts raw little-endian PCM16 bytes to float32
// samples in [-1, 1].
func pcm16ToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
	}
	return samples
}

// rms calculates the root mean square of audio samples.
func rms(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
