package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// makePCM builds a PCM16 byte buffer of n samples at constant amplitude.
func makePCM(n int, amplitude int16) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(amplitude))
	}
	return data
}

func TestSegmenter_Add(t *testing.T) {
	seg := newSegmenter(segmentDuration, minFlushDuration)
	segmentBytes := seg.segmentBytes

	tests := []struct {
		name         string
		frames       [][]byte
		wantSegments int
		wantBuffered int
	}{
		{
			name:         "below threshold buffers",
			frames:       [][]byte{makePCM(sampleRate, 100)}, // 1 s
			wantSegments: 0,
			wantBuffered: sampleRate * 2,
		},
		{
			name:         "exact threshold yields one segment",
			frames:       [][]byte{makePCM(sampleRate, 100)}, // 1 more s
			wantSegments: 1,
			wantBuffered: 0,
		},
		{
			name:         "oversized frame yields multiple segments",
			frames:       [][]byte{makePCM(5*sampleRate, 100)}, // 5 s
			wantSegments: 2,
			wantBuffered: sampleRate * 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var segments [][]byte
			for _, f := range tt.frames {
				segments = append(segments, seg.add(f)...)
			}
			if len(segments) != tt.wantSegments {
				t.Fatalf("segments = %d, want %d", len(segments), tt.wantSegments)
			}
			for i, s := range segments {
				if len(s) != segmentBytes {
					t.Errorf("segment %d size = %d, want %d", i, len(s), segmentBytes)
				}
			}
			if len(seg.buf) != tt.wantBuffered {
				t.Errorf("buffered = %d, want %d", len(seg.buf), tt.wantBuffered)
			}
		})
	}
}

func TestSegmenter_Flush(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		want    bool
	}{
		{"short remainder discarded", sampleRate / 4, false}, // 0.25 s
		{"long remainder flushed", sampleRate, true},         // 1 s
		{"empty buffer", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := newSegmenter(segmentDuration, minFlushDuration)
			if tt.samples > 0 {
				seg.add(makePCM(tt.samples, 100))
			}

			remainder := seg.flush()
			if got := remainder != nil; got != tt.want {
				t.Fatalf("flush() != nil is %v, want %v", got, tt.want)
			}
			if tt.want && len(remainder) != tt.samples*2 {
				t.Errorf("remainder size = %d, want %d", len(remainder), tt.samples*2)
			}
			if len(seg.buf) != 0 {
				t.Errorf("buffer not cleared after flush: %d bytes", len(seg.buf))
			}
		})
	}
}

func TestRunSegments(t *testing.T) {
	loud := int16(8000) // well above the silence gate

	frames := make(chan []byte, 8)
	frames <- makePCM(2*sampleRate, loud) // one full segment
	frames <- makePCM(sampleRate, loud)   // 1 s remainder, flushed at close
	close(frames)

	out := make(chan Result, resultCapacity)
	calls := 0
	go runSegments(context.Background(), frames, out, "fake", func(samples []float32) (string, error) {
		calls++
		if calls == 1 {
			return "hello", nil
		}
		return "world", nil
	})

	var results []Result
	for r := range out {
		results = append(results, r)
	}

	if len(results) != 2 {
		t.Fatalf("results = %v, want 2 finals", results)
	}
	for i, want := range []string{"hello", "world"} {
		if results[i].Text != want || !results[i].Final {
			t.Errorf("result %d = %+v, want final %q", i, results[i], want)
		}
	}
}

func TestRunSegments_SkipsSilence(t *testing.T) {
	frames := make(chan []byte, 4)
	frames <- makePCM(2*sampleRate, 0) // all-silence segment
	close(frames)

	out := make(chan Result, resultCapacity)
	called := false
	go runSegments(context.Background(), frames, out, "fake", func(samples []float32) (string, error) {
		called = true
		return "should not happen", nil
	})

	for range out {
		t.Error("unexpected result for silent segment")
	}
	if called {
		t.Error("transcribe called for silent segment")
	}
}

func TestRunSegments_RecoversFromErrors(t *testing.T) {
	loud := int16(8000)

	frames := make(chan []byte, 8)
	frames <- makePCM(2*sampleRate, loud)
	frames <- makePCM(2*sampleRate, loud)
	close(frames)

	out := make(chan Result, resultCapacity)
	calls := 0
	go runSegments(context.Background(), frames, out, "fake", func(samples []float32) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("decode failed")
		}
		return "recovered", nil
	})

	var results []Result
	for r := range out {
		results = append(results, r)
	}

	if len(results) != 1 || results[0].Text != "recovered" {
		t.Fatalf("results = %v, want single %q", results, "recovered")
	}
	if calls != 2 {
		t.Errorf("transcribe calls = %d, want 2", calls)
	}
}

func TestRunSegments_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []byte)

	out := make(chan Result, resultCapacity)
	go runSegments(ctx, frames, out, "fake", func(samples []float32) (string, error) {
		return "", nil
	})

	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("unexpected result after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("result channel not closed after cancel")
	}
}

func TestPCM16ToFloat32(t *testing.T) {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(data[2:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(data[4:], uint16(int16(-16384)))

	samples := pcm16ToFloat32(data)
	want := []float32{0, 0.5, -0.5}
	if len(samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, samples[i], want[i])
		}
	}
}
