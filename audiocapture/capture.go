// Package audiocapture provides microphone capture using PortAudio.
package audiocapture

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrNotCapturing is returned when trying to stop while not capturing.
var ErrNotCapturing = errors.New("not capturing audio")

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

const (
	// SampleRate is the capture sample rate. Both Vosk and Whisper expect 16 kHz.
	SampleRate = 16000
	// Channels is the number of capture channels (mono).
	Channels = 1
	// FrameSamples is the number of samples per frame (0.5 s at 16 kHz).
	FrameSamples = 8000
	// FrameBytes is the size of one frame in bytes (16-bit samples).
	FrameBytes = FrameSamples * 2
	// frameCapacity bounds the frame channel (~1 minute of audio).
	// When the consumer falls behind, new frames are dropped rather than
	// blocking the capture loop.
	frameCapacity = 120
)

// Capture owns the microphone device and produces fixed-size raw PCM
// frames (16-bit little-endian mono) on a bounded channel. The channel is
// closed when capture stops or the device fails, which downstream
// consumers treat as end of stream.
type Capture struct {
	mu sync.Mutex

	stream  *portaudio.Stream
	buffer  []int16
	frames  chan []byte
	running bool
	done    chan struct{}

	dropped int
}

// New initializes PortAudio and creates a capture instance.
// Call Close to release PortAudio when done.
func New() (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Capture{
		buffer: make([]int16, FrameSamples),
	}, nil
}

// Start opens the default input device and begins producing frames.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyCapturing
	}

	stream, err := portaudio.OpenDefaultStream(
		Channels,     // input channels
		0,            // output channels
		SampleRate,   // sample rate
		FrameSamples, // frames per buffer
		c.buffer,     // buffer
	)
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	c.stream = stream
	c.frames = make(chan []byte, frameCapacity)
	c.done = make(chan struct{})
	c.running = true
	c.dropped = 0

	go c.captureLoop()

	return nil
}

// Frames returns the channel of PCM frames. The channel is closed on Stop
// or on an unrecoverable device error.
func (c *Capture) Frames() <-chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// captureLoop reads frames from the device until stopped. Reads happen in
// this goroutine, never in the PortAudio callback, so the device callback
// is never stalled by a slow consumer.
func (c *Capture) captureLoop() {
	defer close(c.done)

	for {
		c.mu.Lock()
		running := c.running
		stream := c.stream
		frames := c.frames
		c.mu.Unlock()

		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				// Harmless: the device buffered more than we consumed.
				continue
			}
			c.mu.Lock()
			running = c.running
			c.mu.Unlock()
			if !running {
				return
			}
			slog.Error("audio capture failed, stopping", "error", err)
			go c.Stop()
			return
		}

		frame := make([]byte, FrameBytes)
		for i, s := range c.buffer {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(s))
		}

		select {
		case frames <- frame:
		default:
			// Consumer is behind: drop this frame rather than block.
			c.mu.Lock()
			c.dropped++
			n := c.dropped
			c.mu.Unlock()
			if n%frameCapacity == 1 {
				slog.Warn("audio frames dropped", "total", n)
			}
		}
	}
}

// Stop stops capture and closes the frame channel.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotCapturing
	}
	c.running = false
	stream := c.stream
	c.stream = nil
	frames := c.frames
	c.frames = nil
	done := c.done
	c.mu.Unlock()

	// Wait for captureLoop to observe the stop before closing the stream.
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			slog.Warn("capture loop did not exit in time")
		}
	}

	var err error
	if stream != nil {
		if e := stream.Stop(); e != nil {
			err = e
		}
		stream.Close()
	}
	if frames != nil {
		close(frames)
	}
	return err
}

// IsCapturing returns true if currently capturing audio.
func (c *Capture) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Dropped returns the number of frames dropped due to a slow consumer.
func (c *Capture) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close stops capture and releases PortAudio.
func (c *Capture) Close() error {
	err := c.Stop()
	if errors.Is(err, ErrNotCapturing) {
		err = nil
	}
	if terr := portaudio.Terminate(); terr != nil && err == nil {
		err = terr
	}
	return err
}
