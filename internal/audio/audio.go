// Package audio plays notification sounds through miniaudio (malgo).
// MP3, WAV, FLAC and OGG are decoded with beep; AIFF with go-audio.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// DeviceInfo describes a playback device.
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// Player plays sound files on one output device.
type Player struct {
	ctx        *malgo.AllocatedContext
	deviceID   *malgo.DeviceID
	deviceName string
	volume     float64

	mu     sync.Mutex
	closed bool
}

func initContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	return ctx, nil
}

// ListDevices returns the playback devices.
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{Name: info.Name(), IsDefault: info.IsDefault != 0})
	}
	return devices, nil
}

// NewPlayer opens deviceName ("" for the system default) at the given
// volume (0.0 to 1.0).
func NewPlayer(deviceName string, volume float64) (*Player, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	p := &Player{ctx: ctx, deviceName: deviceName, volume: clampVolume(volume)}

	if deviceName != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		for i := range infos {
			if infos[i].Name() == deviceName {
				id := infos[i].ID
				p.deviceID = &id
				break
			}
		}
		if p.deviceID == nil {
			p.Close()
			return nil, fmt.Errorf("audio device not found: %s", deviceName)
		}
	}
	return p, nil
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Play decodes path and blocks until playback finished.
func (p *Player) Play(path string) error {
	p.mu.Lock()
	closed := p.closed || p.ctx == nil
	p.mu.Unlock()
	if closed {
		return errors.New("player is closed")
	}

	clip, err := decodeFile(path)
	if err != nil {
		return err
	}
	applyVolume(clip.samples, p.volume)
	return p.play(clip)
}

type pcm struct {
	samples    []int16 // interleaved
	channels   int
	sampleRate int
}

func (c pcm) duration() time.Duration {
	frames := len(c.samples) / c.channels
	return time.Duration(frames) * time.Second / time.Duration(c.sampleRate)
}

func (p *Player) play(clip pcm) error {
	data := samplesToBytes(clip.samples)
	frameSize := 2 * clip.channels

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(clip.channels)
	cfg.SampleRate = uint32(clip.sampleRate)
	if p.deviceID != nil {
		cfg.Playback.DeviceID = p.deviceID.Pointer()
	}

	var (
		offset   int
		finished = make(chan struct{})
		once     sync.Once
	)
	onSamples := func(out, _ []byte, frames uint32) {
		want := min(int(frames)*frameSize, len(out))
		n := copy(out[:want], data[offset:])
		offset += n
		for i := n; i < want; i++ {
			out[i] = 0
		}
		if offset >= len(data) {
			once.Do(func() { close(finished) })
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("failed to init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	select {
	case <-finished:
		// Let the last period drain.
		time.Sleep(50 * time.Millisecond)
	case <-time.After(clip.duration() + 2*time.Second):
		return errors.New("playback timed out")
	}
	return nil
}

// Close releases the audio context. Safe to call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.ctx == nil {
		p.closed = true
		return nil
	}
	p.closed = true
	err := p.ctx.Uninit()
	p.ctx.Free()
	p.ctx = nil
	return err
}

func decodeFile(path string) (pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return pcm{}, fmt.Errorf("failed to open sound: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".aiff", ".aif":
		defer f.Close()
		return decodeAIFF(f)
	case ".mp3":
		s, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
		}
		return drain(s, format, err)
	case ".wav":
		defer f.Close()
		s, format, err := wav.Decode(f)
		return drain(s, format, err)
	case ".flac":
		defer f.Close()
		s, format, err := flac.Decode(f)
		return drain(s, format, err)
	case ".ogg", ".oga":
		s, format, err := vorbis.Decode(f)
		if err != nil {
			f.Close()
		}
		return drain(s, format, err)
	default:
		f.Close()
		return pcm{}, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

// drain reads a beep stream to the end as interleaved stereo S16.
func drain(s beep.StreamSeekCloser, format beep.Format, err error) (pcm, error) {
	if err != nil {
		return pcm{}, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer s.Close()

	var out []int16
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, floatToS16(frame[0]), floatToS16(frame[1]))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil && !errors.Is(err, io.EOF) {
		return pcm{}, fmt.Errorf("failed to decode sound: %w", err)
	}
	if len(out) == 0 {
		return pcm{}, errors.New("sound file is empty")
	}
	return pcm{samples: out, channels: 2, sampleRate: int(format.SampleRate)}, nil
}

func floatToS16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}

func decodeAIFF(r io.ReadSeeker) (pcm, error) {
	d := aiff.NewDecoder(r)
	if !d.IsValidFile() {
		return pcm{}, errors.New("invalid AIFF file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("failed to decode AIFF: %w", err)
	}
	channels := int(d.NumChans)
	if channels <= 0 {
		channels = 1
	}
	return pcm{
		samples:    intBufferToSamples(buf, int(d.BitDepth)),
		channels:   channels,
		sampleRate: d.SampleRate,
	}, nil
}

// intBufferToSamples converts integer PCM of the given bit depth to S16.
// Unknown depths are treated as 16-bit.
func intBufferToSamples(buf *audio.IntBuffer, bitDepth int) []int16 {
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch bitDepth {
		case 8:
			out[i] = int16(v << 8)
		case 24:
			out[i] = int16(v >> 8)
		case 32:
			out[i] = int16(v >> 16)
		default:
			out[i] = int16(v)
		}
	}
	return out
}

func applyVolume(samples []int16, volume float64) {
	if volume >= 1 {
		return
	}
	for i, s := range samples {
		samples[i] = int16(float64(s) * volume)
	}
}

// samplesToBytes encodes S16 samples little-endian.
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
