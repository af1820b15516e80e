package notify

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Output format shared by synthesised cues and coach pack files.
const (
	SampleRate   = 44100
	ChannelCount = 1
	bitDepth     = 16
)

type tone struct {
	freq float64
	dur  time.Duration
	gap  time.Duration // silence after the tone
}

var cueTones = map[domain.Cue][]tone{
	domain.CueStepAdvance:   {{freq: 1320, dur: 40 * time.Millisecond}},
	domain.CueMetronomeTick: {{freq: 880, dur: 30 * time.Millisecond}},
	domain.CueReminder:      {{freq: 660, dur: 70 * time.Millisecond, gap: 40 * time.Millisecond}, {freq: 990, dur: 70 * time.Millisecond}},
	domain.CueBehindPace: {
		{freq: 440, dur: 120 * time.Millisecond, gap: 60 * time.Millisecond},
		{freq: 330, dur: 160 * time.Millisecond},
	},
}

// Synthesize renders a cue as 16-bit little-endian mono PCM.
func Synthesize(cue domain.Cue) ([]byte, error) {
	tones, ok := cueTones[cue]
	if !ok {
		return nil, fmt.Errorf("cue %q: %w", cue, domain.ErrNotFound)
	}

	var pcm []byte
	for _, t := range tones {
		pcm = append(pcm, sine(t.freq, t.dur)...)
		pcm = append(pcm, make([]byte, samples(t.gap)*2)...)
	}
	return pcm, nil
}

func samples(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}

// sine renders one tone with a short linear fade at both ends so it
// starts and stops without a pop.
func sine(freq float64, d time.Duration) []byte {
	n := samples(d)
	fade := n / 8
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		amp := 0.6
		switch {
		case i < fade:
			amp *= float64(i) / float64(fade)
		case i >= n-fade:
			amp *= float64(n-i) / float64(fade)
		}
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}

// scale applies volume to 16-bit PCM, returning a new buffer.
func scale(pcm []byte, vol float64) []byte {
	vol = math.Max(0, math.Min(1, vol))
	out := make([]byte, len(pcm))
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(float64(s)*vol)))
	}
	return out
}

// Bank resolves cues to PCM: a coach pack file when one is configured,
// otherwise the synthesised tone. Results are cached until the pack
// changes.
type Bank struct {
	log      *logger.Logger
	readFile func(string) ([]byte, error)

	mu    sync.Mutex
	pack  domain.CoachPackConfig
	cache map[domain.Cue][]byte
}

// NewBank creates a bank with no coach pack.
func NewBank(log *logger.Logger) *Bank {
	return &Bank{log: log, readFile: os.ReadFile, cache: make(map[domain.Cue][]byte)}
}

// SetPack installs a coach pack and drops cached audio.
func (b *Bank) SetPack(pack domain.CoachPackConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pack = pack
	b.cache = make(map[domain.Cue][]byte)
}

// PCM returns the audio for cue. A pack file that cannot be used is logged
// and the synthesised tone is used instead.
func (b *Bank) PCM(cue domain.Cue) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pcm, ok := b.cache[cue]; ok {
		return pcm, nil
	}

	if b.pack.Enabled {
		if name, ok := b.pack.Files[string(cue)]; ok && name != "" {
			pcm, err := b.load(filepath.Join(b.pack.BasePath, name))
			if err == nil {
				b.cache[cue] = pcm
				return pcm, nil
			}
			b.log.Warn("coach pack cue %s: %v, using built-in tone", cue, err)
		}
	}

	pcm, err := Synthesize(cue)
	if err != nil {
		return nil, err
	}
	b.cache[cue] = pcm
	return pcm, nil
}

func (b *Bank) load(path string) ([]byte, error) {
	data, err := b.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return extractPCM(data)
}

var (
	errShortWAV    = errors.New("wav data too short")
	errNotWAV      = errors.New("not a valid WAV file")
	errNoData      = errors.New("data chunk not found in WAV")
	errWAVEncoding = errors.New("unsupported WAV encoding")
)

// extractPCM validates a WAV file against the output format and returns
// its raw PCM data.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errShortWAV
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	sawFormat := false
	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(wav) {
				return nil, errShortWAV
			}
			format := binary.LittleEndian.Uint16(wav[body:])
			channels := binary.LittleEndian.Uint16(wav[body+2:])
			rate := binary.LittleEndian.Uint32(wav[body+4:])
			bits := binary.LittleEndian.Uint16(wav[body+14:])
			if format != 1 || channels != ChannelCount || rate != SampleRate || bits != bitDepth {
				return nil, fmt.Errorf("%w: format=%d channels=%d rate=%d bits=%d (want PCM mono %d Hz 16-bit)",
					errWAVEncoding, format, channels, rate, bits, SampleRate)
			}
			sawFormat = true
		case "data":
			if !sawFormat {
				return nil, errWAVEncoding
			}
			end := body + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[body:end], nil
		}

		pos = body + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}
	return nil, errNoData
}
