package notify

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.CuePlayer = (*SoundPlayer)(nil)
	_ domain.CuePlayer = (*Silent)(nil)
)

// SoundPlayer plays cues on the system audio device via oto. Play never
// blocks: a new cue cuts off the one still playing.
type SoundPlayer struct {
	ctx  *oto.Context
	log  *logger.Logger
	bank *Bank

	mu     sync.Mutex
	volume float64
	active *oto.Player // currently playing, nil when idle
}

// NewSoundPlayer initialises the audio context. Returns an error if the
// audio device is unavailable.
func NewSoundPlayer(log *logger.Logger) (*SoundPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &SoundPlayer{ctx: ctx, log: log, bank: NewBank(log), volume: 0.5}, nil
}

// SetVolume sets the cue volume, 0.0 to 1.0.
func (p *SoundPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

// SetCoachPack switches the cue files.
func (p *SoundPlayer) SetCoachPack(pack domain.CoachPackConfig) {
	p.bank.SetPack(pack)
}

// Play starts a cue and returns immediately.
func (p *SoundPlayer) Play(ctx context.Context, cue domain.Cue) error {
	pcm, err := p.bank.PCM(cue)
	if err != nil {
		return err
	}

	p.mu.Lock()
	vol := p.volume
	prev := p.active
	player := p.ctx.NewPlayer(bytes.NewReader(scale(pcm, vol)))
	p.active = player
	p.mu.Unlock()

	if prev != nil {
		prev.Pause()
	}
	player.Play()
	p.log.Debug("audio player: cue %s, %d bytes at volume %.2f", cue, len(pcm), vol)

	go p.release(player)
	return nil
}

// release waits for a player to finish or be cut off, then frees it.
func (p *SoundPlayer) release(player *oto.Player) {
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()

	if err := player.Close(); err != nil {
		p.log.Debug("audio player: close: %v", err)
	}
}

// Stop interrupts the cue currently playing, if any.
func (p *SoundPlayer) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

// Silent is a cue player that does nothing. Used when audio is disabled or
// no device is available.
type Silent struct {
	log *logger.Logger
}

// NewSilent creates a silent cue player.
func NewSilent(log *logger.Logger) *Silent {
	return &Silent{log: log}
}

// Play logs the cue and returns.
func (s *Silent) Play(ctx context.Context, cue domain.Cue) error {
	s.log.Debug("silent player: would play %s", cue)
	return nil
}
