package preview

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Player drives a WaveformSource through the system audio device.
type Player struct {
	player *ebitaudio.Player
	source *WaveformSource
}

// ebiten allows exactly one audio context per process; audioContext is
// that process-wide singleton, created lazily at whatever rate the first
// Player asks for.
var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioContextRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextRate != sampleRate {
		return nil, fmt.Errorf("preview: audio context already initialized at %d Hz (requested %d Hz)", audioContextRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a Player streaming source at audioRate samples/sec. Only
// one audioRate may be used per process, matching ebiten's single shared
// audio context.
func NewPlayer(audioRate int, source *WaveformSource) (*Player, error) {
	ctx, err := sharedContext(audioRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(source)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, source: source}, nil
}

func (p *Player) Play()                   { p.player.Play() }
func (p *Player) Pause()                  { p.player.Pause() }
func (p *Player) IsPlaying() bool         { return p.player.IsPlaying() }
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.source.Close()
}
