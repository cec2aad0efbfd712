package notifier

import (
	"fmt"
	"sync"

	"github.com/raptorfx/bridge/internal/audio"
	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/logging"
	"github.com/raptorfx/bridge/internal/platform"
)

type player interface {
	Play(path string) error
	Close() error
}

// Chime plays a sound each time a notification is accepted. Plug
// OnAccepted into the notification channel.
type Chime struct {
	sound  string
	device string
	volume float64

	newPlayer  func(device string, volume float64) (player, error)
	player     player
	playerInit sync.Once
	playerErr  error

	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool
}

// NewChime returns a Chime for sound. An empty sound disables playback.
func NewChime(sound, device string, volume float64) *Chime {
	return &Chime{
		sound:  platform.ExpandEnv(sound),
		device: device,
		volume: volume,
		newPlayer: func(device string, volume float64) (player, error) {
			return audio.NewPlayer(device, volume)
		},
	}
}

// OnAccepted plays the sound asynchronously.
func (c *Chime) OnAccepted(d bridge.Delivery) {
	if c.sound == "" {
		return
	}
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		logging.Debug("Skipping sound playback: chime is closing")
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Sound playback panicked: %v", r)
			}
		}()
		c.play(d)
	}()
}

func (c *Chime) initPlayer() error {
	c.playerInit.Do(func() {
		p, err := c.newPlayer(c.device, c.volume)
		if err != nil {
			c.playerErr = fmt.Errorf("init audio player: %w", err)
			return
		}
		c.mu.Lock()
		c.player = p
		c.mu.Unlock()
		if c.device != "" {
			logging.Debug("Audio player initialized with device: %s, volume: %.0f%%", c.device, c.volume*100)
		} else {
			logging.Debug("Audio player initialized with default device, volume: %.0f%%", c.volume*100)
		}
	})
	return c.playerErr
}

func (c *Chime) play(d bridge.Delivery) {
	if !platform.FileExists(c.sound) {
		logging.Warn("Sound file not found: %s", c.sound)
		return
	}
	if err := c.initPlayer(); err != nil {
		logging.Error("Failed to initialize audio player: %v", err)
		return
	}
	if err := c.player.Play(c.sound); err != nil {
		logging.Error("Failed to play sound %s: %v", c.sound, err)
		return
	}
	logging.Debug("Sound played for notification %s", d.ID)
}

// Close waits for playing sounds and releases the audio device.
func (c *Chime) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return nil
	}
	err := c.player.Close()
	c.player = nil
	return err
}
