package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raptorfx/bridge/internal/audio"
	"github.com/raptorfx/bridge/internal/backends"
	"github.com/raptorfx/bridge/internal/platform"
	"github.com/raptorfx/bridge/internal/sounds"
)

func newSoundsCmd(c *cli) *cobra.Command {
	var (
		play        string
		volume      float64
		device      string
		dir         string
		noSystem    bool
		listDevices bool
	)
	cmd := &cobra.Command{
		Use:   "sounds",
		Short: "List notification sounds and optionally play one",
		Long: `List the notification sounds available on this machine: files in
<local storage>/sounds first, then the OS's system sounds.

Any listed name can be used as notifications.sound in the config.`,
		Example: `  raptorfx sounds
  raptorfx sounds --json
  raptorfx sounds --play Glass --volume 0.5
  raptorfx sounds --devices`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if listDevices {
				return c.printDevices(out)
			}
			if volume < 0.0 || volume > 1.0 {
				return fmt.Errorf("volume must be between 0.0 and 1.0 (got %.2f)", volume)
			}

			opts, err := c.soundSources(dir, !noSystem)
			if err != nil {
				return err
			}
			available := sounds.Discover(opts)

			if play != "" {
				s, found := sounds.FindByName(play, available)
				if !found {
					return fmt.Errorf("sound %q not found", play)
				}
				fmt.Fprintf(out, "Playing: %s (volume: %d%%)\n", s.Name, int(volume*100))
				return playSound(s.Path, device, volume)
			}

			if available == nil {
				available = []sounds.SoundInfo{}
			}
			return c.emit(out, available, func(w io.Writer) { printSounds(w, available) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&play, "play", "", "play a sound by name")
	f.Float64Var(&volume, "volume", 0.3, "playback volume (0.0 to 1.0)")
	f.StringVar(&device, "device", "", "audio output device (default: system default)")
	f.StringVar(&dir, "dir", "", "user sound directory (default: <local storage>/sounds)")
	f.BoolVar(&noSystem, "no-system", false, "skip the OS's system sounds")
	f.BoolVar(&listDevices, "devices", false, "list audio output devices instead of sounds")
	return cmd
}

func (c *cli) soundSources(dir string, system bool) (sounds.DiscoverOptions, error) {
	desc := platform.NewDescriptor(
		platform.WithAppName(c.cfg.App.Name),
		platform.WithPackageID(c.cfg.App.PackageID),
	)
	if !platform.SetProcess(desc) {
		desc = platform.Process()
	}
	info, err := desc.Resolve()
	if err != nil {
		return sounds.DiscoverOptions{}, err
	}
	opts := backends.SoundSources(info)
	if dir != "" {
		opts.UserDir = dir
		opts.IncludeUser = true
	}
	opts.IncludeSystem = system
	return opts, nil
}

func playSound(path, device string, volume float64) error {
	player, err := audio.NewPlayer(device, volume)
	if err != nil {
		return fmt.Errorf("create audio player: %w", err)
	}
	defer player.Close()
	return player.Play(path)
}

func (c *cli) printDevices(w io.Writer) error {
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return errors.New("no audio output devices found")
	}
	return c.emit(w, devices, func(w io.Writer) {
		for _, d := range devices {
			marker := " "
			if d.IsDefault {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s\n", marker, d.Name)
		}
	})
}

func printSounds(w io.Writer, available []sounds.SoundInfo) {
	if len(available) == 0 {
		fmt.Fprintln(w, "No sounds found.")
		return
	}

	var user, system []sounds.SoundInfo
	for _, s := range available {
		switch s.Source {
		case sounds.SourceUser:
			user = append(user, s)
		case sounds.SourceSystem:
			system = append(system, s)
		}
	}

	section := func(title string, list []sounds.SoundInfo) {
		fmt.Fprintln(w, title)
		fmt.Fprintln(w)
		for _, s := range list {
			desc := ""
			if s.Description != "" {
				desc = " - " + s.Description
			}
			fmt.Fprintf(w, "  %s.%s%s\n", s.Name, s.Format, desc)
		}
		fmt.Fprintln(w)
	}
	if len(user) > 0 {
		section("User sounds:", user)
	}
	if len(system) > 0 {
		section("System sounds:", system)
	}

	fmt.Fprintln(w, "To use a sound, set it in raptorfx.yaml:")
	fmt.Fprintln(w, "  notifications:")
	fmt.Fprintln(w, "    sound: <name or path>")
}
