// Command pulsegen compiles a declarative schedule fixture into per-channel
// IQ waveforms and either dumps summary statistics or plays one channel back
// through the system audio device for debugging.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/arborwave/pulsegen/internal/preview"
	"github.com/arborwave/pulsegen/internal/pulsegen"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	switch os.Args[1] {
	case "compile":
		runCompile(logger, os.Args[2:])
	case "preview":
		runPreview(logger, os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pulsegen <compile|preview> [flags]")
}

func runCompile(logger *log.Logger, args []string) {
	fs := pflag.NewFlagSet("compile", pflag.ExitOnError)
	fixturePath := fs.StringP("fixture", "f", "", "path to a YAML schedule fixture (required)")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	fs.Parse(args)

	if *fixturePath == "" {
		logger.Fatal("compile: --fixture is required")
	}
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	out, err := compile(*fixturePath, logger)
	if err != nil {
		logger.Fatal("compile failed", "err", err)
	}
	for name, wf := range out {
		logger.Info("channel compiled", "name", name, "samples", len(wf.I), "complex", wf.Q != nil)
	}
}

func runPreview(logger *log.Logger, args []string) {
	fs := pflag.NewFlagSet("preview", pflag.ExitOnError)
	fixturePath := fs.StringP("fixture", "f", "", "path to a YAML schedule fixture (required)")
	channel := fs.StringP("channel", "c", "", "channel name to play back (required)")
	audioRate := fs.IntP("audio-rate", "r", 48000, "audio device sample rate")
	loop := fs.BoolP("loop", "l", false, "loop playback until interrupted")
	durationSec := fs.Float64P("duration", "d", 3, "seconds to play before exiting (ignored when looping)")
	fs.Parse(args)

	if *fixturePath == "" || *channel == "" {
		logger.Fatal("preview: --fixture and --channel are required")
	}

	f, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Fatal("preview failed", "err", err)
	}
	out, err := compile(*fixturePath, logger)
	if err != nil {
		logger.Fatal("preview failed", "err", err)
	}
	wf, ok := out[*channel]
	if !ok {
		logger.Fatal("preview: no such channel", "channel", *channel)
	}

	var sourceRate float64
	for _, c := range f.Channels {
		if c.Name == *channel {
			sourceRate = c.SampleRate
		}
	}

	src := preview.NewWaveformSource(wf, sourceRate, float64(*audioRate), *loop)
	player, err := preview.NewPlayer(*audioRate, src)
	if err != nil {
		logger.Fatal("preview: opening audio device", "err", err)
	}
	logger.Info("playing", "channel", *channel, "audio_rate", *audioRate, "loop", *loop)
	player.Play()
	if *loop {
		select {}
	}
	time.Sleep(time.Duration(*durationSec * float64(time.Second)))
	_ = player.Stop()
}

func compile(fixturePath string, logger *log.Logger) (map[string]pulsegen.Waveform, error) {
	f, err := loadFixture(fixturePath)
	if err != nil {
		return nil, err
	}
	channels := f.buildChannels()
	shapes, err := f.buildShapes()
	if err != nil {
		return nil, err
	}
	root, err := buildNode(f.Schedule)
	if err != nil {
		return nil, fmt.Errorf("pulsegen: building schedule: %w", err)
	}
	logger.Debug("schedule built", "channels", len(channels), "shapes", len(shapes))
	return pulsegen.Generate(channels, shapes, root, f.buildOptions())
}
