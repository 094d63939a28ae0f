package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/iburimskiy/scrollwave/internal/config"
	"github.com/iburimskiy/scrollwave/internal/engine"
	"github.com/iburimskiy/scrollwave/internal/game"
	"github.com/iburimskiy/scrollwave/internal/phase"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/sfx"
	"github.com/iburimskiy/scrollwave/internal/synth"
	"github.com/ncruces/zenity"
	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

const offlineFPS = 60

var (
	cfg = config.Default()

	renderProgress float64
	renderSweep    bool
	renderDuration time.Duration
	outputPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scrollwave",
	Short: "Scroll-driven soundtrack and particle field",
	Long: `scrollwave opens a transparent window over the desktop. Scrolling moves
through a virtual page: the beat speeds up from 50 to 150 bpm, the drone
rises and the particles warp as you go down.

Keys: Space start/pause, wheel or arrows scroll, M mute, F click, H HUD,
Esc or Q quit.`,
	Version: version,
	RunE:    runPlay,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the soundtrack to a WAV file without a window",
	Long: `Render the soundtrack offline, either held at one scroll position or
swept from the top of the page to the bottom.

Examples:
  scrollwave render -p 0.5 -d 10s -o mid.wav
  scrollwave render --sweep -d 60s -o full.wav`,
	RunE: runRender,
}

var soundsCmd = &cobra.Command{
	Use:   "sounds [kind]",
	Short: "List the sound events, or render one to a WAV file",
	Long: `Without arguments, list every sound event and its length.
With a kind, render that event alone.

Example:
  scrollwave sounds deep-impact -o impact.wav`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSounds,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (disabled, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate in Hz")
	rootCmd.PersistentFlags().Int64Var(&cfg.Seed, "seed", 0, "Random seed for noise and particles (0: time based)")

	rootCmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "Initial window width")
	rootCmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "Initial window height")
	rootCmd.Flags().DurationVar(&cfg.Buffer, "buffer", cfg.Buffer, "Speaker buffer length")
	rootCmd.Flags().BoolVar(&cfg.StartMuted, "muted", false, "Start muted")
	rootCmd.Flags().BoolVar(&cfg.AskForSound, "ask", cfg.AskForSound, "Ask whether to enter with sound")

	renderCmd.Flags().Float64VarP(&renderProgress, "progress", "p", 0, "Scroll progress to hold (0-1)")
	renderCmd.Flags().BoolVar(&renderSweep, "sweep", false, "Scroll from top to bottom over the duration")
	renderCmd.Flags().DurationVarP(&renderDuration, "duration", "d", 10*time.Second, "Length of the rendering")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "scrollwave.wav", "Output WAV file")
	renderCmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "Viewport height the page is laid out for")

	soundsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV file (default: <kind>.wav)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(soundsCmd)
}

// newLoggers returns a pion logger factory at the named level.
func newLoggers(level string) (*logging.DefaultLoggerFactory, error) {
	levels := map[string]logging.LogLevel{
		"disabled": logging.LogLevelDisabled,
		"error":    logging.LogLevelError,
		"warn":     logging.LogLevelWarn,
		"info":     logging.LogLevelInfo,
		"debug":    logging.LogLevelDebug,
		"trace":    logging.LogLevelTrace,
	}
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = l
	return f, nil
}

func newRand() *rand.Rand {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func wavFormat(sr beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
}

func runPlay(cmd *cobra.Command, args []string) error {
	loggers, err := newLoggers(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := loggers.NewLogger("app")

	muted := cfg.StartMuted
	if cfg.AskForSound && !muted {
		muted = !askForSound(log)
	}

	sr := beep.SampleRate(cfg.SampleRate)
	var ctx *synth.Context
	if err := speaker.Init(sr, sr.N(cfg.Buffer)); err != nil {
		log.Warnf("audio output unavailable: %v", err)
	} else {
		ctx = synth.NewContext(sr)
	}

	eng := engine.New(ctx, engine.Options{
		Loggers:  loggers,
		Timeline: phase.Default(),
		Rand:     newRand(),
		Muted:    muted,
	})
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warnf("close: %v", err)
		}
	}()

	var tap *game.Tap
	if eng.Available() {
		tap = game.NewTap(eng.Output(), config.VisualRingSize)
		speaker.Play(tap)
		defer speaker.Clear()
	}

	return game.Run(game.New(eng, tap, loggers.NewLogger("game")), cfg.Width, cfg.Height)
}

// askForSound shows the entry prompt. Any failure to show it enters with
// sound.
func askForSound(log logging.LeveledLogger) bool {
	err := zenity.Question("Enter with sound?",
		zenity.Title("scrollwave"),
		zenity.OKLabel("With sound"),
		zenity.CancelLabel("Without sound"),
		zenity.QuestionIcon,
	)
	switch {
	case err == nil:
		return true
	case errors.Is(err, zenity.ErrCanceled):
		return false
	default:
		log.Warnf("sound prompt: %v", err)
		return true
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	loggers, err := newLoggers(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := loggers.NewLogger("render")
	if renderDuration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", renderDuration)
	}

	sr := beep.SampleRate(cfg.SampleRate)
	eng := engine.New(synth.NewContext(sr), engine.Options{
		Loggers:  loggers,
		Timeline: phase.Default(),
		Rand:     newRand(),
	})
	defer eng.Close()
	eng.Resize(cfg.Width, cfg.Height)
	if err := eng.Start(); err != nil {
		return err
	}

	scrollable := float64((config.DocumentScreens - 1) * cfg.Height)
	onFrame := func(t float64) {
		p := renderProgress
		if renderSweep {
			p = t / renderDuration.Seconds()
		}
		eng.OnScroll(scroll.Sample{Y: scroll.Clamp01(p) * scrollable, Scrollable: scrollable})
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	s := beep.Take(sr.N(renderDuration), eng.Offline(offlineFPS, onFrame))
	if err := wav.Encode(f, s, wavFormat(sr)); err != nil {
		return fmt.Errorf("encode %s: %w", outputPath, err)
	}
	st := eng.Stats()
	log.Infof("wrote %s: %s, %d beats, ended at %.1f bpm", outputPath, renderDuration, st.Beats, st.Tempo)
	return nil
}

func runSounds(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, k := range sfx.Kinds() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %4.1fs\n", k, k.Duration())
		}
		return nil
	}

	kind, err := sfx.ParseKind(args[0])
	if err != nil {
		return err
	}
	path := outputPath
	if path == "" {
		path = kind.String() + ".wav"
	}

	sr := beep.SampleRate(cfg.SampleRate)
	ctx := synth.NewContext(sr)
	defer ctx.Close()
	if err := ctx.Resume(); err != nil {
		return err
	}
	g := sfx.Graph{Ctx: ctx, Dest: ctx.Destination(), Rand: newRand()}
	if err := sfx.Play(g, kind, 0); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	length := time.Duration((kind.Duration() + 0.2) * float64(time.Second))
	if err := wav.Encode(f, beep.Take(sr.N(length), ctx), wavFormat(sr)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, length)
	return nil
}
