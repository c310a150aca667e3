// Command sonido-tuner is a terminal guitar tuner: it captures audio from an
// input device, runs pitch detection and stabilization, and prints the
// detected note with its cents deviation. Optional feedback modes play a
// reference tone, a drone, the full tuning as a chord, or monitor the input.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
	"github.com/RyanBlaney/sonido-tuner/algorithms/stabilize"
	"github.com/RyanBlaney/sonido-tuner/audio"
	"github.com/RyanBlaney/sonido-tuner/engine"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/synth"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

func main() {
	listDevices := flag.Bool("list-devices", false, "list audio devices and exit")
	inputID := flag.Int("input", -1, "input device id (-1 = system default)")
	outputID := flag.Int("output", -1, "output device id (-1 = system default)")
	method := flag.String("method", "hybrid", "pitch detection method: yin, mpm, hybrid")
	stabilizerName := flag.String("stabilizer", "hybrid", "stabilizer: none, ema, median, hybrid")
	bufferSize := flag.Int("buffer", 2048, "analysis window size in samples")
	sampleRate := flag.Float64("rate", audio.DefaultSampleRate, "sample rate in Hz")
	tuningName := flag.String("tuning", "standard", "tuning: chromatic, standard, dropd, dropc, dadgad, openg, opend")
	referencePitch := flag.Float64("a4", tuning.DefaultReferencePitch, "A4 reference pitch in Hz (430-450)")
	monitor := flag.Bool("monitor", false, "play the input signal back (digital amp)")
	drone := flag.Bool("drone", false, "play a continuous drone at the reference frequency")
	droneFreq := flag.Float64("drone-freq", 440.0, "drone/reference tone frequency in Hz")
	chord := flag.Bool("chord", false, "play all six target strings of the tuning")
	gain := flag.Float64("gain", 1.0, "input gain")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logging.SetLevel(logging.DebugLevel)
	} else {
		logging.SetLevel(logging.WarnLevel)
	}

	if err := audio.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize audio backend: %v\n", err)
		os.Exit(1)
	}
	defer audio.Terminate()

	if *listDevices {
		printDevices()
		return
	}

	mode, err := parseTuningMode(*tuningName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pitchMethod, err := parseMethod(*method)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	stabilizerType, err := parseStabilizer(*stabilizerName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	cfg.SampleRate = *sampleRate
	cfg.BufferSize = *bufferSize
	cfg.Pitch = pitch.DefaultConfig(*bufferSize)
	cfg.Pitch.Method = pitchMethod
	cfg.Stabilizer.Type = stabilizerType
	cfg.Feedback.InputGain = *gain
	cfg.Feedback.EnableInputMonitoring = *monitor
	cfg.Feedback.EnableDrone = *drone
	cfg.Feedback.ReferenceFrequency = *droneFreq
	cfg.Feedback.EnablePolyphonic = *chord

	eng, err := engine.New(cfg, audio.NewInputDevice(), audio.NewOutputDevice())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create engine: %v\n", err)
		os.Exit(1)
	}
	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start audio: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	if *inputID >= 0 {
		if err := eng.SwitchInputDevice(*inputID); err != nil {
			fmt.Fprintf(os.Stderr, "input device switch failed: %v\n", err)
		}
	}
	if *outputID >= 0 {
		if err := eng.SwitchOutputDevice(*outputID); err != nil {
			fmt.Fprintf(os.Stderr, "output device switch failed: %v\n", err)
		}
	}

	if *chord {
		preset := tuning.GetPreset(mode, *referencePitch)
		var voices [synth.MaxVoices]float64
		copy(voices[:], preset.TargetFrequencies[:])
		eng.SetPolyphonicFrequencies(voices)
	}

	fmt.Printf("sonido-tuner  |  %s  |  A4 = %.1f Hz  |  %s + %s\n",
		mode, *referencePitch, pitchMethod, stabilizerType)
	fmt.Println("Press Ctrl+C to quit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Println()
			return
		case <-ticker.C:
			printStatus(eng, mode, *referencePitch)
		}
	}
}

func printStatus(eng *engine.Engine, mode tuning.Mode, referencePitch float64) {
	result, detected := eng.LatestPitch()
	level := eng.InputLevel()

	if eng.CheckBufferOverflow() {
		logging.Warn("input buffer overflow, samples dropped")
	}

	if !detected || result.Frequency <= 0 {
		fmt.Printf("\r%-70s", fmt.Sprintf("listening...  level %s", levelBar(level)))
		return
	}

	note, ok := tuning.FrequencyToNote(result.Frequency, referencePitch)
	if !ok {
		return
	}

	target := ""
	if idx, found := tuning.ClosestString(mode, result.Frequency, referencePitch, tuning.ClosestStringToleranceCents); found {
		target = tuning.StringName(idx, mode, referencePitch)
	}

	state := fmt.Sprintf("%+5.1f cents", note.Cents)
	if note.InTune {
		state = "in tune"
	}

	fmt.Printf("\r%-70s", fmt.Sprintf("%7.2f Hz  %-4s %-12s %-22s level %s",
		result.Frequency, note.Name, state, target, levelBar(level)))
}

func levelBar(rms float64) string {
	const width = 10
	filled := int(rms * 3 * width)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func printDevices() {
	devices, err := audio.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enumerate devices: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Available audio devices (%d found):\n", len(devices))
	for _, d := range devices {
		marks := ""
		if d.IsDefaultInput {
			marks += " [default input]"
		}
		if d.IsDefaultOutput {
			marks += " [default output]"
		}
		fmt.Printf("  [%d] %s - %d in / %d out @ %.0f Hz%s\n",
			d.ID, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate, marks)
	}
}

func parseTuningMode(name string) (tuning.Mode, error) {
	switch strings.ToLower(name) {
	case "chromatic":
		return tuning.Chromatic, nil
	case "standard":
		return tuning.Standard, nil
	case "dropd":
		return tuning.DropD, nil
	case "dropc":
		return tuning.DropC, nil
	case "dadgad":
		return tuning.DADGAD, nil
	case "openg":
		return tuning.OpenG, nil
	case "opend":
		return tuning.OpenD, nil
	default:
		return tuning.Chromatic, fmt.Errorf("unknown tuning %q", name)
	}
}

func parseMethod(name string) (pitch.Method, error) {
	switch strings.ToLower(name) {
	case "yin":
		return pitch.MethodYIN, nil
	case "mpm":
		return pitch.MethodMPM, nil
	case "hybrid":
		return pitch.MethodHybrid, nil
	default:
		return pitch.MethodHybrid, fmt.Errorf("unknown pitch method %q", name)
	}
}

func parseStabilizer(name string) (stabilize.Type, error) {
	switch strings.ToLower(name) {
	case "none":
		return stabilize.TypeNone, nil
	case "ema":
		return stabilize.TypeEMA, nil
	case "median":
		return stabilize.TypeMedian, nil
	case "hybrid":
		return stabilize.TypeHybrid, nil
	default:
		return stabilize.TypeHybrid, fmt.Errorf("unknown stabilizer %q", name)
	}
}
