// Package tuning provides guitar tuning presets and equal-temperament note
// math: target frequencies per string, cents deviation, and closest-string
// identification for the tuner display.
package tuning

import (
	"fmt"
	"math"
)

// InTuneThresholdCents is the deviation below which a string counts as in tune
const InTuneThresholdCents = 3.0

// ClosestStringToleranceCents is the widest deviation at which a detected
// frequency is still matched to a target string
const ClosestStringToleranceCents = 25.0

// DefaultReferencePitch is the standard A4 frequency in Hz
const DefaultReferencePitch = 440.0

// StringCount is the number of strings in every preset
const StringCount = 6

// Mode selects a tuning preset
type Mode int

const (
	// Chromatic has no target strings; the display shows the nearest note
	Chromatic Mode = iota
	// Standard is EADGBE
	Standard
	// DropD lowers the 6th string to D2
	DropD
	// DropC is Drop D shifted down a whole step
	DropC
	// DADGAD is the common modal tuning
	DADGAD
	// OpenG sounds a G major chord open
	OpenG
	// OpenD sounds a D major chord open
	OpenD
)

// String returns a human-readable name for the tuning mode
func (m Mode) String() string {
	switch m {
	case Chromatic:
		return "Chromatic"
	case Standard:
		return "Standard (EADGBE)"
	case DropD:
		return "Drop D"
	case DropC:
		return "Drop C"
	case DADGAD:
		return "DADGAD"
	case OpenG:
		return "Open G"
	case OpenD:
		return "Open D"
	default:
		return "Unknown"
	}
}

// Modes lists every available tuning mode
func Modes() []Mode {
	return []Mode{Chromatic, Standard, DropD, DropC, DADGAD, OpenG, OpenD}
}

// Preset holds the calculated targets for all six strings, low E (6th string,
// index 0) to high E (1st string, index 5). Chromatic mode yields zero
// frequencies and empty note names.
type Preset struct {
	Name              string               `json:"name"`
	TargetFrequencies [StringCount]float64 `json:"target_frequencies"`
	NoteNames         [StringCount]string  `json:"note_names"`
}

// definition pairs note names with octaves; frequencies come from the
// reference pitch at preset build time
type definition struct {
	notes   [StringCount]string
	octaves [StringCount]int
}

var definitions = map[Mode]definition{
	Standard: {[StringCount]string{"E", "A", "D", "G", "B", "E"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
	DropD:    {[StringCount]string{"D", "A", "D", "G", "B", "E"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
	DropC:    {[StringCount]string{"C", "G", "C", "F", "A", "D"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
	DADGAD:   {[StringCount]string{"D", "A", "D", "G", "A", "D"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
	OpenG:    {[StringCount]string{"D", "G", "D", "G", "B", "D"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
	OpenD:    {[StringCount]string{"D", "A", "D", "F#", "A", "D"}, [StringCount]int{2, 2, 3, 3, 3, 4}},
}

// GetPreset calculates the preset for a mode at the given A4 reference pitch.
// Unknown modes fall back to Chromatic.
func GetPreset(mode Mode, referencePitch float64) Preset {
	def, ok := definitions[mode]
	if !ok {
		return Preset{Name: Chromatic.String()}
	}

	p := Preset{Name: mode.String()}
	for i := 0; i < StringCount; i++ {
		p.TargetFrequencies[i] = NoteToFrequency(def.notes[i], def.octaves[i], referencePitch)
		p.NoteNames[i] = fmt.Sprintf("%s%d", def.notes[i], def.octaves[i])
	}
	return p
}

// AllPresets calculates every preset at the given reference pitch
func AllPresets(referencePitch float64) []Preset {
	modes := Modes()
	presets := make([]Preset, 0, len(modes))
	for _, m := range modes {
		presets = append(presets, GetPreset(m, referencePitch))
	}
	return presets
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var semitoneByName = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
	"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

// NoteToFrequency converts a note name and octave to its equal-temperament
// frequency at the given A4 reference pitch. Unknown names return 0.
func NoteToFrequency(name string, octave int, referencePitch float64) float64 {
	semitone, ok := semitoneByName[name]
	if !ok {
		return 0
	}
	midi := (octave+1)*12 + semitone
	return referencePitch * math.Pow(2, float64(midi-69)/12.0)
}

// FrequencyToCents returns the signed deviation of frequency from target in
// cents. Positive means sharp.
func FrequencyToCents(frequency, target float64) float64 {
	if frequency <= 0 || target <= 0 {
		return 0
	}
	return 1200.0 * math.Log2(frequency/target)
}

// Note is the nearest equal-temperament note to a detected frequency
type Note struct {
	Name   string  `json:"name"`   // e.g. "E2"
	Cents  float64 `json:"cents"`  // signed deviation from the note center
	InTune bool    `json:"in_tune"`
}

// FrequencyToNote maps a frequency to the nearest note at the given A4
// reference pitch
func FrequencyToNote(frequency, referencePitch float64) (Note, bool) {
	if frequency <= 0 {
		return Note{}, false
	}
	exact := 69.0 + 12.0*math.Log2(frequency/referencePitch)
	midi := int(math.Round(exact))
	if midi < 0 || midi > 127 {
		return Note{}, false
	}

	center := referencePitch * math.Pow(2, float64(midi-69)/12.0)
	cents := FrequencyToCents(frequency, center)
	name := fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
	return Note{
		Name:   name,
		Cents:  cents,
		InTune: math.Abs(cents) <= InTuneThresholdCents,
	}, true
}

// ClosestString finds which string of the preset a detected frequency is
// nearest to, within toleranceCents. The second return is false in Chromatic
// mode or when no string is close enough.
func ClosestString(mode Mode, frequency, referencePitch, toleranceCents float64) (int, bool) {
	if mode == Chromatic {
		return 0, false
	}

	preset := GetPreset(mode, referencePitch)
	closest := -1
	minCents := toleranceCents
	for i, target := range preset.TargetFrequencies {
		cents := math.Abs(FrequencyToCents(frequency, target))
		if cents < minCents {
			minCents = cents
			closest = i
		}
	}
	if closest < 0 {
		return 0, false
	}
	return closest, true
}

// StringName formats a string index for display, e.g. "6th String (E2)".
// Index 0 is the low 6th string, index 5 the high 1st.
func StringName(index int, mode Mode, referencePitch float64) string {
	if index < 0 || index >= StringCount {
		return "Unknown String"
	}

	preset := GetPreset(mode, referencePitch)
	display := StringCount - index
	note := preset.NoteNames[index]
	if note == "" {
		return fmt.Sprintf("%dth String", display)
	}

	suffix := "th"
	switch display {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s String (%s)", display, suffix, note)
}
