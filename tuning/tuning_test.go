package tuning

import (
	"math"
	"testing"
)

func TestStandardPresetFrequencies(t *testing.T) {
	preset := GetPreset(Standard, DefaultReferencePitch)

	wantFreqs := []float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}
	wantNames := []string{"E2", "A2", "D3", "G3", "B3", "E4"}
	for i := range wantFreqs {
		if math.Abs(preset.TargetFrequencies[i]-wantFreqs[i]) > 0.01 {
			t.Errorf("string %d = %.3f Hz, want %.2f", i, preset.TargetFrequencies[i], wantFreqs[i])
		}
		if preset.NoteNames[i] != wantNames[i] {
			t.Errorf("string %d name = %q, want %q", i, preset.NoteNames[i], wantNames[i])
		}
	}
}

func TestDropDLowersSixthString(t *testing.T) {
	preset := GetPreset(DropD, DefaultReferencePitch)
	if math.Abs(preset.TargetFrequencies[0]-73.42) > 0.01 {
		t.Errorf("drop D low string = %.3f Hz, want 73.42", preset.TargetFrequencies[0])
	}
	// The other five strings match standard
	std := GetPreset(Standard, DefaultReferencePitch)
	for i := 1; i < StringCount; i++ {
		if preset.TargetFrequencies[i] != std.TargetFrequencies[i] {
			t.Errorf("string %d differs from standard", i)
		}
	}
}

func TestChromaticHasNoTargets(t *testing.T) {
	preset := GetPreset(Chromatic, DefaultReferencePitch)
	for i := 0; i < StringCount; i++ {
		if preset.TargetFrequencies[i] != 0 || preset.NoteNames[i] != "" {
			t.Errorf("chromatic string %d has target %v %q", i,
				preset.TargetFrequencies[i], preset.NoteNames[i])
		}
	}
}

func TestReferencePitchScalesPreset(t *testing.T) {
	at440 := GetPreset(Standard, 440.0)
	at432 := GetPreset(Standard, 432.0)

	ratio := 432.0 / 440.0
	for i := 0; i < StringCount; i++ {
		want := at440.TargetFrequencies[i] * ratio
		if math.Abs(at432.TargetFrequencies[i]-want) > 0.01 {
			t.Errorf("string %d at A4=432: %.3f, want %.3f", i, at432.TargetFrequencies[i], want)
		}
	}
}

func TestAllPresetsCoverEveryMode(t *testing.T) {
	presets := AllPresets(DefaultReferencePitch)
	if len(presets) != len(Modes()) {
		t.Fatalf("AllPresets returned %d presets, want %d", len(presets), len(Modes()))
	}
}

func TestNoteToFrequency(t *testing.T) {
	cases := []struct {
		name   string
		octave int
		want   float64
	}{
		{"A", 4, 440.00},
		{"E", 2, 82.41},
		{"C", 4, 261.63},
		{"F#", 3, 185.00},
		{"Bb", 3, 233.08},
	}
	for _, c := range cases {
		got := NoteToFrequency(c.name, c.octave, 440.0)
		if math.Abs(got-c.want) > 0.01 {
			t.Errorf("%s%d = %.3f Hz, want %.2f", c.name, c.octave, got, c.want)
		}
	}

	if got := NoteToFrequency("H", 4, 440.0); got != 0 {
		t.Errorf("unknown note name returned %.2f, want 0", got)
	}
}

func TestFrequencyToCents(t *testing.T) {
	// One octave up is 1200 cents
	if got := FrequencyToCents(880.0, 440.0); math.Abs(got-1200.0) > 1e-9 {
		t.Errorf("octave = %.3f cents, want 1200", got)
	}
	// One semitone is 100 cents
	semitone := 440.0 * math.Pow(2, 1.0/12.0)
	if got := FrequencyToCents(semitone, 440.0); math.Abs(got-100.0) > 1e-9 {
		t.Errorf("semitone = %.3f cents, want 100", got)
	}
	if got := FrequencyToCents(440.0, 440.0); got != 0 {
		t.Errorf("unison = %.3f cents, want 0", got)
	}
	if got := FrequencyToCents(0, 440.0); got != 0 {
		t.Errorf("zero frequency = %.3f cents, want 0", got)
	}
}

func TestFrequencyToNote(t *testing.T) {
	note, ok := FrequencyToNote(440.0, 440.0)
	if !ok {
		t.Fatal("440 Hz should map to a note")
	}
	if note.Name != "A4" {
		t.Errorf("name = %q, want A4", note.Name)
	}
	if !note.InTune {
		t.Error("exact A4 should be in tune")
	}

	// 10 cents sharp of A4: detected but out of tune
	sharp := 440.0 * math.Pow(2, 10.0/1200.0)
	note, ok = FrequencyToNote(sharp, 440.0)
	if !ok {
		t.Fatal("sharp A4 should map to a note")
	}
	if note.Name != "A4" {
		t.Errorf("name = %q, want A4", note.Name)
	}
	if note.InTune {
		t.Error("10 cents sharp should not count as in tune")
	}
	if math.Abs(note.Cents-10.0) > 0.01 {
		t.Errorf("cents = %.3f, want 10", note.Cents)
	}

	if _, ok := FrequencyToNote(0, 440.0); ok {
		t.Error("zero frequency should not map to a note")
	}
}

func TestClosestStringExactMatch(t *testing.T) {
	cases := []struct {
		freq float64
		want int
	}{
		{82.41, 0},  // low E
		{110.0, 1},  // A
		{329.63, 5}, // high E
	}
	for _, c := range cases {
		got, ok := ClosestString(Standard, c.freq, 440.0, ClosestStringToleranceCents)
		if !ok {
			t.Errorf("%.2f Hz matched no string", c.freq)
			continue
		}
		if got != c.want {
			t.Errorf("%.2f Hz matched string %d, want %d", c.freq, got, c.want)
		}
	}
}

func TestClosestStringWithinTolerance(t *testing.T) {
	// 20 cents sharp of low E stays matched to it
	sharpE2 := 82.41 * math.Pow(2, 20.0/1200.0)
	got, ok := ClosestString(Standard, sharpE2, 440.0, ClosestStringToleranceCents)
	if !ok || got != 0 {
		t.Errorf("sharp E2 matched (%d, %v), want string 0", got, ok)
	}
}

func TestClosestStringOutsideTolerance(t *testing.T) {
	if _, ok := ClosestString(Standard, 50.0, 440.0, ClosestStringToleranceCents); ok {
		t.Error("50 Hz should match no string")
	}
	if _, ok := ClosestString(Standard, 500.0, 440.0, ClosestStringToleranceCents); ok {
		t.Error("500 Hz should match no string")
	}
}

func TestClosestStringChromaticMode(t *testing.T) {
	if _, ok := ClosestString(Chromatic, 82.41, 440.0, ClosestStringToleranceCents); ok {
		t.Error("chromatic mode should never match a string")
	}
}

func TestStringName(t *testing.T) {
	if got := StringName(0, Standard, 440.0); got != "6th String (E2)" {
		t.Errorf("StringName(0) = %q", got)
	}
	if got := StringName(5, Standard, 440.0); got != "1st String (E4)" {
		t.Errorf("StringName(5) = %q", got)
	}
	if got := StringName(3, Standard, 440.0); got != "3rd String (G3)" {
		t.Errorf("StringName(3) = %q", got)
	}
	if got := StringName(9, Standard, 440.0); got != "Unknown String" {
		t.Errorf("StringName(9) = %q", got)
	}
}
