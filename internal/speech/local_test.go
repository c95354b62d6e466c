package speech

import "testing"

const voiceListing = ` Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb           --/M      English_(Great_Britain) gmw/en
 5  en-us           23/F      English_(America)  gmw/en-US
`

func TestParseVoiceTable(t *testing.T) {
	voices := parseVoiceTable([]byte(voiceListing))
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}
	if voices[0].ID != "0" || voices[0].Name != "Afrikaans" || voices[0].Gender != "male" {
		t.Fatalf("unexpected first voice: %+v", voices[0])
	}
	if voices[2].Gender != "female" || voices[2].Age != "23" {
		t.Fatalf("unexpected third voice: %+v", voices[2])
	}
}

func TestParseVoiceTableEmpty(t *testing.T) {
	if voices := parseVoiceTable(nil); len(voices) != 0 {
		t.Fatalf("expected no voices, got %v", voices)
	}
}

func TestAmplitude(t *testing.T) {
	cases := []struct {
		volume float64
		want   int
	}{
		{-1, 0},
		{0, 0},
		{0.5, 100},
		{1, 200},
		{2, 200},
	}
	for _, tc := range cases {
		if got := amplitude(tc.volume); got != tc.want {
			t.Fatalf("amplitude(%v) = %d, want %d", tc.volume, got, tc.want)
		}
	}
}

func TestEngineParsing(t *testing.T) {
	for _, name := range []string{"pyttsx3", "gtts", "local"} {
		engine, err := ParseEngine(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if engine.String() != name {
			t.Fatalf("round trip failed for %q: got %q", name, engine.String())
		}
	}
	if _, err := ParseEngine("webspeech"); err == nil {
		t.Fatal("expected error for unknown engine name")
	}
}
