package audio_test

import (
	"testing"

	"ordervox/internal/audio"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want audio.Format
	}{
		{"mp3", audio.FormatMP3},
		{".MP3", audio.FormatMP3},
		{"wave", audio.FormatWAV},
		{"webm", audio.FormatWebM},
		{"opus", audio.FormatOGG},
		{"flac", audio.FormatOther},
		{"", audio.FormatOther},
	}
	for _, tc := range cases {
		if got := audio.ParseFormat(tc.in); got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatFromContentType(t *testing.T) {
	if got := audio.FormatFromContentType("audio/wav; codec=pcm"); got != audio.FormatWAV {
		t.Fatalf("expected wav, got %q", got)
	}
	if got := audio.FormatFromContentType("application/octet-stream"); got != audio.FormatOther {
		t.Fatalf("expected other, got %q", got)
	}
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	a := audio.Fingerprint([]byte("order one"))
	b := audio.Fingerprint([]byte("order one"))
	c := audio.Fingerprint([]byte("order two"))

	if a != b {
		t.Fatal("fingerprint must be stable for identical bytes")
	}
	if a == c {
		t.Fatal("fingerprint must differ for different bytes")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 length 64, got %d", len(a))
	}
}
