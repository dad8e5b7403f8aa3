package audio

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func sineClip(rate int, seconds float64) PCM {
	n := int(float64(rate) * seconds)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return PCM{Samples: samples, SampleRate: rate}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := sineClip(TargetSampleRate, 0.5)

	if err := WriteFile(path, clip); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}

	if got.SampleRate != TargetSampleRate {
		t.Errorf("sample rate: want %d, got %d", TargetSampleRate, got.SampleRate)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Errorf("sample count: want %d, got %d", len(clip.Samples), len(got.Samples))
	}
}

func TestDurationFromSampleCount(t *testing.T) {
	clip := PCM{Samples: make([]int, 24000), SampleRate: 16000}
	if got := clip.Duration(); got != 1.5 {
		t.Errorf("duration: want 1.5, got %f", got)
	}
	if (PCM{}).Duration() != 0 {
		t.Error("empty clip should report zero duration")
	}
}

func TestNormalizeRejectsNonMP3(t *testing.T) {
	n := NewNormalizer("ffmpeg")
	_, err := n.Normalize(context.Background(), []byte("not audio"), "clip.wav")
	if err != ErrUnsupportedFormat {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}
