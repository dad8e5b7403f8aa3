package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadFile parses a PCM WAV file into samples. Multi-channel files are not
// expected here; the decode step always downmixes first.
func ReadFile(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 {
		return PCM{}, fmt.Errorf("wav missing format header")
	}
	return PCM{Samples: buf.Data, SampleRate: buf.Format.SampleRate}, nil
}

// WriteFile encodes samples as a 16-bit PCM WAV file.
func WriteFile(path string, pcm PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, pcm.SampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Data:           pcm.Samples,
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: pcm.SampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}
