package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/faiface/beep/wav"
	"github.com/mewkiz/flac"
)

// decodeWAV reads a PCM WAV file. beep always yields stereo frames and
// duplicates mono input into both, so mono files keep the left channel.
//
// beep divides 16 and 24-bit samples by 2^bits-1 instead of 2^(bits-1), so
// those are doubled back to [-1, 1]. 8-bit samples are already full scale.
func decodeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	stream, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	defer stream.Close()

	gain := 1.0
	if format.Precision == 2 || format.Precision == 3 {
		gain = 2
	}

	pcm := make([]float64, 0, max(stream.Len(), 0))
	buf := make([][2]float64, 4096)
	for {
		n, ok := stream.Stream(buf)
		for _, s := range buf[:n] {
			if format.NumChannels == 1 {
				pcm = append(pcm, gain*s[0])
			} else {
				pcm = append(pcm, gain*(s[0]+s[1])/2)
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Format:     "wav",
	}, nil
}

// decodeFLAC reads a FLAC file and scales integer samples to [-1, 1).
func decodeFLAC(filename string) (*AudioData, error) {
	stream, err := flac.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels == 0 || info.BitsPerSample == 0 {
		return nil, fmt.Errorf("invalid flac stream info: %d channels, %d bits", channels, info.BitsPerSample)
	}
	scale := 1 / float64(int64(1)<<(info.BitsPerSample-1))

	interleaved := make([]float64, 0, info.NSamples*uint64(channels))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read flac frame: %w", err)
		}

		for i := range frame.Subframes[0].NSamples {
			for _, sub := range frame.Subframes {
				interleaved = append(interleaved, float64(sub.Samples[i])*scale)
			}
		}
	}
	pcm := downmix(interleaved, channels)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: int(info.SampleRate),
		Channels:   channels,
		Format:     "flac",
	}, nil
}
