package transcode

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, channels int, frames [][2]float64, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy(samples, frames[pos:])
		pos += n
		return n, true
	})
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: channels, Precision: 2}
	require.NoError(t, wav.Encode(f, streamer, format))
	return path
}

func TestDecodeWAVMono(t *testing.T) {
	frames := make([][2]float64, 800)
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*100*float64(i)/8000)
		frames[i] = [2]float64{v, v}
	}
	path := writeWAV(t, 1, frames, 8000)

	audio, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 8000, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
	assert.Equal(t, "wav", audio.Format)
	assert.Equal(t, 100*time.Millisecond, audio.Duration)
	require.Len(t, audio.PCM, 800)
	for i, f := range frames {
		assert.InDelta(t, f[0], audio.PCM[i], 1e-4, "sample %d", i)
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	frames := make([][2]float64, 100)
	for i := range frames {
		frames[i] = [2]float64{0.5, -0.25}
	}
	path := writeWAV(t, 2, frames, 16000)

	audio, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, audio.Channels)
	require.Len(t, audio.PCM, 100)
	assert.InDelta(t, 0.125, audio.PCM[50], 1e-4)
}

func TestDecodeWAVFullScale(t *testing.T) {
	frames := make([][2]float64, 200)
	for i := range frames {
		v := 0.9
		if i%2 == 1 {
			v = -0.9
		}
		frames[i] = [2]float64{v, v}
	}

	for _, channels := range []int{1, 2} {
		audio, err := NewDecoder(nil).DecodeFile(context.Background(), writeWAV(t, channels, frames, 8000))
		require.NoError(t, err)
		require.Len(t, audio.PCM, len(frames))
		assert.InDelta(t, 0.9, audio.PCM[0], 1e-4, "%d channels", channels)
		assert.InDelta(t, -0.9, audio.PCM[1], 1e-4, "%d channels", channels)
	}
}

func TestDecodeMaxDuration(t *testing.T) {
	path := writeWAV(t, 1, make([][2]float64, 1600), 16000)
	d := NewDecoder(&DecoderConfig{FFmpegPath: "ffmpeg", MaxDuration: 50 * time.Millisecond})
	audio, err := d.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, audio.PCM, 800)
	assert.Equal(t, 50*time.Millisecond, audio.Duration)
}

func TestDecodeInvalidNativeFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.wav", "bad.flac"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))
		_, err := NewDecoder(nil).DecodeFile(context.Background(), path)
		assert.Error(t, err, name)
	}
	_, err := NewDecoder(nil).DecodeFile(context.Background(), filepath.Join(dir, "missing.flac"))
	assert.Error(t, err)
}

func fakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const probeJSON = `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"22050","channels":2,"duration":"0.0001"}]}`

func TestDecodeWithFFmpeg(t *testing.T) {
	d := NewDecoder(&DecoderConfig{
		FFprobePath: fakeTool(t, "ffprobe", "echo '"+probeJSON+"'\n"),
		// 1.0 and -0.5 as float64 little-endian
		FFmpegPath: fakeTool(t, "ffmpeg", `printf '\000\000\000\000\000\000\360\077\000\000\000\000\000\000\340\277'`+"\n"),
		Timeout:    time.Minute,
	})

	audio, err := d.DecodeFile(context.Background(), "clip.mp3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -0.5}, audio.PCM)
	assert.Equal(t, 22050, audio.SampleRate)
	assert.Equal(t, 2, audio.Channels)
	assert.Equal(t, "mp3", audio.Format)
}

func TestDecodeWithFFmpegFailure(t *testing.T) {
	d := NewDecoder(&DecoderConfig{
		FFprobePath: fakeTool(t, "ffprobe", "echo 'no such file' >&2\nexit 1\n"),
		FFmpegPath:  "ffmpeg",
	})
	_, err := d.DecodeFile(context.Background(), "clip.ogg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(&DecoderConfig{MaxDuration: 1500 * time.Millisecond})
	args := d.buildFFmpegArgs("in.mp3", &AudioMetadata{SampleRate: 44100})
	assert.Equal(t, []string{
		"-v", "error", "-i", "in.mp3", "-f", "f64le", "-ac", "1", "-ar", "44100", "-t", "1.50", "pipe:1",
	}, args)
}

func TestParseFFprobeOutput(t *testing.T) {
	md, err := parseFFprobeOutput([]byte(probeJSON))
	require.NoError(t, err)
	assert.Equal(t, 22050, md.SampleRate)

	for _, bad := range []string{
		`{"streams":[]}`,
		`{"streams":[{"codec_type":"video","sample_rate":"1","channels":1}]}`,
		`{"streams":[{"codec_type":"audio","sample_rate":"x","channels":1}]}`,
		`{"streams":[{"codec_type":"audio","sample_rate":"8000","channels":0}]}`,
		`not json`,
	} {
		_, err := parseFFprobeOutput([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestBytesToFloat64(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f, 0, 0, 0, 0, 0, 0, 0xe0, 0xbf, 0x01}
	assert.Equal(t, []float64{1, -0.5}, bytesToFloat64(data))
	assert.Nil(t, bytesToFloat64([]byte{1, 2, 3}))
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float64{0.5, 2}, downmix([]float64{0, 1, 1, 3}, 2))
	mono := []float64{1, 2}
	assert.Equal(t, mono, downmix(mono, 1))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, NewDecoder(nil).ValidateConfig())
	assert.Error(t, NewDecoder(&DecoderConfig{}).ValidateConfig())
	assert.Error(t, NewDecoder(&DecoderConfig{FFmpegPath: "ffmpeg", Timeout: -1}).ValidateConfig())
}
