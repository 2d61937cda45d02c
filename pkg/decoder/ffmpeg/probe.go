package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var ErrProbe = errors.New("ffprobe: no video")

// Info is the media description found by ffprobe.
type Info struct {
	W, H     int
	Fps      float64
	Duration float64
}

func (i Info) String() string {
	return fmt.Sprintf("%vx%v@%.2f %.1fs", i.W, i.H, i.Fps, i.Duration)
}

type probeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		FrameRate string `json:"r_frame_rate"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the size, rate and duration of the first video stream.
func Probe(ctx context.Context, bin, path string) (Info, error) {
	out, err := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,duration:format=duration",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return Info{}, fmt.Errorf("ffprobe %v: %w, %s", path, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return Info{}, fmt.Errorf("ffprobe %v: %w", path, err)
	}
	return ParseProbe(out)
}

func ParseProbe(data []byte) (Info, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return Info{}, fmt.Errorf("ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return Info{}, ErrProbe
	}
	s := po.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return Info{}, fmt.Errorf("%w: size %vx%v", ErrProbe, s.Width, s.Height)
	}
	info := Info{W: s.Width, H: s.Height, Fps: rate(s.FrameRate)}
	info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
	if info.Duration <= 0 {
		info.Duration, _ = strconv.ParseFloat(po.Format.Duration, 64)
	}
	return info, nil
}

// rate parses num/den frame rates, 0 when unknown.
func rate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
