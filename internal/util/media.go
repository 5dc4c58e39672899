package util

import (
	"encoding/json"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// AudioInfo holds probed metadata of an uploaded audio clip.
type AudioInfo struct {
	Duration float64 `json:"duration"` // seconds
	Format   string  `json:"format"`
}

// ProbeAudio reads audio metadata with ffprobe. Failures are the caller's
// call to ignore; uploads succeed without duration info.
func ProbeAudio(path string) (*AudioInfo, error) {
	jsonOutput, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, err
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, err
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		duration = 0
	}

	return &AudioInfo{
		Duration: duration,
		Format:   result.Format.Format,
	}, nil
}
