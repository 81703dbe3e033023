package transcode

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"atelier/contexts/content-review/ingestion-service/domain/entities"
)

// FFmpeg shells out to the ffmpeg/ffprobe binaries. Output lands next to
// the input as <name>.out.mp4 and the caller owns deleting both.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	// ExtraArgs is appended between input and output, e.g. scaling filters.
	ExtraArgs []string
}

func (f FFmpeg) Transcode(
	ctx context.Context,
	inputPath string,
	onProgress func(fraction float64),
) (entities.TranscodeOutput, error) {
	outputPath := outputFor(inputPath)

	// Input duration bounds the progress fraction. A probe failure only
	// costs the progress stream, never the transcode itself.
	var inputDuration float64
	if probed, err := f.probe(ctx, inputPath); err == nil {
		inputDuration = probed.DurationSeconds
	}

	args := []string{"-y", "-i", inputPath}
	args = append(args, f.ExtraArgs...)
	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-b:v", "4M",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-nostats",
		"-progress", "pipe:1",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, f.ffmpeg(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return entities.TranscodeOutput{}, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return entities.TranscodeOutput{}, fmt.Errorf("ffmpeg: %w", err)
	}

	streamProgress(stdout, inputDuration, onProgress)

	if err := cmd.Wait(); err != nil {
		return entities.TranscodeOutput{}, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	output := entities.TranscodeOutput{Path: outputPath}
	if probed, err := f.probe(ctx, outputPath); err == nil {
		output.DurationSeconds = probed.DurationSeconds
		output.Width = probed.Width
		output.Height = probed.Height
	}
	return output, nil
}

// streamProgress parses ffmpeg's key=value progress feed and reports the
// processed-time fraction. It drains stdout fully even without a callback
// so ffmpeg never blocks on a full pipe.
func streamProgress(r io.Reader, durationSeconds float64, onProgress func(fraction float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, found := strings.CutPrefix(line, "out_time_us=")
		if !found {
			continue
		}
		if onProgress == nil || durationSeconds <= 0 {
			continue
		}
		micros, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		fraction := (float64(micros) / 1e6) / durationSeconds
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		onProgress(fraction)
	}
}

func (f FFmpeg) probe(ctx context.Context, path string) (entities.TranscodeOutput, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	raw, err := cmd.Output()
	if err != nil {
		return entities.TranscodeOutput{}, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return entities.TranscodeOutput{}, fmt.Errorf("ffprobe output: %w", err)
	}

	output := entities.TranscodeOutput{Path: path}
	if duration, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		output.DurationSeconds = duration
	}
	for _, stream := range parsed.Streams {
		if stream.CodecType == "video" {
			output.Width = stream.Width
			output.Height = stream.Height
			break
		}
	}
	return output, nil
}

func (f FFmpeg) ffmpeg() string {
	if strings.TrimSpace(f.FFmpegPath) != "" {
		return f.FFmpegPath
	}
	return "ffmpeg"
}

func (f FFmpeg) ffprobe() string {
	if strings.TrimSpace(f.FFprobePath) != "" {
		return f.FFprobePath
	}
	return "ffprobe"
}

func outputFor(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, base+".out.mp4")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
