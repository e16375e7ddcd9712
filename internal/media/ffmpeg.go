package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	boldFont    = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	regularFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
)

// FFmpeg shells out to the ffmpeg binary. The filter graphs mirror what
// the product ships: a translucent bottom banner with the question number
// and text, then a concat of matched video+audio streams.
type FFmpeg struct {
	Bin string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Bin: "ffmpeg"}
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, f.Bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", args[0], err, tail(out))
	}
	return nil
}

func (f *FFmpeg) Overlay(ctx context.Context, inputPath, outputPath, questionText string, questionNumber int) error {
	filters := strings.Join([]string{
		"drawbox=x=0:y=ih-100:w=iw:h=100:color=black@0.7:t=fill",
		fmt.Sprintf("drawtext=text='Q%d':fontsize=24:fontcolor=white:x=20:y=h-80:fontfile=%s",
			questionNumber, boldFont),
		fmt.Sprintf("drawtext=text='%s':fontsize=18:fontcolor=white:x=20:y=h-50:fontfile=%s",
			escapeDrawtext(questionText), regularFont),
	}, ",")

	return f.run(ctx,
		"-y",
		"-i", inputPath,
		"-vf", filters,
		outputPath,
	)
}

func (f *FFmpeg) Concat(ctx context.Context, inputPaths []string, outputPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("concat: no inputs")
	}

	args := []string{"-y"}
	for _, p := range inputPaths {
		args = append(args, "-i", p)
	}

	var fc strings.Builder
	for i := range inputPaths {
		fmt.Fprintf(&fc, "[%d:v][%d:a]", i, i)
	}
	fmt.Fprintf(&fc, "concat=n=%d:v=1:a=1[outv][outa]", len(inputPaths))

	args = append(args,
		"-filter_complex", fc.String(),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		outputPath,
	)
	return f.run(ctx, args...)
}

// escapeDrawtext quotes the characters the drawtext filter treats as
// syntax: single quotes, colons and brackets.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`'`, `'\''`,
		`:`, `\:`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return r.Replace(s)
}

func tail(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}
