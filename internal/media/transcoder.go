package media

import "context"

// Transcoder is the externally delegated video processing capability:
// burn a question banner into a clip, and concatenate finished clips.
type Transcoder interface {
	Overlay(ctx context.Context, inputPath, outputPath, questionText string, questionNumber int) error
	Concat(ctx context.Context, inputPaths []string, outputPath string) error
}
