// Package imagegen generates scene illustrations through OpenRouter's
// image-capable chat models.
package imagegen

import (
	"context"
	"time"
)

// Request describes one image generation call.
type Request struct {
	// Prompt is the fully assembled scene prompt, including character and
	// background setup blocks.
	Prompt string
	// Model overrides the client's default model when set.
	Model string
	// AspectRatio is advisory; models that honor it receive it in the prompt.
	AspectRatio string
	// ReferenceImages are prior renders passed back for visual continuity,
	// as raw encoded image bytes.
	ReferenceImages [][]byte
}

// Result is a completed generation.
type Result struct {
	// Data is the decoded image bytes (typically PNG).
	Data []byte
	// MimeType is taken from the returned data URL.
	MimeType string
	// Model is the model that actually served the request.
	Model string
	// Elapsed is the wall-clock duration of the call including retries.
	Elapsed time.Duration
}

// Generator produces images from prompts. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
	// Model returns the default model identifier.
	Model() string
}
