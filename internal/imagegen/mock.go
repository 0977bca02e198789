package imagegen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
)

// MockGenerator is a test double that returns a solid-color PNG.
type MockGenerator struct {
	mu sync.Mutex

	// Err, when set, is returned from every Generate call.
	Err error
	// Fill is the color of the generated image (default opaque gray).
	Fill color.Color
	// Width and Height default to 64x64.
	Width, Height int

	calls []Request
}

var _ Generator = (*MockGenerator)(nil)

// Generate records the request and returns a synthetic PNG.
func (m *MockGenerator) Generate(ctx context.Context, req *Request) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, *req)
	err := m.Err
	fill := m.Fill
	w, h := m.Width, m.Height
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fill == nil {
		fill = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	if w <= 0 {
		w = 64
	}
	if h <= 0 {
		h = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Result{Data: buf.Bytes(), MimeType: "image/png", Model: m.Model()}, nil
}

// Model returns the mock model name.
func (m *MockGenerator) Model() string { return "mock/image-model" }

// Calls returns a copy of the recorded requests.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
