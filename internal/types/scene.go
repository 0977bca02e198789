package types

import "time"

// DiagramKind tags the content variant a diagram panel carries.
type DiagramKind string

const (
	// DiagramFlow is flow-chart markup (nodes and arrows).
	DiagramFlow DiagramKind = "flow"
	// DiagramMath is a single rendered math/text expression.
	DiagramMath DiagramKind = "math"
	// DiagramCode is a monospaced source listing.
	DiagramCode DiagramKind = "code"
)

// DiagramPanel describes the diagram content attached to a scene.
type DiagramPanel struct {
	Kind     DiagramKind `json:"kind"`
	Source   string      `json:"source"`
	Language string      `json:"language,omitempty"`
}

// ImageHistoryEntry records one generated image for a scene.
// The history is append-only; regenerating never removes prior entries.
type ImageHistoryEntry struct {
	ImageID   string    `json:"imageId"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}

// Character defines a recurring character referenced by scenes.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorldElement defines a recurring object or location referenced by scenes.
// Serialized under the "elements" key alongside characters.
type WorldElement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Scene is one illustrated moment in a story.
type Scene struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	TextPanel    string              `json:"textPanel,omitempty"`
	DiagramPanel *DiagramPanel       `json:"diagramPanel,omitempty"`
	Layout       *SceneLayout        `json:"layout,omitempty"`
	Characters   []string            `json:"characters,omitempty"`
	Elements     []string            `json:"elements,omitempty"`
	ImageHistory []ImageHistoryEntry `json:"imageHistory,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// LatestImage returns the most recent image history entry, if any.
func (s *Scene) LatestImage() (ImageHistoryEntry, bool) {
	if s == nil || len(s.ImageHistory) == 0 {
		return ImageHistoryEntry{}, false
	}
	return s.ImageHistory[len(s.ImageHistory)-1], true
}

// AddImage appends a generated image to the scene's history.
func (s *Scene) AddImage(imageID, model string, at time.Time) {
	s.ImageHistory = append(s.ImageHistory, ImageHistoryEntry{
		ImageID:   imageID,
		Model:     model,
		CreatedAt: at,
	})
	s.UpdatedAt = at
}
