// Package types provides the persisted data model shared across packages.
// It has no dependencies on other prompter packages to avoid import cycles.
package types

import "time"

// TextAlign controls horizontal text placement inside a panel.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// BoardStyle is the background preset for diagram panels.
type BoardStyle string

const (
	// BoardDark is a blackboard: dark fill, light strokes.
	BoardDark BoardStyle = "dark"
	// BoardLight is a whiteboard: light fill, dark strokes.
	BoardLight BoardStyle = "light"
	// BoardTransparent draws content with no background fill.
	BoardTransparent BoardStyle = "transparent"
)

// PanelStyle holds the book-level font/color/border settings applied to
// text panels. Geometry percentages are relative to the base image.
type PanelStyle struct {
	FontFamily       string    `json:"fontFamily,omitempty"`
	FontSize         float64   `json:"fontSize"`
	TextColor        string    `json:"textColor,omitempty"`
	BackgroundColor  string    `json:"backgroundColor,omitempty"`
	BorderColor      string    `json:"borderColor,omitempty"`
	BorderWidth      float64   `json:"borderWidth,omitempty"`
	BorderRadius     float64   `json:"borderRadius,omitempty"`
	Padding          float64   `json:"padding"`
	TextAlign        TextAlign `json:"textAlign,omitempty"`
	WidthPercentage  float64   `json:"widthPercentage"`
	HeightPercentage float64   `json:"heightPercentage"`
}

// DiagramStyle holds story-level diagram defaults.
type DiagramStyle struct {
	Board           BoardStyle `json:"board,omitempty"`
	ForegroundColor string     `json:"foregroundColor,omitempty"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	BorderColor     string     `json:"borderColor,omitempty"`
}

// BookStyle is the book-wide style configuration.
type BookStyle struct {
	Panel   PanelStyle   `json:"panel"`
	Diagram DiagramStyle `json:"diagram,omitempty"`
}

// Story groups an ordered list of scenes with shared background setup.
type Story struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	BackgroundSetup string         `json:"backgroundSetup,omitempty"`
	DiagramStyle    *DiagramStyle  `json:"diagramStyle,omitempty"`
	Layout          *SceneLayout   `json:"layout,omitempty"`
	Characters      []Character    `json:"characters,omitempty"`
	Elements        []WorldElement `json:"elements,omitempty"`
	Scenes          []Scene        `json:"scenes"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Book is the unit of filesystem persistence. Stories and scenes exist
// only nested inside a book's serialized form.
type Book struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	BackgroundSetup string       `json:"backgroundSetup,omitempty"`
	AspectRatio     string       `json:"aspectRatio"`
	Style           BookStyle    `json:"style"`
	DefaultLayout   *SceneLayout `json:"defaultLayout,omitempty"`
	Characters      []Character  `json:"characters,omitempty"`
	Stories         []Story      `json:"stories"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// FindStory returns the story with the given id, or nil.
func (b *Book) FindStory(id string) *Story {
	if b == nil {
		return nil
	}
	for i := range b.Stories {
		if b.Stories[i].ID == id {
			return &b.Stories[i]
		}
	}
	return nil
}

// FindScene returns the scene with the given id and its owning story, or nils.
func (b *Book) FindScene(id string) (*Scene, *Story) {
	if b == nil {
		return nil, nil
	}
	for i := range b.Stories {
		story := &b.Stories[i]
		for j := range story.Scenes {
			if story.Scenes[j].ID == id {
				return &story.Scenes[j], story
			}
		}
	}
	return nil, nil
}
