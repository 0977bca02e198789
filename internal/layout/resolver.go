package layout

import (
	"fmt"

	"github.com/jackzampolin/prompter/internal/types"
)

// Source tags where a resolved layout came from.
type Source string

const (
	// SourceScene means the scene carries its own layout.
	SourceScene Source = "scene"
	// SourceStory means the layout was inherited from the owning story.
	SourceStory Source = "story"
	// SourceBook means the layout was inherited from the book default.
	SourceBook Source = "book"
	// SourceDefault means no level supplied a layout; the caller uses the
	// system preset.
	SourceDefault Source = "default"
)

// Resolve walks the scene → story → book chain and returns the first layout
// present, or (nil, false) when every level is absent. Pure function; a nil
// scene, story, or book simply contributes nothing.
func Resolve(scene *types.Scene, story *types.Story, book *types.Book) (*types.SceneLayout, bool) {
	if scene != nil && scene.Layout != nil {
		return scene.Layout, true
	}
	if story != nil && story.Layout != nil {
		return story.Layout, true
	}
	if book != nil && book.DefaultLayout != nil {
		return book.DefaultLayout, true
	}
	return nil, false
}

// ResolveOrDefault resolves the chain and falls back to the overlay preset
// sized for the book's aspect ratio.
func ResolveOrDefault(scene *types.Scene, story *types.Story, book *types.Book) *types.SceneLayout {
	if l, ok := Resolve(scene, story, book); ok {
		return l
	}
	aspect := ""
	if book != nil {
		aspect = book.AspectRatio
	}
	return Overlay(CanvasFor(aspect))
}

// ResolveSource reports the provenance of the layout Resolve would return.
// Exactly one source is ever reported; the chain short-circuits on first
// presence, so ties cannot occur.
func ResolveSource(scene *types.Scene, story *types.Story, book *types.Book) Source {
	switch {
	case scene != nil && scene.Layout != nil:
		return SourceScene
	case story != nil && story.Layout != nil:
		return SourceStory
	case book != nil && book.DefaultLayout != nil:
		return SourceBook
	default:
		return SourceDefault
	}
}

// SourceDescription renders a human-readable provenance label for the
// editor UI, naming the originating story or book.
func SourceDescription(scene *types.Scene, story *types.Story, book *types.Book) string {
	switch ResolveSource(scene, story, book) {
	case SourceScene:
		return "This scene's own layout"
	case SourceStory:
		return fmt.Sprintf("Inherited from story %q", story.Title)
	case SourceBook:
		return fmt.Sprintf("Inherited from book default %q", book.Title)
	default:
		return "System default layout"
	}
}

// SceneHasLayout reports whether the scene carries its own layout.
// Clearing a scene layout un-shadows the story/book layout underneath.
func SceneHasLayout(scene *types.Scene) bool {
	return scene != nil && scene.Layout != nil
}

// StoryHasLayout reports whether the story carries a layout.
func StoryHasLayout(story *types.Story) bool {
	return story != nil && story.Layout != nil
}

// BookHasDefaultLayout reports whether the book carries a default layout.
func BookHasDefaultLayout(book *types.Book) bool {
	return book != nil && book.DefaultLayout != nil
}
