package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/layout"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/types"
)

// ResolvedLayoutResponse pairs a scene's effective layout with its origin.
type ResolvedLayoutResponse struct {
	Layout *types.SceneLayout `json:"layout"`
	// Source is which level supplied the layout: scene, story, book, or default.
	Source string `json:"source"`
	// SourceDescription is the human-readable origin shown in the editor.
	SourceDescription string `json:"sourceDescription"`
}

// SceneLayoutEndpoint handles GET /api/books/{id}/scenes/{sceneId}/layout.
type SceneLayoutEndpoint struct{}

func (e *SceneLayoutEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{id}/scenes/{sceneId}/layout", e.handler
}

func (e *SceneLayoutEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a scene's resolved layout
//	@Description	Resolve the effective layout through the scene, story, book chain and report its origin
//	@Tags			scenes
//	@Produce		json
//	@Param			id		path		string	true	"Book ID"
//	@Param			sceneId	path		string	true	"Scene ID"
//	@Success		200	{object}	ResolvedLayoutResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/books/{id}/scenes/{sceneId}/layout [get]
func (e *SceneLayoutEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book library not loaded")
		return
	}
	book := books.Get(r.PathValue("id"))
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	scene, story := book.FindScene(r.PathValue("sceneId"))
	if scene == nil {
		writeError(w, http.StatusNotFound, "scene not found")
		return
	}

	writeJSON(w, http.StatusOK, ResolvedLayoutResponse{
		Layout:            layout.ResolveOrDefault(scene, story, book),
		Source:            string(layout.ResolveSource(scene, story, book)),
		SourceDescription: layout.SourceDescription(scene, story, book),
	})
}

func (e *SceneLayoutEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "layout <bookId> <sceneId>",
		Short: "Show a scene's resolved layout and where it came from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/books/%s/scenes/%s/layout", args[0], args[1])
			var resp ResolvedLayoutResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// LayoutPresetsResponse lists the built-in layout presets for a canvas.
type LayoutPresetsResponse struct {
	Canvas  types.Canvas                            `json:"canvas"`
	Presets map[types.LayoutKind]*types.SceneLayout `json:"presets"`
}

// LayoutPresetsEndpoint handles GET /api/layouts.
type LayoutPresetsEndpoint struct{}

func (e *LayoutPresetsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/layouts", e.handler
}

func (e *LayoutPresetsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List layout presets
//	@Description	Return the built-in layout presets sized for an aspect ratio
//	@Tags			layouts
//	@Produce		json
//	@Param			aspect	query		string	false	"Canvas aspect ratio (default 16:9)"
//	@Success		200	{object}	LayoutPresetsResponse
//	@Router			/api/layouts [get]
func (e *LayoutPresetsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	aspect := r.URL.Query().Get("aspect")
	if aspect == "" {
		aspect = "16:9"
	}
	canvas := layout.CanvasFor(aspect)
	presets := make(map[types.LayoutKind]*types.SceneLayout, 4)
	for _, kind := range []types.LayoutKind{
		types.LayoutOverlay,
		types.LayoutComicHorizontal,
		types.LayoutComicVertical,
		types.LayoutCustom,
	} {
		presets[kind] = layout.Preset(kind, canvas)
	}
	writeJSON(w, http.StatusOK, LayoutPresetsResponse{Canvas: canvas, Presets: presets})
}

func (e *LayoutPresetsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var aspect string
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the built-in layout presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LayoutPresetsResponse
			if err := client.Get(cmd.Context(), "/api/layouts?aspect="+aspect, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&aspect, "aspect", "16:9", "Canvas aspect ratio")
	return cmd
}
