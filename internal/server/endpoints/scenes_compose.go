package endpoints

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/compose"
	"github.com/jackzampolin/prompter/internal/layout"
	"github.com/jackzampolin/prompter/internal/render"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

// ComposeSceneEndpoint handles POST /api/books/{id}/scenes/{sceneId}/compose.
// It renders the scene's panels over its latest generated image and returns
// the composed PNG.
type ComposeSceneEndpoint struct {
	Fonts *textmeasure.FontLibrary
}

func (e *ComposeSceneEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{id}/scenes/{sceneId}/compose", e.handler
}

func (e *ComposeSceneEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Compose a scene
//	@Description	Render text and diagram panels over the scene's latest image using its resolved layout
//	@Tags			scenes
//	@Produce		png
//	@Param			id		path	string	true	"Book ID"
//	@Param			sceneId	path	string	true	"Scene ID"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id}/scenes/{sceneId}/compose [post]
func (e *ComposeSceneEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books := svcctx.BooksFrom(r.Context())
	blobs := svcctx.StoreFrom(r.Context())
	if books == nil || blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
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

	entry, ok := scene.LatestImage()
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "scene has no generated image yet")
		return
	}
	data, ok, err := blobs.LoadImage(r.Context(), entry.ImageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "scene image is missing from disk")
		return
	}
	base, err := compose.DecodeBase(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "scene image is not decodable: "+err.Error())
		return
	}

	l := layout.ResolveOrDefault(scene, story, book)
	inputs := compose.Inputs{Base: base}

	if scene.TextPanel != "" {
		if el, present := l.Element(types.RoleTextPanel); present {
			panel, err := e.renderTextPanel(scene.TextPanel, el, l, book.Style.Panel)
			if err != nil {
				writeRenderError(w, err)
				return
			}
			inputs.TextPanel = panel
		}
	}
	if scene.DiagramPanel != nil {
		if el, present := l.Element(types.RoleDiagramPanel); present {
			style := book.Style.Diagram
			if story != nil && story.DiagramStyle != nil {
				style = *story.DiagramStyle
			}
			box := boxPixels(el, l.Units, l.Canvas)
			dr := render.NewDiagramRenderer(e.Fonts)
			panel, err := dr.RenderPanel(box.Dx(), box.Dy(), scene.DiagramPanel, style)
			if err != nil {
				writeRenderError(w, err)
				return
			}
			inputs.DiagramPanel = panel
		}
	}

	out, err := compose.Compose(inputs, l)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	png, err := compose.EncodePNG(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// renderTextPanel renders the panel bitmap for its layout box. A
// bottom-anchored panel is rendered at its required height so the composer
// can pin its bottom edge; other panels render at the planned box height.
func (e *ComposeSceneEndpoint) renderTextPanel(text string, el types.LayoutElement, l *types.SceneLayout, style types.PanelStyle) (*image.RGBA, error) {
	box := boxPixels(el, l.Units, l.Canvas)
	ts := render.TextStyleFrom(style)

	height := box.Dy()
	if el.Anchor == types.AnchorBottom {
		measurer := textmeasure.NewMeasurer(e.Fonts)
		lines, err := measurer.Wrap(text, float64(box.Dx())-2*ts.Padding, ts.Family, ts.FontSize)
		if err != nil {
			return nil, err
		}
		height = len(lines)*textmeasure.LineHeight(ts.FontSize) + int(2*ts.Padding)
	}

	tr := render.NewTextPanelRenderer(e.Fonts)
	return tr.Render(box.Dx(), height, text, ts)
}

// boxPixels resolves a layout element to pixels against the canvas.
func boxPixels(el types.LayoutElement, units types.Units, canvas types.Canvas) image.Rectangle {
	x, y, w, h := el.X, el.Y, el.Width, el.Height
	if units == types.UnitsPercent {
		x = x / 100 * float64(canvas.Width)
		y = y / 100 * float64(canvas.Height)
		w = w / 100 * float64(canvas.Width)
		h = h / 100 * float64(canvas.Height)
	}
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

// writeRenderError maps recoverable render failures to 422 so the client
// can show the panel error without treating the scene as broken.
func writeRenderError(w http.ResponseWriter, err error) {
	var rerr *render.Error
	if errors.As(err, &rerr) {
		writeError(w, http.StatusUnprocessableEntity, rerr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (e *ComposeSceneEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compose <bookId> <sceneId>",
		Short: "Compose a scene and save the PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/books/%s/scenes/%s/compose", args[0], args[1])
			data, err := api.NewClient(getServerURL()).PostRaw(cmd.Context(), path, nil)
			if err != nil {
				return err
			}
			if out == "" {
				out = args[1] + ".png"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG path (default <sceneId>.png)")
	return cmd
}
