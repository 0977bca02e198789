package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/imagegen"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/types"
)

// GenerateSceneRequest is the body for scene image generation.
type GenerateSceneRequest struct {
	// Model overrides the configured image model for this call.
	Model string `json:"model,omitempty"`
	// PromptOverride replaces the assembled scene prompt entirely.
	PromptOverride string `json:"promptOverride,omitempty"`
	// UseReference passes the scene's previous image back to the model
	// for visual continuity.
	UseReference bool `json:"useReference,omitempty"`
}

// GenerateSceneResponse reports the new image history entry.
type GenerateSceneResponse struct {
	Entry   types.ImageHistoryEntry `json:"entry"`
	Elapsed string                  `json:"elapsed"`
}

// GenerateSceneEndpoint handles POST /api/books/{id}/scenes/{sceneId}/generate.
type GenerateSceneEndpoint struct{}

func (e *GenerateSceneEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{id}/scenes/{sceneId}/generate", e.handler
}

func (e *GenerateSceneEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate a scene image
//	@Description	Assemble the scene prompt, generate an image, persist it, and append to the scene's image history
//	@Tags			scenes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Book ID"
//	@Param			sceneId	path		string					true	"Scene ID"
//	@Param			request	body		GenerateSceneRequest	false	"Generation options"
//	@Success		200	{object}	GenerateSceneResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id}/scenes/{sceneId}/generate [post]
func (e *GenerateSceneEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books := svcctx.BooksFrom(r.Context())
	blobs := svcctx.StoreFrom(r.Context())
	gen := svcctx.GeneratorFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())
	if books == nil || blobs == nil || gen == nil {
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

	var req GenerateSceneRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	prompt := req.PromptOverride
	if prompt == "" {
		prompt = AssemblePrompt(book, story, scene)
	}
	if strings.TrimSpace(prompt) == "" {
		writeError(w, http.StatusUnprocessableEntity, "scene has no description to build a prompt from")
		return
	}

	genReq := &imagegen.Request{
		Prompt:      prompt,
		Model:       req.Model,
		AspectRatio: book.AspectRatio,
	}
	if req.UseReference {
		if entry, ok := scene.LatestImage(); ok {
			if data, found, err := blobs.LoadImage(r.Context(), entry.ImageID); err == nil && found {
				genReq.ReferenceImages = [][]byte{data}
			}
		}
	}

	result, err := gen.Generate(r.Context(), genReq)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	imageID := uuid.New().String()
	if err := blobs.SaveImage(r.Context(), imageID, result.Data); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// History is append-only; regeneration never replaces prior entries.
	scene.AddImage(imageID, result.Model, time.Now().UTC())
	if err := books.Set(r.Context(), book); err != nil {
		if logger != nil {
			logger.Error("generated image recorded in memory but book save failed", "book", book.ID, "error", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry, _ := scene.LatestImage()
	writeJSON(w, http.StatusOK, GenerateSceneResponse{
		Entry:   entry,
		Elapsed: result.Elapsed.Round(time.Millisecond).String(),
	})
}

// AssemblePrompt builds the image prompt from the scene description plus
// the book and story setup blocks and referenced characters and elements.
func AssemblePrompt(book *types.Book, story *types.Story, scene *types.Scene) string {
	var b strings.Builder
	b.WriteString(scene.Description)

	setup := ""
	if story != nil && story.BackgroundSetup != "" {
		setup = story.BackgroundSetup
	} else if book.BackgroundSetup != "" {
		setup = book.BackgroundSetup
	}
	if setup != "" {
		b.WriteString("\n\nSetting: ")
		b.WriteString(setup)
	}

	for _, id := range scene.Characters {
		if c := findCharacter(book, story, id); c != nil && c.Description != "" {
			fmt.Fprintf(&b, "\n\n%s: %s", c.Name, c.Description)
		}
	}
	if story != nil {
		for _, id := range scene.Elements {
			for i := range story.Elements {
				if story.Elements[i].ID == id && story.Elements[i].Description != "" {
					fmt.Fprintf(&b, "\n\n%s: %s", story.Elements[i].Name, story.Elements[i].Description)
				}
			}
		}
	}
	return b.String()
}

// findCharacter looks up a character id in the story first, then the book.
func findCharacter(book *types.Book, story *types.Story, id string) *types.Character {
	if story != nil {
		for i := range story.Characters {
			if story.Characters[i].ID == id {
				return &story.Characters[i]
			}
		}
	}
	for i := range book.Characters {
		if book.Characters[i].ID == id {
			return &book.Characters[i]
		}
	}
	return nil
}

func (e *GenerateSceneEndpoint) Command(getServerURL func() string) *cobra.Command {
	var model string
	var useReference bool
	cmd := &cobra.Command{
		Use:   "generate <bookId> <sceneId>",
		Short: "Generate an image for a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/books/%s/scenes/%s/generate", args[0], args[1])
			req := GenerateSceneRequest{Model: model, UseReference: useReference}
			var resp GenerateSceneResponse
			if err := client.Post(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Override the image model")
	cmd.Flags().BoolVar(&useReference, "reference", false, "Pass the previous image for continuity")
	return cmd
}
