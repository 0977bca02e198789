package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/layout"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/types"
)

// CreateBookRequest is the body for POST /api/books.
type CreateBookRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	// Layout is a preset name used as the book default layout.
	Layout string `json:"layout,omitempty"`
}

// CreateBookEndpoint handles POST /api/books.
type CreateBookEndpoint struct{}

func (e *CreateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books", e.handler
}

func (e *CreateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a book
//	@Description	Create a new book with default style and one empty story
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateBookRequest	true	"Book parameters"
//	@Success		201	{object}	types.Book
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books [post]
func (e *CreateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book library not loaded")
		return
	}

	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	now := time.Now().UTC()
	book := &types.Book{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		AspectRatio: req.AspectRatio,
		Style: types.BookStyle{
			Panel: types.PanelStyle{
				FontSize:         24,
				TextColor:        "#ffffff",
				BackgroundColor:  "#000000c8",
				Padding:          20,
				TextAlign:        types.AlignLeft,
				WidthPercentage:  90,
				HeightPercentage: 17,
			},
			Diagram: types.DiagramStyle{Board: types.BoardDark},
		},
		Stories: []types.Story{
			{
				ID:        uuid.New().String(),
				Title:     "Story 1",
				Scenes:    []types.Scene{},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Layout != "" {
		canvas := layout.CanvasFor(req.AspectRatio)
		book.DefaultLayout = layout.Preset(types.ParseLayoutKind(req.Layout), canvas)
	}

	if err := books.Set(r.Context(), book); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (e *CreateBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var description, aspect, layoutName string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := CreateBookRequest{
				Title:       args[0],
				Description: description,
				AspectRatio: aspect,
				Layout:      layoutName,
			}
			var book types.Book
			if err := client.Post(cmd.Context(), "/api/books", req, &book); err != nil {
				return err
			}
			return api.Output(book)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Book description")
	cmd.Flags().StringVar(&aspect, "aspect", "16:9", "Canvas aspect ratio")
	cmd.Flags().StringVar(&layoutName, "layout", "", "Default layout preset (overlay, comic-horizontal, comic-vertical, custom)")
	return cmd
}
