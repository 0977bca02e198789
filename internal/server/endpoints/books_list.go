package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/types"
)

// BookSummary is the list view of a book.
type BookSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AspectRatio string `json:"aspectRatio"`
	Stories     int    `json:"stories"`
	Scenes      int    `json:"scenes"`
	UpdatedAt   string `json:"updatedAt"`
}

func summarize(b *types.Book) BookSummary {
	scenes := 0
	for i := range b.Stories {
		scenes += len(b.Stories[i].Scenes)
	}
	return BookSummary{
		ID:          b.ID,
		Title:       b.Title,
		AspectRatio: b.AspectRatio,
		Stories:     len(b.Stories),
		Scenes:      scenes,
		UpdatedAt:   b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List books
//	@Description	List all books in the library, sorted by title
//	@Tags			books
//	@Produce		json
//	@Success		200	{array}		BookSummary
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book library not loaded")
		return
	}
	out := make([]BookSummary, 0)
	for _, b := range books.List() {
		out = append(out, summarize(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []BookSummary
			if err := client.Get(cmd.Context(), "/api/books", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}
