package endpoints

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/types"
)

// UpdateBookEndpoint handles PUT /api/books/{id}.
// The body is the full book document; the in-memory copy is replaced and
// written through to disk.
type UpdateBookEndpoint struct{}

func (e *UpdateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/books/{id}", e.handler
}

func (e *UpdateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a book
//	@Description	Replace the full book document
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Book ID"
//	@Param			book	body		types.Book	true	"Full book document"
//	@Success		200	{object}	types.Book
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id} [put]
func (e *UpdateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book library not loaded")
		return
	}
	if books.Get(id) == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	var book types.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		writeError(w, http.StatusBadRequest, "invalid book document: "+err.Error())
		return
	}
	if book.ID == "" {
		book.ID = id
	}
	if book.ID != id {
		writeError(w, http.StatusBadRequest, "book id in body does not match path")
		return
	}
	book.UpdatedAt = time.Now().UTC()

	if err := books.Set(r.Context(), &book); err != nil {
		// Memory holds the update; report the disk failure.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &book)
}

func (e *UpdateBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a book from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var book types.Book
			if err := json.Unmarshal(data, &book); err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var out types.Book
			if err := client.Put(cmd.Context(), "/api/books/"+args[0], book, &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the book JSON file")
	cmd.MarkFlagRequired("file")
	return cmd
}
