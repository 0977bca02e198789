package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/svcctx"
)

// DeleteBookEndpoint handles DELETE /api/books/{id}.
type DeleteBookEndpoint struct{}

func (e *DeleteBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/books/{id}", e.handler
}

func (e *DeleteBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a book
//	@Description	Remove a book from memory and disk
//	@Tags			books
//	@Produce		json
//	@Param			id	path	string	true	"Book ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id} [delete]
func (e *DeleteBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book library not loaded")
		return
	}
	existed, err := books.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/books/"+args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}
