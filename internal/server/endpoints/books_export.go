package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/export"
	"github.com/jackzampolin/prompter/internal/svcctx"
)

// ExportBookEndpoint handles POST /api/books/{id}/export.
type ExportBookEndpoint struct{}

func (e *ExportBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{id}/export", e.handler
}

func (e *ExportBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export a book as PDF
//	@Description	Assemble the latest scene images into a PDF under the exports directory
//	@Tags			books
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"
//	@Success		200	{object}	export.Result
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id}/export [post]
func (e *ExportBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	books := svcctx.BooksFrom(r.Context())
	exporter := svcctx.ExporterFrom(r.Context())
	if books == nil || exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}
	book := books.Get(id)
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	result, err := exporter.BookPDF(r.Context(), book)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *ExportBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id>",
		Short: "Export a book as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var result export.Result
			if err := client.Post(cmd.Context(), "/api/books/"+args[0]+"/export", nil, &result); err != nil {
				return err
			}
			return api.Output(result)
		},
	}
}
