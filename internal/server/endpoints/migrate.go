package endpoints

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/migrate"
	"github.com/jackzampolin/prompter/internal/svcctx"
)

// MigrateRequest asks the server to copy its home directory elsewhere.
type MigrateRequest struct {
	Destination string `json:"destination"`
	// DeleteOld removes the old directory after a clean copy.
	DeleteOld bool `json:"deleteOld,omitempty"`
}

// MigrateEvent is one line of the streamed NDJSON response: progress
// events while copying, then a final result event.
type MigrateEvent struct {
	Progress *migrate.Progress `json:"progress,omitempty"`
	Result   *migrate.Result   `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// MigrateEndpoint handles POST /api/migrate.
type MigrateEndpoint struct{}

func (e *MigrateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/migrate", e.handler
}

func (e *MigrateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Migrate the home directory
//	@Description	Copy the home directory to a new location, streaming per-file progress as NDJSON
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MigrateRequest	true	"Destination"
//	@Success		200	{object}	MigrateEvent
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/migrate [post]
func (e *MigrateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req MigrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}
	migrator := svcctx.MigratorFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if migrator == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	progress := make(chan migrate.Progress, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range progress {
			p := p
			enc.Encode(MigrateEvent{Progress: &p})
			if flusher != nil {
				flusher.Flush()
			}
		}
	}()

	result, err := migrator.Migrate(r.Context(), homeDir.Path(), req.Destination, progress)
	wg.Wait()

	if err != nil {
		enc.Encode(MigrateEvent{Error: err.Error()})
		return
	}
	if req.DeleteOld && len(result.Errors) == 0 {
		if err := migrator.DeleteOldDirectory(homeDir.Path()); err != nil {
			enc.Encode(MigrateEvent{Result: result, Error: err.Error()})
			return
		}
	}
	enc.Encode(MigrateEvent{Result: result})
}

func (e *MigrateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var deleteOld bool
	cmd := &cobra.Command{
		Use:   "migrate <destination>",
		Short: "Migrate the home directory to a new location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := MigrateRequest{Destination: args[0], DeleteOld: deleteOld}
			raw, err := client.PostRaw(cmd.Context(), "/api/migrate", req)
			if err != nil {
				return err
			}
			// The body is NDJSON; print it as-is.
			cmd.OutOrStdout().Write(raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleteOld, "delete-old", false, "Remove the old directory after a clean copy")
	return cmd
}
