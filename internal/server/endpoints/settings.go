package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/store"
	"github.com/jackzampolin/prompter/internal/svcctx"
)

// SettingsEndpoint handles GET /api/settings.
type SettingsEndpoint struct{}

func (e *SettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *SettingsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get app settings
//	@Description	Return the persisted app metadata: active book and user settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	store.AppMetadata
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *SettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	blobs := svcctx.StoreFrom(r.Context())
	if blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}
	meta, ok, err := blobs.LoadAppMetadata(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		meta = &store.AppMetadata{Settings: store.Settings{AutoSaveImages: true}}
	}
	writeJSON(w, http.StatusOK, meta)
}

func (e *SettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var meta store.AppMetadata
			if err := client.Get(cmd.Context(), "/api/settings", &meta); err != nil {
				return err
			}
			return api.Output(meta)
		},
	}
}

// UpdateSettingsEndpoint handles PUT /api/settings.
type UpdateSettingsEndpoint struct{}

func (e *UpdateSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings", e.handler
}

func (e *UpdateSettingsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Update app settings
//	@Description	Replace the persisted app metadata
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		store.AppMetadata	true	"New settings"
//	@Success		200	{object}	store.AppMetadata
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings [put]
func (e *UpdateSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	blobs := svcctx.StoreFrom(r.Context())
	if blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}
	var meta store.AppMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := blobs.SaveAppMetadata(r.Context(), &meta); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &meta)
}

func (e *UpdateSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var activeBook, model string
	var autoSave bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			// Start from current settings so unset flags keep their values.
			var meta store.AppMetadata
			if err := client.Get(cmd.Context(), "/api/settings", &meta); err != nil {
				return err
			}
			if cmd.Flags().Changed("active-book") {
				meta.ActiveBookID = activeBook
			}
			if cmd.Flags().Changed("model") {
				meta.Settings.ImageGenerationModel = model
			}
			if cmd.Flags().Changed("auto-save") {
				meta.Settings.AutoSaveImages = autoSave
			}

			var updated store.AppMetadata
			if err := client.Put(cmd.Context(), "/api/settings", meta, &updated); err != nil {
				return err
			}
			return api.Output(updated)
		},
	}
	cmd.Flags().StringVar(&activeBook, "active-book", "", "Active book ID")
	cmd.Flags().StringVar(&model, "model", "", "Image generation model")
	cmd.Flags().BoolVar(&autoSave, "auto-save", true, "Automatically save generated images")
	return cmd
}
