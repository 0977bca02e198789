package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/svcctx"
)

// CacheStatsResponse reports image cache counters.
type CacheStatsResponse struct {
	Entries int      `json:"entries"`
	MaxSize int      `json:"maxSize"`
	Hits    uint64   `json:"hits"`
	Misses  uint64   `json:"misses"`
	HitRate int      `json:"hitRate"`
	Keys    []string `json:"keys,omitempty"`
}

// CacheStatsEndpoint handles GET /api/cache/stats.
type CacheStatsEndpoint struct{}

func (e *CacheStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/cache/stats", e.handler
}

func (e *CacheStatsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Image cache statistics
//	@Description	Report entry count, hit/miss counters, and hit rate for the image cache
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	CacheStatsResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/cache/stats [get]
func (e *CacheStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	images := svcctx.ImagesFrom(r.Context())
	if images == nil {
		writeError(w, http.StatusServiceUnavailable, "image cache not initialized")
		return
	}
	st := images.Stats()
	resp := CacheStatsResponse{
		Entries: st.Entries,
		MaxSize: st.MaxSize,
		Hits:    st.Hits,
		Misses:  st.Misses,
		HitRate: images.HitRate(),
	}
	if r.URL.Query().Get("keys") == "true" {
		resp.Keys = images.Keys()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *CacheStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show image cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CacheStatsResponse
			if err := client.Get(cmd.Context(), "/api/cache/stats", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CacheClearEndpoint handles POST /api/cache/clear.
type CacheClearEndpoint struct{}

func (e *CacheClearEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/cache/clear", e.handler
}

func (e *CacheClearEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Clear the image cache
//	@Description	Release every cached image
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	CacheStatsResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/cache/clear [post]
func (e *CacheClearEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	images := svcctx.ImagesFrom(r.Context())
	if images == nil {
		writeError(w, http.StatusServiceUnavailable, "image cache not initialized")
		return
	}
	images.Clear()
	st := images.Stats()
	writeJSON(w, http.StatusOK, CacheStatsResponse{
		Entries: st.Entries,
		MaxSize: st.MaxSize,
		Hits:    st.Hits,
		Misses:  st.Misses,
		HitRate: images.HitRate(),
	})
}

func (e *CacheClearEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the image cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CacheStatsResponse
			if err := client.Post(cmd.Context(), "/api/cache/clear", nil, &resp); err != nil {
				return err
			}
			fmt.Printf("cache cleared (%d entries remain)\n", resp.Entries)
			return nil
		},
	}
}
