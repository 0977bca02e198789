package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

// MeasureTextRequest asks how much panel height a text needs.
type MeasureTextRequest struct {
	Text        string           `json:"text"`
	ImageWidth  int              `json:"imageWidth"`
	ImageHeight int              `json:"imageHeight"`
	Style       types.PanelStyle `json:"style"`
}

// MeasureTextResponse reports the fit calculation.
type MeasureTextResponse struct {
	Fits                  bool     `json:"fits"`
	RequiredHeight        int      `json:"requiredHeight"`
	RequiredHeightPercent int      `json:"requiredHeightPercent"`
	LineCount             int      `json:"lineCount"`
	Lines                 []string `json:"lines"`
}

// MeasureTextEndpoint handles POST /api/text/measure. The layout editor
// uses it to auto-size bottom-anchored text panels before composing.
type MeasureTextEndpoint struct {
	Fonts *textmeasure.FontLibrary
}

func (e *MeasureTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/text/measure", e.handler
}

func (e *MeasureTextEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Measure panel text
//	@Description	Word-wrap text against a panel style and report the required height
//	@Tags			text
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MeasureTextRequest	true	"Measurement input"
//	@Success		200	{object}	MeasureTextResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/text/measure [post]
func (e *MeasureTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req MeasureTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ImageWidth <= 0 || req.ImageHeight <= 0 {
		writeError(w, http.StatusBadRequest, "image dimensions must be positive")
		return
	}

	cfg := textmeasure.Config{
		FontFamily:       textmeasure.ParseFamily(req.Style.FontFamily),
		FontSize:         req.Style.FontSize,
		Padding:          req.Style.Padding,
		WidthPercentage:  req.Style.WidthPercentage,
		HeightPercentage: req.Style.HeightPercentage,
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 24
	}

	measurer := textmeasure.NewMeasurer(e.Fonts)
	fit, err := measurer.MeasureFit(req.Text, req.ImageWidth, req.ImageHeight, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MeasureTextResponse{
		Fits:                  fit.Fits,
		RequiredHeight:        fit.RequiredHeight,
		RequiredHeightPercent: fit.RequiredHeightPercent,
		LineCount:             fit.LineCount,
		Lines:                 fit.Lines,
	})
}

func (e *MeasureTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	var width, height int
	var fontSize, padding, widthPct, heightPct float64
	cmd := &cobra.Command{
		Use:   "measure <text>",
		Short: "Measure required panel height for a text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := MeasureTextRequest{
				Text:        args[0],
				ImageWidth:  width,
				ImageHeight: height,
				Style: types.PanelStyle{
					FontSize:         fontSize,
					Padding:          padding,
					WidthPercentage:  widthPct,
					HeightPercentage: heightPct,
				},
			}
			var resp MeasureTextResponse
			if err := client.Post(cmd.Context(), "/api/text/measure", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&width, "width", 1920, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 1080, "Image height in pixels")
	cmd.Flags().Float64Var(&fontSize, "font-size", 24, "Font size")
	cmd.Flags().Float64Var(&padding, "padding", 20, "Panel padding")
	cmd.Flags().Float64Var(&widthPct, "width-pct", 90, "Panel width percentage")
	cmd.Flags().Float64Var(&heightPct, "height-pct", 17, "Panel height percentage")
	return cmd
}
