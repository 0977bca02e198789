package endpoints

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/bookcache"
	"github.com/jackzampolin/prompter/internal/export"
	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/imagecache"
	"github.com/jackzampolin/prompter/internal/imagegen"
	"github.com/jackzampolin/prompter/internal/migrate"
	"github.com/jackzampolin/prompter/internal/store"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

type testEnv struct {
	handler http.Handler
	home    *home.Dir
	blobs   store.BlobStore
	books   *bookcache.Cache
	images  *imagecache.Cache
	gen     *imagegen.MockGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New: %v", err)
	}
	blobs, err := store.NewFSStore(h, logger)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	books := bookcache.New(blobs, logger)
	if err := books.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	fonts, err := textmeasure.NewFontLibrary()
	if err != nil {
		t.Fatalf("NewFontLibrary: %v", err)
	}

	env := &testEnv{
		home:   h,
		blobs:  blobs,
		books:  books,
		images: imagecache.New(imagecache.Config{Logger: logger}),
		gen:    &imagegen.MockGenerator{},
	}

	services := &svcctx.Services{
		Books:     books,
		Images:    env.images,
		Store:     blobs,
		Generator: env.gen,
		Exporter:  export.New(h, logger),
		Migrator:  migrate.New(logger),
		Home:      h,
		Logger:    logger,
	}

	reg := api.NewRegistry()
	for _, ep := range All(Config{Fonts: fonts}) {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })

	env.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// seedBook stores a book with one story holding one scene and reloads it
// into the cache.
func seedBook(t *testing.T, env *testEnv) *types.Book {
	t.Helper()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	book := &types.Book{
		ID:          "bk-1",
		Title:       "The Little Gopher",
		AspectRatio: "16:9",
		Style: types.BookStyle{
			Panel: types.PanelStyle{
				FontSize:         14,
				TextColor:        "#ffffff",
				BackgroundColor:  "#000000c8",
				Padding:          8,
				WidthPercentage:  90,
				HeightPercentage: 20,
			},
			Diagram: types.DiagramStyle{Board: types.BoardDark},
		},
		Characters: []types.Character{
			{ID: "ch-1", Name: "Pip", Description: "a small golden gopher"},
		},
		Stories: []types.Story{
			{
				ID:              "st-1",
				Title:           "Into the Burrow",
				BackgroundSetup: "a mossy forest floor at dawn",
				Scenes: []types.Scene{
					{
						ID:          "sc-1",
						Title:       "Waking Up",
						Description: "Pip yawns at the burrow entrance",
						TextPanel:   "Pip woke before the sun.",
						Characters:  []string{"ch-1"},
						CreatedAt:   now,
						UpdatedAt:   now,
					},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.books.Set(context.Background(), book); err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}

	rec = env.do(t, "GET", "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	seedBook(t, env)
	rec = env.do(t, "GET", "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status status = %d, want 200", rec.Code)
	}
	var st StatusResponse
	decodeInto(t, rec, &st)
	if st.Books != 1 {
		t.Errorf("status books = %d, want 1", st.Books)
	}
	if st.Model != "mock/image-model" {
		t.Errorf("status model = %q", st.Model)
	}
}

func TestBookLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/books", CreateBookRequest{
		Title:  "Star Charts",
		Layout: "overlay",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created types.Book
	decodeInto(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created book has no id")
	}
	if created.AspectRatio != "16:9" {
		t.Errorf("aspect ratio = %q, want default 16:9", created.AspectRatio)
	}
	if len(created.Stories) != 1 {
		t.Fatalf("stories = %d, want 1", len(created.Stories))
	}
	if created.DefaultLayout == nil || created.DefaultLayout.Kind != types.LayoutOverlay {
		t.Errorf("default layout not applied: %+v", created.DefaultLayout)
	}

	rec = env.do(t, "GET", "/api/books", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var summaries []BookSummary
	decodeInto(t, rec, &summaries)
	if len(summaries) != 1 || summaries[0].ID != created.ID {
		t.Fatalf("list = %+v, want one entry for %s", summaries, created.ID)
	}

	rec = env.do(t, "GET", "/api/books/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	created.Title = "Star Charts, Revised"
	rec = env.do(t, "PUT", "/api/books/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated types.Book
	decodeInto(t, rec, &updated)
	if updated.Title != "Star Charts, Revised" {
		t.Errorf("title after update = %q", updated.Title)
	}

	rec = env.do(t, "DELETE", "/api/books/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, "GET", "/api/books/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestUpdateBookRejectsIDMismatch(t *testing.T) {
	env := newTestEnv(t)
	book := seedBook(t, env)

	other := *book
	other.ID = "someone-else"
	rec := env.do(t, "PUT", "/api/books/"+book.ID, other)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateSceneAppendsHistory(t *testing.T) {
	env := newTestEnv(t)
	book := seedBook(t, env)

	rec := env.do(t, "POST", "/api/books/bk-1/scenes/sc-1/generate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp GenerateSceneResponse
	decodeInto(t, rec, &resp)
	if resp.Entry.ImageID == "" {
		t.Fatal("no image id in response")
	}
	if resp.Entry.Model != "mock/image-model" {
		t.Errorf("entry model = %q", resp.Entry.Model)
	}

	data, ok, err := env.blobs.LoadImage(context.Background(), resp.Entry.ImageID)
	if err != nil || !ok {
		t.Fatalf("generated image not persisted: ok=%v err=%v", ok, err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("persisted image is not a PNG: %v", err)
	}

	// A second generation appends rather than replacing.
	rec = env.do(t, "POST", "/api/books/bk-1/scenes/sc-1/generate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second generate status = %d", rec.Code)
	}
	scene, _ := env.books.Get(book.ID).FindScene("sc-1")
	if len(scene.ImageHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(scene.ImageHistory))
	}

	calls := env.gen.Calls()
	if len(calls) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(calls))
	}
	prompt := calls[0].Prompt
	for _, want := range []string{"Pip yawns", "Setting: a mossy forest floor", "Pip: a small golden gopher"} {
		if !bytes.Contains([]byte(prompt), []byte(want)) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateSceneFailureLeavesHistoryAlone(t *testing.T) {
	env := newTestEnv(t)
	book := seedBook(t, env)
	env.gen.Err = context.DeadlineExceeded

	rec := env.do(t, "POST", "/api/books/bk-1/scenes/sc-1/generate", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	scene, _ := env.books.Get(book.ID).FindScene("sc-1")
	if len(scene.ImageHistory) != 0 {
		t.Fatalf("history length = %d, want 0", len(scene.ImageHistory))
	}
}

// storeSceneImage encodes a solid PNG, saves it, and appends it to the
// scene's history.
func storeSceneImage(t *testing.T, env *testEnv, book *types.Book, sceneID string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := env.blobs.SaveImage(context.Background(), "img-"+sceneID, buf.Bytes()); err != nil {
		t.Fatalf("save image: %v", err)
	}
	scene, _ := book.FindScene(sceneID)
	scene.AddImage("img-"+sceneID, "test/model", time.Now().UTC())
	if err := env.books.Set(context.Background(), book); err != nil {
		t.Fatalf("save book: %v", err)
	}
}

func TestComposeSceneReturnsPNG(t *testing.T) {
	env := newTestEnv(t)
	book := seedBook(t, env)

	// Small explicit layout keeps the test fast.
	scene, _ := book.FindScene("sc-1")
	scene.Layout = &types.SceneLayout{
		Kind:   types.LayoutOverlay,
		Units:  types.UnitsPercent,
		Canvas: types.Canvas{Width: 320, Height: 180, AspectRatio: "16:9"},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:     {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 0},
			types.RoleTextPanel: {X: 5, Y: 75, Width: 90, Height: 20, ZIndex: 1, Anchor: types.AnchorBottom},
		},
	}
	storeSceneImage(t, env, book, "sc-1", 320, 180)

	rec := env.do(t, "POST", "/api/books/bk-1/scenes/sc-1/compose", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("compose status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	out, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode composed png: %v", err)
	}
	if out.Bounds().Dx() != 320 || out.Bounds().Dy() != 180 {
		t.Errorf("composed size = %dx%d, want 320x180", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestComposeSceneWithoutImage(t *testing.T) {
	env := newTestEnv(t)
	seedBook(t, env)

	rec := env.do(t, "POST", "/api/books/bk-1/scenes/sc-1/compose", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSceneLayoutReportsSource(t *testing.T) {
	env := newTestEnv(t)
	seedBook(t, env)

	rec := env.do(t, "GET", "/api/books/bk-1/scenes/sc-1/layout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ResolvedLayoutResponse
	decodeInto(t, rec, &resp)
	if resp.Layout == nil {
		t.Fatal("no layout in response")
	}
	if resp.Source != "default" {
		t.Errorf("source = %q, want default", resp.Source)
	}
}

func TestLayoutPresets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/layouts?aspect=1:1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp LayoutPresetsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Presets) != 4 {
		t.Fatalf("presets = %d, want 4", len(resp.Presets))
	}
	if resp.Canvas.Width != resp.Canvas.Height {
		t.Errorf("1:1 canvas = %dx%d", resp.Canvas.Width, resp.Canvas.Height)
	}
}

func TestMeasureText(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/text/measure", MeasureTextRequest{
		Text:        "A quiet morning in the burrow, long before the others stirred.",
		ImageWidth:  640,
		ImageHeight: 360,
		Style: types.PanelStyle{
			FontSize:         18,
			Padding:          10,
			WidthPercentage:  90,
			HeightPercentage: 15,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp MeasureTextResponse
	decodeInto(t, rec, &resp)
	if resp.LineCount < 1 || len(resp.Lines) != resp.LineCount {
		t.Errorf("lines = %d, lineCount = %d", len(resp.Lines), resp.LineCount)
	}
	if resp.RequiredHeight <= 0 {
		t.Errorf("required height = %d", resp.RequiredHeight)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var meta store.AppMetadata
	decodeInto(t, rec, &meta)
	if !meta.Settings.AutoSaveImages {
		t.Error("default auto-save should be on")
	}

	meta.ActiveBookID = "bk-9"
	meta.Settings.ImageGenerationModel = "test/model"
	rec = env.do(t, "PUT", "/api/settings", meta)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}

	rec = env.do(t, "GET", "/api/settings", nil)
	var got store.AppMetadata
	decodeInto(t, rec, &got)
	if got.ActiveBookID != "bk-9" || got.Settings.ImageGenerationModel != "test/model" {
		t.Errorf("settings after round trip = %+v", got)
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	env := newTestEnv(t)
	env.images.Set("img-1", "blob:a", 0)
	env.images.Get("img-1")
	env.images.Get("missing")

	rec := env.do(t, "GET", "/api/cache/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats CacheStatsResponse
	decodeInto(t, rec, &stats)
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HitRate != 50 {
		t.Errorf("hit rate = %d, want 50", stats.HitRate)
	}

	rec = env.do(t, "POST", "/api/cache/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	decodeInto(t, rec, &stats)
	if stats.Entries != 0 {
		t.Errorf("entries after clear = %d", stats.Entries)
	}
}

func TestExportBookEndpoint(t *testing.T) {
	env := newTestEnv(t)
	book := seedBook(t, env)
	storeSceneImage(t, env, book, "sc-1", 64, 36)

	rec := env.do(t, "POST", "/api/books/bk-1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	var result export.Result
	decodeInto(t, rec, &result)
	if result.Pages != 1 {
		t.Errorf("pages = %d, want 1", result.Pages)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read exported pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("exported file is not a PDF")
	}
}

func TestMigrateEndpointStreamsProgress(t *testing.T) {
	env := newTestEnv(t)
	seedBook(t, env)
	dest := filepath.Join(t.TempDir(), "new-home")

	rec := env.do(t, "POST", "/api/migrate", MigrateRequest{Destination: dest})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}

	var events []MigrateEvent
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var ev MigrateEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) < 2 {
		t.Fatalf("events = %d, want progress lines plus a result", len(events))
	}
	last := events[len(events)-1]
	if last.Result == nil || !last.Result.Success {
		t.Fatalf("final event = %+v, want successful result", last)
	}
	if _, err := os.Stat(filepath.Join(dest, "books", "bk-1.json")); err != nil {
		t.Fatalf("migrated book missing: %v", err)
	}
}

func TestMigrateEndpointRejectsEmptyDestination(t *testing.T) {
	env := newTestEnv(t)
	seedBook(t, env)

	rec := env.do(t, "POST", "/api/migrate", MigrateRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
