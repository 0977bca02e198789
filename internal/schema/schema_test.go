package schema

import (
	"strings"
	"testing"
)

const validBook = `{
  "id": "b1",
  "title": "A Test Book",
  "aspectRatio": "16:9",
  "style": {"panel": {"fontSize": 24, "padding": 20, "widthPercentage": 90, "heightPercentage": 17}},
  "stories": [
    {
      "id": "s1",
      "title": "Story One",
      "scenes": [
        {
          "id": "sc1",
          "title": "Opening",
          "textPanel": "Once upon a time",
          "diagramPanel": {"kind": "flow", "source": "a -> b"},
          "layout": {
            "type": "overlay",
            "units": "px",
            "canvas": {"width": 1920, "height": 1080, "aspectRatio": "16:9"},
            "elements": {
              "image": {"x": 0, "y": 0, "width": 1920, "height": 1080, "zIndex": 0},
              "textPanel": {"x": 100, "y": 850, "width": 1720, "height": 180, "zIndex": 2, "anchor": "bottom"}
            }
          },
          "imageHistory": [{"imageId": "img-1", "model": "test/model", "createdAt": "2026-01-02T03:04:05Z"}]
        }
      ]
    }
  ],
  "createdAt": "2026-01-01T00:00:00Z",
  "updatedAt": "2026-01-02T00:00:00Z"
}`

func TestValidateBook_Valid(t *testing.T) {
	if err := ValidateBook([]byte(validBook)); err != nil {
		t.Fatalf("ValidateBook: %v", err)
	}
}

func TestValidateBook_RejectsMalformedJSON(t *testing.T) {
	if err := ValidateBook([]byte("{not json")); err == nil {
		t.Fatal("malformed JSON should fail")
	}
}

func TestValidateBook_RejectsMissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"missing id":      `{"title": "x", "stories": []}`,
		"missing stories": `{"id": "b1", "title": "x"}`,
		"empty id":        `{"id": "", "title": "x", "stories": []}`,
	}
	for name, doc := range cases {
		if err := ValidateBook([]byte(doc)); err == nil {
			t.Errorf("%s: validation passed, want error", name)
		}
	}
}

func TestValidateBook_RejectsDegenerateLayout(t *testing.T) {
	doc := strings.Replace(validBook, `"width": 1720`, `"width": 0`, 1)
	if err := ValidateBook([]byte(doc)); err == nil {
		t.Fatal("zero-width element should fail validation")
	}
}

func TestValidateBook_AllowsUnknownFields(t *testing.T) {
	doc := strings.Replace(validBook, `"id": "b1",`, `"id": "b1", "futureField": true,`, 1)
	if err := ValidateBook([]byte(doc)); err != nil {
		t.Fatalf("unknown fields must be tolerated: %v", err)
	}
}
