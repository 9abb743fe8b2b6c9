package notes

import (
	"reflect"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantOK  bool
	}{
		{name: "heading first line", input: "# Hello\nbody", want: "Hello", wantOK: true},
		{name: "no heading", input: "no heading here", wantOK: false},
		{name: "heading after paragraph", input: "para\n# Later\n", want: "Later", wantOK: true},
		{name: "first of several headings", input: "# First\ntext\n# Second", want: "First", wantOK: true},
		{name: "level-2 heading ignored", input: "## Subtitle\nbody", wantOK: false},
		{name: "hash without space ignored", input: "#tag in text", wantOK: false},
		{name: "trims surrounding space", input: "#   Spaced Out   ", want: "Spaced Out", wantOK: true},
		{name: "empty content", input: "", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractTitle(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("ExtractTitle(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Fatalf("ExtractTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractHashtags(t *testing.T) {
	content := "# Title\n" +
		"Some text with #golang and #notes.\n" +
		"## Section heading is not a #tagsource\n" +
		"#golang repeated, and #with-hyphen too.\n"

	got := ExtractHashtags(content)
	want := []string{"golang", "notes", "with-hyphen"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractHashtags = %v, want %v", got, want)
	}
}

func TestExtractHashtagsNoneFound(t *testing.T) {
	if got := ExtractHashtags("# Only a heading\nplain text"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
