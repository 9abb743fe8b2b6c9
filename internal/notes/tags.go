package notes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TagsInput accepts the two wire shapes clients send for tags: a single
// comma-separated string or a list of strings. A missing field decodes to the
// zero value, which normalizes to absent.
type TagsInput struct {
	raw    string
	list   []string
	isList bool
	set    bool
}

// TagsFromString builds a TagsInput from a raw string value.
func TagsFromString(value string) TagsInput {
	return TagsInput{raw: value, set: true}
}

// TagsFromList builds a TagsInput from a list of tag strings.
func TagsFromList(values []string) TagsInput {
	return TagsInput{list: values, isList: true, set: true}
}

// UnmarshalJSON decodes either a JSON string or a JSON array of strings.
func (t *TagsInput) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*t = TagsFromString(asString)
		return nil
	}
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*t = TagsFromList(asList)
		return nil
	}
	return fmt.Errorf("notes: tags must be a string or an array of strings")
}

// Normalize reduces the input to the stored representation: a trimmed,
// comma-joined string with blank entries dropped. A nil result means absent;
// blank input never round-trips into an empty stored string.
func (t TagsInput) Normalize() *string {
	if !t.set {
		return nil
	}

	entries := t.list
	if !t.isList {
		entries = []string{t.raw}
	}

	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return nil
	}

	joined := strings.Join(kept, ",")
	return &joined
}
