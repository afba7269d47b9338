// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semantic

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

var experimentTitle = regexp.MustCompile(`^@[a-zA-Z]+/`)

// Classify returns the kind of a node from its title. Experiment titles
// start with "@type/"; other kinds carry a bracketed marker such as [[ISS]].
func Classify(title string) types.NodeKind {
	if experimentTitle.MatchString(title) {
		return types.KindExperiment
	}
	for _, k := range types.DiscourseKinds {
		if strings.Contains(title, "[["+string(k)+"]]") {
			return k
		}
	}
	return types.KindOther
}

// flexString decodes a JSON value that may be a string, a number, an array
// (first non-empty element), or an object naming something (name, title,
// @value, or @id). Null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '[':
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*f = ""
		for _, item := range items {
			if item != "" {
				*f = item
				break
			}
		}
	case '{':
		var obj struct {
			Name  flexString `json:"name"`
			Title flexString `json:"title"`
			ID    flexString `json:"@id"`
			Value flexString `json:"@value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.Name != "":
			*f = obj.Name
		case obj.Title != "":
			*f = obj.Title
		case obj.Value != "":
			*f = obj.Value
		default:
			*f = obj.ID
		}
	case 'n':
		*f = ""
	default:
		*f = flexString(data)
	}
	return nil
}
