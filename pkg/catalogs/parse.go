package catalogs

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
)

// configPattern matches {name}-{version}.json. The version is dotted numeric.
var configPattern = regexp.MustCompile(`^(.+)-(\d+(?:\.\d+)*)\.json$`)

// ConfigFilename returns the config file name of an integration version.
func ConfigFilename(name, version string) string {
	return name + "-" + version + constants.ConfigExtension
}

// ParseConfigFilename splits a config file name into name and version.
func ParseConfigFilename(filename string) (name, version string, ok bool) {
	m := configPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseJSONOrNDJSON parses data as a single JSON document, falling back to
// one JSON value per line. Files ending in .ndjson skip the whole-document
// attempt. Blank lines are ignored.
func ParseJSONOrNDJSON(filename string, data []byte) (any, error) {
	if !strings.HasSuffix(filename, constants.SavedObjectsExtension) {
		var doc any
		err := json.Unmarshal(data, &doc)
		if err == nil {
			return doc, nil
		}
		if bytes.Count(bytes.TrimSpace(data), []byte("\n")) == 0 {
			return nil, errors.NewParseError("json", filename, errors.MalformedMessage, err)
		}
	}
	return parseNDJSON(filename, data)
}

func parseNDJSON(filename string, data []byte) ([]any, error) {
	values := []any{}
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, &errors.ParseError{
				Format:  "ndjson",
				File:    filename,
				Line:    i + 1,
				Message: errors.MalformedMessage,
				Err:     err,
			}
		}
		values = append(values, v)
	}
	return values, nil
}

// ParseNDJSONText parses NDJSON held in a string, as embedded in serialized
// integrations.
func ParseNDJSONText(name, text string) ([]any, error) {
	return parseNDJSON(name, []byte(text))
}
