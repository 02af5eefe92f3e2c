package catalogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/errors"
)

func TestParseConfigFilename(t *testing.T) {
	tests := []struct {
		filename      string
		name, version string
		ok            bool
	}{
		{"nginx-1.0.0.json", "nginx", "1.0.0", true},
		{"aws-elb-2.1.json", "aws-elb", "2.1", true},
		{"nginx-1.json", "nginx", "1", true},
		{"nginx-1.0.0.ndjson", "", "", false},
		{"communication-1.0.0.mapping.json", "", "", false},
		{"nginx.json", "", "", false},
		{"-1.0.0.json", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, version, ok := ParseConfigFilename(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}

	name, version, ok := ParseConfigFilename(ConfigFilename("nginx", "1.0.1"))
	require.True(t, ok)
	assert.Equal(t, "nginx", name)
	assert.Equal(t, "1.0.1", version)
}

func TestParseJSONOrNDJSON(t *testing.T) {
	t.Run("json document", func(t *testing.T) {
		v, err := ParseJSONOrNDJSON("a.json", []byte(`{"a": 1}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
	})

	t.Run("json array", func(t *testing.T) {
		v, err := ParseJSONOrNDJSON("a.json", []byte(`[1, 2]`))
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1), float64(2)}, v)
	})

	t.Run("ndjson in json file", func(t *testing.T) {
		v, err := ParseJSONOrNDJSON("a.json", []byte("{\"a\":1}\n{\"b\":2}\n"))
		require.NoError(t, err)
		assert.Len(t, v, 2)
	})

	t.Run("single line ndjson", func(t *testing.T) {
		v, err := ParseJSONOrNDJSON("a.ndjson", []byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": float64(1)}}, v)
	})

	t.Run("empty ndjson", func(t *testing.T) {
		v, err := ParseJSONOrNDJSON("a.ndjson", nil)
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("malformed", func(t *testing.T) {
		for name, data := range map[string]string{
			"a.json":   `{"a":`,
			"b.json":   "{\"a\":1}\n{oops}",
			"c.ndjson": "{}\n{oops}",
		} {
			_, err := ParseJSONOrNDJSON(name, []byte(data))
			require.Error(t, err, name)
			assert.True(t, errors.IsMalformed(err), name)
			assert.Contains(t, err.Error(), errors.MalformedMessage)
		}
	})
}
