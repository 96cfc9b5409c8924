package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type itemResponse struct {
	Status string   `json:"status" yaml:"status"`
	Data   ItemView `json:"data" yaml:"data"`
}

func TestClassify_Text(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"url", []string{"https://example.com"}, "URL   https://example.com\n"},
		{"plain", []string{"hello", "world"}, "Text  hello world\n"},
		{"file", []string{"/Users/me/notes.txt"}, "File  /Users/me/notes.txt\n"},
		{"code", []string{"return x;"}, "Code  return x;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", append([]string{"classify"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestClassify_Stdin(t *testing.T) {
	out, err := execute(t, "func main() {\n\tprintln(1)\n}\n", "classify")
	require.NoError(t, err)
	assert.Equal(t, "Code  func main() { println(1) }\n", out)
}

func TestClassify_HTML(t *testing.T) {
	out, err := execute(t, "", "classify", "--html", "<b>bold</b>")
	require.NoError(t, err)
	assert.Equal(t, "HTML  <b>bold</b>\n", out)
}

func TestClassify_JSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "classify", "https://example.com/path")
	require.NoError(t, err)

	var resp itemResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "URL", resp.Data.Type)
	assert.Equal(t, "https://example.com/path", resp.Data.Preview)
	assert.Equal(t, len("https://example.com/path"), resp.Data.Size)
	assert.NotEmpty(t, resp.Data.ID)
	assert.False(t, resp.Data.CreatedAt.IsZero())
}

func TestClassify_YAML(t *testing.T) {
	out, err := execute(t, "const x = 1", "--format", "yaml", "classify")
	require.NoError(t, err)

	var resp itemResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Code", resp.Data.Type)
	assert.Equal(t, "const x = 1", resp.Data.Preview)
}

func TestClassify_EmptyInput(t *testing.T) {
	_, err := execute(t, "", "classify")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nothing to classify")
}
