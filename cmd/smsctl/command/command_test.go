package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/polysms/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateways.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: local
gateways:
  - name: local
    driver: stub
    settings:
      fail_recipients: ["+999"]
  - name: spare
    driver: stub
`), 0o600))

	cfg := &config.Config{}
	cfg.Gateways.Source = config.SourceDB
	cfg.Gateways.File = path
	return cfg
}

func TestSend(t *testing.T) {
	var out bytes.Buffer
	c := Send{Out: &out}.Command(context.Background(), testConfig(t))
	c.SetArgs([]string{"+100", "hello", "--via", "spare", "--extra", "type=unicode"})

	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), `"success": true`)
	assert.Contains(t, out.String(), `"gateway": "spare"`)
}

func TestSend_Failure(t *testing.T) {
	var out bytes.Buffer
	c := Send{Out: &out}.Command(context.Background(), testConfig(t))
	c.SetArgs([]string{"+999", "hello"})

	err := c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local reported failure")
}

func TestSend_BadExtra(t *testing.T) {
	c := Send{Out: &bytes.Buffer{}}.Command(context.Background(), testConfig(t))
	c.SetArgs([]string{"+1", "hi", "--extra", "novalue"})
	assert.Error(t, c.Execute())
}

func TestGateways(t *testing.T) {
	var out bytes.Buffer
	c := Gateways{Out: &out}.Command(context.Background(), testConfig(t))
	c.SetArgs([]string{"--check"})

	require.NoError(t, c.Execute())
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "HEALTH")
	assert.Contains(t, string(lines[1]), "local")
	assert.Contains(t, string(lines[1]), "*")
	assert.Contains(t, string(lines[2]), "ok (")
}
