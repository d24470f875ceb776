package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute 运行命令并在结束后恢复所有参数默认值
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		reset := func(c *cobra.Command) {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		reset(rootCmd)
		for _, c := range rootCmd.Commands() {
			reset(c)
		}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRLCCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.png")
	out, err := execute(t, "rlc", "--samples", "400", "--out", path, "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "Diode turn-on")
	assert.Contains(t, out, "Segment 2")
	assert.Contains(t, out, "Vc [V]")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRLCCommandConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "stim.yaml")
	html := filepath.Join(dir, "response.html")
	require.NoError(t, os.WriteFile(config, []byte(`
circuit:
  vc0: 500
  t_final: 50u
solver:
  strategy: inline
output:
  path: `+html+`
`), 0o644))

	out, err := execute(t, "rlc", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "inline")
	assert.Contains(t, out, "no zero crossing")
	_, err = os.Stat(html)
	assert.NoError(t, err)
}

func TestRLCCommandErrors(t *testing.T) {
	_, err := execute(t, "rlc", "--strategy", "bogus", "--out", filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorContains(t, err, "bogus")

	_, err = execute(t, "rlc", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConverterCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "buck", "--t-end", "2e-3", "--out", filepath.Join(dir, "buck.svg"))
	require.NoError(t, err)
	assert.Contains(t, out, "BUCK CONVERTER")

	out, err = execute(t, "boost", "--t-end", "1e-3", "--out", filepath.Join(dir, "boost.png"), "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "BOOST CONVERTER")
	assert.Contains(t, out, "vo [V]")

	_, err = execute(t, "buck", "--duty", "1.5", "--out", filepath.Join(dir, "bad.png"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "a.png", outputPath("a.png", "b.png"))
	assert.Equal(t, "b.png", outputPath("", "b.png"))
	assert.Equal(t, "resposta_circuito_separada.png", outputPath("", ""))
}
