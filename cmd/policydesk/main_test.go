package main

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/policydesk/internal/config"
	"github.com/aretw0/policydesk/pkg/assertions"
)

// resetFlags restores every flag, since rootCmd is shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "policydesk version")
}

func TestKindsCommand(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "add-header")
	assert.Contains(t, out, "include")
}

func TestActionsCommand_Invoke(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	policy := `{"kind":"all","children":[{"kind":"add-header","data":{"name":"X-A","operation":"add"}},{"kind":"http-routing","data":{"url":"https://svc"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(policy), 0o644))

	out, err := execute(t, "actions", path, "0.1", "--invoke", "move-up")
	require.NoError(t, err)
	assert.Contains(t, out, `"children":[{"kind":"http-routing"`)
}

func TestConfigMissing(t *testing.T) {
	_, err := execute(t, "kinds", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreCodec(t *testing.T) {
	codec, err := storeCodec(config.EncryptionConfig{})
	require.NoError(t, err)
	assert.IsType(t, assertions.JSONCodec{}, codec)

	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	codec, err = storeCodec(config.EncryptionConfig{Key: key})
	require.NoError(t, err)
	data, err := codec.Encode(&assertions.HTTPRouting{URL: "https://svc"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "https://svc")

	_, err = storeCodec(config.EncryptionConfig{Key: "not base64!"})
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.json")
	require.NoError(t, os.WriteFile(policy, []byte(`{"kind":"all","children":[{"kind":"include","data":{"policy_name":""}}]}`), 0o644))

	out, err := execute(t, "validate", policy)
	assert.Error(t, err)
	assert.Contains(t, out, "include has no policy name")
}
