package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/config"
)

func TestParseLogLevelFlags(t *testing.T) {
	t.Setenv("LOG_LEVEL_SEARCH_DUCKDUCKGO", "debug")

	def, pkgs, err := parseLogLevelFlags([]string{"warn", "coordinator=debug"})
	require.NoError(t, err)
	assert.Equal(t, "warn", def)
	assert.Equal(t, "debug", pkgs["coordinator"])
	assert.Equal(t, "debug", pkgs["search.duckduckgo"])
	assert.NotContains(t, pkgs, "default")
}

func TestParseLogLevelFlags_FlagOverridesEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL_WRITER", "error")

	_, pkgs, err := parseLogLevelFlags([]string{"writer=info"})
	require.NoError(t, err)
	assert.Equal(t, "info", pkgs["writer"])
}

func TestParseLogLevelFlags_Invalid(t *testing.T) {
	_, _, err := parseLogLevelFlags([]string{"loud"})
	assert.Error(t, err)

	_, _, err = parseLogLevelFlags([]string{"reviewer=chatty"})
	assert.Error(t, err)
}

func TestConvertEnvKeyToPackageName(t *testing.T) {
	assert.Equal(t, "search.duckduckgo", convertEnvKeyToPackageName("LOG_LEVEL_SEARCH_DUCKDUCKGO"))
	assert.Equal(t, "coordinator", convertEnvKeyToPackageName("LOG_LEVEL_COORDINATOR"))
}

func TestPipelineFlags_ProviderSwitchResetsDerivedDefaults(t *testing.T) {
	var f pipelineFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--provider", "openai", "--max-revisions", "0", "--frontmatter"}))

	cfg := config.Default()
	cfg.ApplyProviderDefaults()
	f.apply(fs, cfg)
	cfg.ApplyProviderDefaults()

	assert.Equal(t, config.GenerationOpenAI, cfg.Generation.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generation.APIKeyEnv)
	assert.Equal(t, 0, cfg.MaxRevisions)
	assert.True(t, cfg.Output.Frontmatter)
	// untouched flags keep config values
	assert.Equal(t, 5, cfg.Search.MaxResults)
}

func TestPipelineFlags_ExplicitModelKept(t *testing.T) {
	var f pipelineFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--provider", "anthropic", "--model", "claude-haiku-4-5"}))

	cfg := config.Default()
	cfg.ApplyProviderDefaults()
	f.apply(fs, cfg)
	cfg.ApplyProviderDefaults()

	assert.Equal(t, "claude-haiku-4-5", cfg.Generation.Model)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Generation.APIKeyEnv)
}

func TestLoadTopics(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	topics, err := loadTopics(write("list.yaml", "- solid-state batteries\n- \"  \"\n- CRISPR\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"solid-state batteries", "CRISPR"}, topics)

	topics, err = loadTopics(write("map.yaml", "topics:\n  - fusion\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fusion"}, topics)

	_, err = loadTopics(write("empty.yaml", "topics: []\n"))
	assert.Error(t, err)

	_, err = loadTopics(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRunCommand_Offline(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"run", "X", "--provider", "echo", "--search", "static", "--log-level", "error"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetCommandFlags(t, runCmd)
	})

	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "Prompt length:")
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "researchlab "+Version)
}

func TestRunCommand_OfflineWithProgress(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"run", "X", "--provider", "echo", "--search", "static", "--log-level", "error", "--progress"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		runFlags.progress = false
		resetCommandFlags(t, runCmd)
	})

	require.NoError(t, Execute())
	// The progress view goes to stderr; stdout carries only the report.
	assert.Contains(t, out.String(), "Prompt length:")
	assert.NotContains(t, out.String(), "researchlab X")
}

// resetCommandFlags restores the local flags of cmd and the --config flag so
// later Execute calls start clean.
func resetCommandFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	})
	cfgFlag := rootCmd.PersistentFlags().Lookup("config")
	require.NoError(t, cfgFlag.Value.Set(""))
	cfgFlag.Changed = false
}

// searchServer fakes the DuckDuckGo API. Queries containing "broken" fail
// with a 500; everything else returns an empty answer.
func searchServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "broken") {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeSearchConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	path := filepath.Join(dir, "researchlab.yaml")
	content := "search:\n" +
		"  provider: duckduckgo\n" +
		"  base_url: " + baseURL + "\n" +
		"  max_retries: 0\n" +
		"  rate_limit: 0\n" +
		"  cache_size: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunCommand_SearchFailureWritesNothing(t *testing.T) {
	srv := searchServer(t)
	dir := t.TempDir()
	cfgPath := writeSearchConfig(t, dir, srv.URL)
	outPath := filepath.Join(dir, "out.md")

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"run", "broken topic", "--provider", "echo", "-c", cfgPath, "-o", outPath, "--log-level", "error"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetCommandFlags(t, runCmd)
	})

	err := Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSearchUnavailable)
	assert.Contains(t, err.Error(), "status 500")

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no report may be written for a failed run")
	assert.Empty(t, out.String())
}

func TestBatchCommand(t *testing.T) {
	srv := searchServer(t)
	dir := t.TempDir()
	cfgPath := writeSearchConfig(t, dir, srv.URL)
	topicsPath := filepath.Join(dir, "topics.yaml")
	require.NoError(t, os.WriteFile(topicsPath, []byte("- Solid-state batteries\n- broken topic\n- CRISPR\n"), 0o600))

	execBatch := func(t *testing.T, outDir string, extra ...string) error {
		t.Helper()
		args := append([]string{"batch", topicsPath, "--provider", "echo", "-c", cfgPath,
			"--output-dir", outDir, "--log-level", "error"}, extra...)
		rootCmd.SetArgs(args)
		t.Cleanup(func() {
			rootCmd.SetArgs(nil)
			resetCommandFlags(t, batchCmd)
		})
		return Execute()
	}

	t.Run("continues past failed topics", func(t *testing.T) {
		outDir := filepath.Join(dir, "all")
		err := execBatch(t, outDir)
		require.Error(t, err)
		assert.Equal(t, "failed topics: broken topic", err.Error())

		assert.FileExists(t, filepath.Join(outDir, "01-solid-state-batteries.md"))
		assert.NoFileExists(t, filepath.Join(outDir, "02-broken-topic.md"))
		assert.FileExists(t, filepath.Join(outDir, "03-crispr.md"))

		data, err := os.ReadFile(filepath.Join(outDir, "03-crispr.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "Prompt length:")
	})

	t.Run("fail fast stops at the first failure", func(t *testing.T) {
		outDir := filepath.Join(dir, "fast")
		err := execBatch(t, outDir, "--fail-fast")
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrSearchUnavailable)

		assert.FileExists(t, filepath.Join(outDir, "01-solid-state-batteries.md"))
		assert.NoFileExists(t, filepath.Join(outDir, "03-crispr.md"))
	})
}
