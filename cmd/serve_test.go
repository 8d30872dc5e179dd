package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/config"
)

func TestApplyServeFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantAddr    string
		wantMetrics string
	}{
		{name: "defaults keep config", wantAddr: ":7000", wantMetrics: ":7001"},
		{name: "http addr flag", args: []string{"--http-addr", ":8081"}, wantAddr: ":8081", wantMetrics: ":7001"},
		{name: "both flags", args: []string{"--http-addr", ":8081", "--metrics-addr", ":9091"}, wantAddr: ":8081", wantMetrics: ":9091"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServeCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			var opts serveOptions
			opts.httpAddr, _ = cmd.Flags().GetString("http-addr")
			opts.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")

			cfg := config.Default()
			cfg.Server.Addr = ":7000"
			cfg.Server.MetricsAddr = ":7001"

			applyServeFlags(cmd, cfg, opts)
			assert.Equal(t, tt.wantAddr, cfg.Server.Addr)
			assert.Equal(t, tt.wantMetrics, cfg.Server.MetricsAddr)
		})
	}
}

func TestLoadConfig_Debug(t *testing.T) {
	cfg, err := loadConfig("", true)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestRunServe_InvalidConfig(t *testing.T) {
	cfg := config.Default()

	err := runServe(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "OIDC issuer is required")
}

func TestCreateCmd_RequiresFlags(t *testing.T) {
	cmd := newCreateCmd()
	cmd.SetArgs([]string{"--name", "Kim"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "meetlink version 1.2.3\n", out.String())
}

func TestGenerateToolDocs(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeToolDocs(&out))

	doc := out.String()
	assert.True(t, strings.HasPrefix(doc, "# MCP Tools Reference"))
	assert.Contains(t, doc, "## meet_create_link")
	assert.Contains(t, doc, "- `name` (string, required): Meeting title")
	assert.Contains(t, doc, "- `repeat` (boolean, optional)")
}
