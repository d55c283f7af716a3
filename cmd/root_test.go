package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/billing"
	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/scoring"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "generate", "daily", "explain", "migrate", "plan"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lead-agent", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_PreRunLoadsConfig(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/leads
cron:
  enabled: true
log:
  level: debug
  format: console
`), 0o600))

	require.NoError(t, rootCmd.PersistentPreRunE(migrateCmd, nil))
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, "0 9 * * *", cfg.Cron.Schedule)
}

func TestRootCommand_PreRunBadLogLevel(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: loud\n"), 0o600))

	err := rootCmd.PersistentPreRunE(migrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead-agent: init logger")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestGenerateCommand_Flags(t *testing.T) {
	flag := generateCmd.Flags().Lookup("user")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Annotations, "cobra_annotation_bash_completion_one_required_flag")
}

func TestExplainCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "website", "phone", "address", "niche", "locations"} {
		assert.NotNil(t, explainCmd.Flags().Lookup(name), "explain should have --%s flag", name)
	}
	assert.Equal(t, "wedding", explainCmd.Flags().Lookup("niche").DefValue)
}

func TestPrintBreakdown(t *testing.T) {
	b := scoring.Explain(scoring.Lead{
		Name:    "Rosewood Wedding Venue",
		Website: "rosewoodweddings.com",
		Phone:   "(512) 555-1234",
		Address: "Austin, TX",
	}, &scoring.Context{TargetLocations: []string{"Austin"}, Niche: "wedding"})

	var buf bytes.Buffer
	printBreakdown(&buf, b)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(b.Rules)+3)
	assert.True(t, strings.HasPrefix(lines[0], "RULE"))
	assert.Contains(t, lines[2], "Base score")
	assert.Contains(t, lines[2], "yes")
	assert.Regexp(t, `^TOTAL\s+100`, lines[len(lines)-1])
}

func TestResolvePlan(t *testing.T) {
	catalog := billing.NewCatalog(config.BillingConfig{ProPriceID: "price_pro", PremiumPriceID: "price_premium"})

	p, err := resolvePlan(catalog, "pro", "")
	require.NoError(t, err)
	assert.Equal(t, billing.PlanPro, p)

	p, err = resolvePlan(catalog, "", "price_premium")
	require.NoError(t, err)
	assert.Equal(t, billing.PlanPremium, p)

	p, err = resolvePlan(catalog, "", "price_unknown")
	require.NoError(t, err)
	assert.Equal(t, billing.PlanFree, p)

	_, err = resolvePlan(catalog, "gold", "")
	assert.ErrorContains(t, err, "unknown plan")

	_, err = resolvePlan(catalog, "pro", "price_pro")
	assert.Error(t, err)

	_, err = resolvePlan(catalog, "", "")
	assert.Error(t, err)
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitSender_Disabled(t *testing.T) {
	withConfig(t, &config.Config{})

	sender, err := initSender(context.Background())
	require.NoError(t, err)
	assert.IsType(t, outreach.LogSender{}, sender)
}

func TestInitSelector_SearchTermsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pet:\n  - dog groomer\n"), 0o600))
	withConfig(t, &config.Config{
		Google:    config.GoogleConfig{Key: "k", BaseURL: "http://localhost"},
		Discovery: config.DiscoveryConfig{SearchTermsFile: path, RateLimit: 1},
	})

	sel, err := initSelector()
	require.NoError(t, err)
	assert.NotNil(t, sel)
}

func TestInitSelector_MissingTermsFile(t *testing.T) {
	withConfig(t, &config.Config{
		Discovery: config.DiscoveryConfig{SearchTermsFile: filepath.Join(t.TempDir(), "nope.yaml")},
	})

	_, err := initSelector()
	assert.Error(t, err)
}

func TestInitEnv_SQLite(t *testing.T) {
	withConfig(t, &config.Config{
		Store:  config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "leads.db")},
		Google: config.GoogleConfig{Key: "k", BaseURL: "http://localhost"},
		Discovery: config.DiscoveryConfig{
			RateLimit:   5,
			Interactive: discovery.InteractiveBudget,
			Autonomous:  discovery.AutonomousBudget,
		},
		Cron: config.CronConfig{Concurrency: 2},
	})

	env, err := initEnv(context.Background(), "daily")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Store)
	assert.NotNil(t, env.Leadgen)
	assert.NotNil(t, env.Daily)

	report, err := env.Daily.RunDaily(context.Background(), testNow())
	require.NoError(t, err)
	assert.Zero(t, report.UsersProcessed)
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: "x.db"}})

	_, err := initEnv(context.Background(), "generate")
	assert.ErrorContains(t, err, "google.key is required")
}

func testNow() time.Time {
	return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
}
