package commands

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"regdoc-scraper/config"
	"regdoc-scraper/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSitesCommand(t *testing.T) {
	out := execute(t, "sites")

	assert.Contains(t, out, "echa     https://echa.europa.eu (native date filter: true)")
	assert.Contains(t, out, "eurlex   https://eur-lex.europa.eu (native date filter: false)")
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config")

	assert.Contains(t, out, "site: echa")
	assert.Contains(t, out, "page_limit: 0")
}

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{}
	f := cmd.Flags()
	f.StringVar(&runFlags.site, "site", "", "")
	f.IntVar(&runFlags.pages, "pages", 0, "")
	f.StringSliceVar(&runFlags.keywords, "keyword", nil, "")
	f.DurationVar(&runFlags.every, "every", 0, "")
	f.StringVar(&runFlags.outputDir, "output", "", "")

	require.NoError(t, f.Set("site", "eurlex"))
	require.NoError(t, f.Set("keyword", "benzene"))
	require.NoError(t, f.Set("keyword", "CAS: 71-43-2"))
	require.NoError(t, f.Set("every", "12h"))

	cfg := config.GetDefaultConfig()
	cfg.PageLimit = 4
	cfg.Keywords = []string{"from file"}
	applyRunFlags(cmd, cfg)

	assert.Equal(t, "eurlex", cfg.Site)
	assert.Equal(t, []string{"benzene", "CAS: 71-43-2"}, cfg.Keywords)
	assert.Equal(t, 12*time.Hour, cfg.Schedule.Interval)
	// Unset flags leave the file values alone
	assert.Equal(t, 4, cfg.PageLimit)
	assert.Equal(t, "data/raw", cfg.OutputDir)
}

func TestPrintReport(t *testing.T) {
	report := models.RunReport{
		ID:   "run-1",
		Site: "echa",
		Keywords: []models.KeywordReport{
			{Keyword: "benzene", PagesVisited: 3, Documents: 6, Pages: 3, Tables: 1},
			{Keyword: "toluene", Err: errors.New("search failed")},
		},
	}

	var out bytes.Buffer
	printReport(&out, report)
	text := out.String()

	assert.Contains(t, text, "Run run-1 on echa: partial\n")
	assert.Contains(t, text, "1. benzene\n   Result pages: 3\n   Documents: 6\n   Pages: 3 (1 tables)\n")
	assert.Contains(t, text, "2. toluene\n")
	assert.Contains(t, text, "   Error: search failed\n")
	assert.Contains(t, text, "Total: 6 documents, 3 pages\n")
}
