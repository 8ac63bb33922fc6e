package commands

import (
	"fmt"

	"regdoc-scraper/scraper"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists the supported sites.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range scraper.Names() {
			site, err := scraper.Lookup(name, scraper.SiteOptions{})
			if err != nil {
				return err
			}
			_, native := site.(scraper.DateFilterer)
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s (native date filter: %t)\n", name, site.StartURL(), native)
		}
		return nil
	},
}
