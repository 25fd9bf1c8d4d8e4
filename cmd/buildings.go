package cmd

import (
	"log"

	"github.com/illinispots/pipeline/pkg/building"
	"github.com/illinispots/pipeline/pkg/scrape"
	"github.com/spf13/cobra"
)

// buildingsCmd represents the buildings command
var buildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "Reshape subjects.json into buildings.json",
	Long: `Reads the scraped catalog and regroups every section under the
building and room it meets in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := scrape.LoadCatalog(dataPath(subjectsFile))
		if err != nil {
			return err
		}
		doc := building.FromCatalog(catalog)
		if err := building.Save(dataPath(buildingsFile), doc); err != nil {
			return err
		}
		log.Println("Wrote", dataPath(buildingsFile))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildingsCmd)
}
