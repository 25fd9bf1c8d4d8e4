package cmd

import (
	"log"

	"github.com/illinispots/pipeline/pkg/building"
	"github.com/spf13/cobra"
)

var (
	hoursPath   string
	geojsonPath string
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add opening hours and coordinates to filtered_buildings.json",
	Long: `Reads the hours sheet and the campus GeoJSON and attaches each
building's weekly hours and coordinates. Buildings missing from either source
are listed but kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := building.Load(dataPath(filteredFile))
		if err != nil {
			return err
		}
		if err := enrichBuildings(doc); err != nil {
			return err
		}
		if err := building.Save(dataPath(filteredFile), doc); err != nil {
			return err
		}
		log.Println("Wrote", dataPath(filteredFile))
		return nil
	},
}

func enrichBuildings(doc *building.Document) error {
	sheet, err := building.LoadHours(orDataPath(hoursPath, hoursFile))
	if err != nil {
		return err
	}
	missing, err := building.ApplyHours(doc, sheet)
	if err != nil {
		return err
	}
	for _, name := range missing {
		log.Println("Warning: no hours for", name)
	}

	fc, _, err := building.LoadGeoJSON(orDataPath(geojsonPath, geojsonFile))
	if err != nil {
		return err
	}
	for _, name := range building.ApplyCoordinates(doc, fc) {
		log.Println("Warning: no coordinates for", name)
	}
	return nil
}

// orDataPath returns path, or the named file in the data directory when
// path is empty.
func orDataPath(path, name string) string {
	if path != "" {
		return path
	}
	return dataPath(name)
}

func addEnrichFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&hoursPath, "hours", "", "Building hours sheet (default {data-dir}/"+hoursFile+")")
	cmd.Flags().StringVar(&geojsonPath, "geojson", "", "Campus building GeoJSON (default {data-dir}/"+geojsonFile+")")
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	addEnrichFlags(enrichCmd)
}
