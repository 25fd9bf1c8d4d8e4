package cmd

import (
	"log"

	"github.com/illinispots/pipeline/pkg/building"
	"github.com/spf13/cobra"
)

var stylePath string

// styleCmd represents the style command
var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Embed the campus GeoJSON into the map style",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, raw, err := building.LoadGeoJSON(orDataPath(geojsonPath, geojsonFile))
		if err != nil {
			return err
		}
		if err := building.UpdateStyleFile(stylePath, cfg.Style.Source, raw); err != nil {
			return err
		}
		for _, f := range fc.Features {
			log.Println("Added building:", f.Properties.Name)
		}
		log.Println("Updated", cfg.Style.Source, "source in", stylePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(styleCmd)
	styleCmd.Flags().StringVar(&stylePath, "style", "public/map/style.json", "Map style JSON to update in place")
	styleCmd.Flags().StringVar(&geojsonPath, "geojson", "", "Campus building GeoJSON (default {data-dir}/"+geojsonFile+")")
}
