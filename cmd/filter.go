package cmd

import (
	"log"

	"github.com/illinispots/pipeline/pkg/building"
	"github.com/spf13/cobra"
)

var minRooms int

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Drop small and excluded buildings into filtered_buildings.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := building.Load(dataPath(buildingsFile))
		if err != nil {
			return err
		}
		filtered := filterBuildings(doc)
		if err := building.Save(dataPath(filteredFile), filtered); err != nil {
			return err
		}
		log.Println("Wrote", dataPath(filteredFile))
		return nil
	},
}

func filterBuildings(doc *building.Document) *building.Document {
	threshold := cfg.Buildings.MinRooms
	if minRooms > 0 {
		threshold = minRooms
	}
	return building.Filter(doc, threshold, cfg.Buildings.ExcludedSet())
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().IntVar(&minRooms, "min-rooms", 0, "Minimum rooms a building needs (default from config)")
}
