package commands

import (
	"fmt"
	"os"

	"hcpresearch-backend/services/prescriptions"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var prescriptionFlags struct {
	dataDir string
	section int
	by      string
}

func init() {
	prescriptionsCmd.PersistentFlags().StringVar(&prescriptionFlags.dataDir, "data-dir", ".",
		"directory containing the prescription_*.csv extracts")
	prescriptionsCmd.PersistentFlags().IntVar(&prescriptionFlags.section, "section", 0,
		"restrict to one BNF section code (0 = all)")
	topDrugsCmd.Flags().StringVar(&prescriptionFlags.by, "by", prescriptions.ByCost,
		"rank by \"cost\" or \"items\"")
	prescriptionsCmd.AddCommand(topDrugsCmd)
	prescriptionsCmd.AddCommand(topRegionsCmd)
	rootCmd.AddCommand(prescriptionsCmd)
}

var prescriptionsCmd = &cobra.Command{
	Use:   "prescriptions",
	Short: "Summarizes the NHS prescription CSV extracts.",
}

var topDrugsCmd = &cobra.Command{
	Use:   "top-drugs",
	Short: "Prints the top 10 chemical substances by cost or items dispensed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := prescriptions.NewService(cmd.Context(), prescriptionFlags.dataDir)
		if err != nil {
			return err
		}
		drugs, err := service.TopDrugs(cmd.Context(), prescriptionFlags.section, prescriptionFlags.by)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Chemical Substance", "Net Ingredient Cost", "Items Dispensed"})
		for _, d := range drugs {
			t.AppendRow(table.Row{
				d.ChemicalSubstance,
				fmt.Sprintf("£%.2f", d.Nic),
				d.Items,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var topRegionsCmd = &cobra.Command{
	Use:   "top-regions",
	Short: "Prints the top 10 regions by items dispensed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := prescriptions.NewService(cmd.Context(), prescriptionFlags.dataDir)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Region", "Net Ingredient Cost", "Items Dispensed"})
		for _, r := range service.TopRegions(cmd.Context(), prescriptionFlags.section) {
			t.AppendRow(table.Row{
				r.RegionName,
				fmt.Sprintf("£%.2f", r.Nic),
				r.Items,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
