package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pokepalette/internal/palette"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the configured special cases",
		Long: `List the per-sprite special cases loaded from the special_cases table of the
config file.

Example config:
  special_cases:
    "25":
      mode: mostFrequent
      value: 10
    "151":
      mode: handPickedColors
      colours: ["#f8b8d0", "#6890c8"]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := a.cfg.Rules()
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No special cases configured.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), rulesTable(rules).Render())
			return nil
		},
	}
}

func rulesTable(rules palette.Rules) *Table {
	table := NewTable([]string{"ID", "Mode", "Value", "Colours"})
	table.SetColumnMaxWidth(3, 40)
	for _, id := range rules.IDs() {
		rule := rules[id]
		value := "-"
		if rule.Value != 0 {
			value = strconv.Itoa(rule.Value)
		}
		hexes := make([]string, 0, len(rule.Colours))
		for _, c := range rule.Colours {
			hexes = append(hexes, c.Hex())
		}
		colours := "-"
		if len(hexes) > 0 {
			colours = strings.Join(hexes, " ")
		}
		table.AddRow([]string{strconv.Itoa(id), string(rule.Mode), value, colours})
	}
	return table
}
