package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fgeck/gowake/internal/services/alias"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "List the alias table",
	Long: `Load the alias file and print each alias with its MAC address,
flagging entries whose MAC does not validate. The file is never modified.`,
	RunE: listAliases,
}

func listAliases(cmd *cobra.Command, args []string) error {
	path := aliasFile
	if path == "" {
		path = alias.DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No alias file at %s\n", path)
		return nil
	}

	table := alias.New(log.Logger).Load(path)
	if len(table) == 0 {
		fmt.Printf("Alias file %s defines no aliases\n", path)
		return nil
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Aliases in %s:\n", path)
	fmt.Println()

	invalid := 0
	for _, name := range names {
		mac := table[name]
		if _, err := wol.ParseMAC(mac); err != nil {
			invalid++
			fmt.Printf("  %s -> %s (invalid MAC)\n", name, mac)
			continue
		}
		fmt.Printf("  %s -> %s\n", name, mac)
	}

	fmt.Println()
	fmt.Printf("  %d alias(es), %d invalid\n", len(table), invalid)

	return nil
}
