package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the audio cache",
	Long:  paragraph(fmt.Sprintf("\n%s the on-disk audio cache used by --cache.", keyword("Manage"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dc, err := openCache(cfg.Cache)
		if err != nil {
			return err
		}
		defer dc.Close() //nolint:errcheck

		stats := dc.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s %d entries, %s\n",
			keyword("Directory:"), dc.Dir(),
			keyword("Contents:"), stats.ItemCount, humanize.Bytes(uint64(stats.Size))) //nolint:gosec
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached clip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dc, err := openCache(cfg.Cache)
		if err != nil {
			return err
		}
		defer dc.Close() //nolint:errcheck

		before := dc.Stats()
		if err := dc.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries (%s)\n", before.ItemCount, humanize.Bytes(uint64(before.Size))) //nolint:gosec
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
