package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/basaltdb/basalt/pkg/lsm"
)

func newIndexCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage an LSM key index",
		Long: `Index commands operate on an LSM key index rooted at --path. Segment
files live next to the base path as <path>.NNNNN.sst.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Base path of the index (required)")
	_ = cmd.MarkPersistentFlagRequired("path")

	cmd.AddCommand(
		newIndexPutCmd(&path),
		newIndexGetCmd(&path),
		newIndexDelCmd(&path),
		newIndexCompactCmd(&path),
		newIndexStatCmd(&path),
	)
	return cmd
}

func openIndex(path string, mode lsm.Mode) (*lsm.Tree, error) {
	return lsm.Open(path, mode, cfg.LSM.MemtableBytes)
}

func parseKey(s string) (int64, error) {
	k, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return k, nil
}

func newIndexPutCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <offset>",
		Short: "Record a key to offset mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			offset, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[1], err)
			}
			tree, err := openIndex(*path, lsm.ReadWrite)
			if err != nil {
				return err
			}
			if err := tree.Put(key, offset); err != nil {
				tree.Close()
				return err
			}
			return tree.Close()
		},
	}
}

func newIndexGetCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Look up the offset for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			tree, err := openIndex(*path, lsm.ReadOnly)
			if err != nil {
				return err
			}
			defer tree.Close()

			offset, ok := tree.Get(key)
			switch {
			case !ok:
				return fmt.Errorf("key %d not found", key)
			case offset == lsm.Tombstone:
				return fmt.Errorf("key %d deleted", key)
			default:
				fmt.Println(offset)
				return nil
			}
		},
	}
}

func newIndexDelCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Write a tombstone for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			tree, err := openIndex(*path, lsm.ReadWrite)
			if err != nil {
				return err
			}
			if err := tree.Delete(key); err != nil {
				tree.Close()
				return err
			}
			return tree.Close()
		},
	}
}

func newIndexCompactCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Merge all segments into one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openIndex(*path, lsm.ReadWrite)
			if err != nil {
				return err
			}
			if err := tree.Compact(); err != nil {
				tree.Close()
				return err
			}
			return tree.Close()
		},
	}
}

func newIndexStatCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openIndex(*path, lsm.ReadOnly)
			if err != nil {
				return err
			}
			defer tree.Close()

			segs := tree.Segments()
			fmt.Printf("segments: %d\n", len(segs))
			var total int64
			for i, n := range segs {
				fmt.Printf("  [%d] %d entries\n", i, n)
				total += n
			}
			fmt.Printf("total entries: %d\n", total)
			fmt.Printf("memtable budget: %d entries\n", tree.MemMax())
			return nil
		},
	}
}
