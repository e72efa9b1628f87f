package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basaltdb/basalt/pkg/row"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and validate schema files",
	}
	cmd.AddCommand(newSchemaCheckCmd(), newSchemaShowCmd())
	return cmd
}

func newSchemaCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <schema.json>",
		Short: "Validate a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := row.OpenMeta(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d columns)\n", meta.Name, len(meta.Columns))
			return nil
		},
	}
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <schema.json>",
		Short: "Print the columns of a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := row.OpenMeta(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("schema %s (version %g)\n", meta.Name, meta.Version)
			for i, c := range meta.Columns {
				line := fmt.Sprintf("%3d  %-24s %s", i, c.Name, c.Type)
				switch {
				case c.Type == "DECIMAL":
					line += fmt.Sprintf("(%d,%d)", c.Width, c.Precision)
				case c.Width > 0:
					line += fmt.Sprintf("(%d)", c.Width)
				}
				if c.NotNull {
					line += " NOT NULL"
				}
				if c.Default != "" {
					line += fmt.Sprintf(" DEFAULT %q", c.Default)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
