package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/livetune/format"
)

var initCommand = &cobra.Command{
	Use:          "init <file>",
	Short:        "Write a starter template for the file's format",
	Args:         cobra.ExactArgs(1),
	RunE:         initMain,
	SilenceUsage: true,
}

var initConfiguration struct {
	formatName string
	force      bool
}

func init() {
	flags := initCommand.Flags()
	flags.StringVarP(&initConfiguration.formatName, "format", "f", "auto", "File format (auto, keyvalue, plain, json, yaml, toml, lua)")
	flags.BoolVar(&initConfiguration.force, "force", false, "Overwrite an existing file")
}

func initMain(command *cobra.Command, arguments []string) error {
	path := arguments[0]

	f, err := parseFormatName(initConfiguration.formatName)
	if err != nil {
		return err
	}
	f = format.Resolve(f, path)

	if _, err := os.Stat(path); err == nil && !initConfiguration.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, format.Template(f), 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s template to %s\n", f, path)
	return nil
}
