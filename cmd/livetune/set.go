package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/livetune"
	"github.com/dshills/livetune/format"
)

var setCommand = &cobra.Command{
	Use:          "set <file> <key> <value>",
	Short:        "Set one parameter and write the file back",
	Args:         cobra.ExactArgs(3),
	RunE:         setMain,
	SilenceUsage: true,
}

var setConfiguration struct {
	formatName string
	// create writes a new file when the target does not exist.
	create bool
}

func init() {
	flags := setCommand.Flags()
	flags.StringVarP(&setConfiguration.formatName, "format", "f", "auto", "File format (auto, keyvalue, plain, json, yaml, toml)")
	flags.BoolVarP(&setConfiguration.create, "create", "c", false, "Create the file if it does not exist")
}

func setMain(command *cobra.Command, arguments []string) error {
	path, key, value := arguments[0], arguments[1], arguments[2]

	f, err := parseFormatName(setConfiguration.formatName)
	if err != nil {
		return err
	}
	f = format.Resolve(f, path)
	if f == format.Lua {
		return fmt.Errorf("lua files are read-only")
	}

	// Read-modify-write through the parser; a missing or empty file
	// starts a fresh value map when --create is given.
	values := map[string]string{}
	content, err := livetune.ReadFileOS(path, livetune.DefaultRetryPolicy())
	switch {
	case err == nil:
		if values, err = format.Parse(content, f); err != nil {
			return err
		}
	case errors.Is(err, livetune.ErrFileNotFound) && setConfiguration.create:
	case errors.Is(err, livetune.ErrFileEmpty):
	default:
		return err
	}

	values[key] = value
	data, err := format.Marshal(values, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("%s = %s\n", key, value)
	return nil
}
