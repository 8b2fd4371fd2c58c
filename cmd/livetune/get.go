package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/livetune"
	"github.com/dshills/livetune/format"
)

var getCommand = &cobra.Command{
	Use:          "get <file> [<key>]",
	Short:        "Read a parameter file and print its values",
	Args:         cobra.RangeArgs(1, 2),
	RunE:         getMain,
	SilenceUsage: true,
}

var getConfiguration struct {
	// formatName pins the file format instead of detecting it.
	formatName string
}

func init() {
	flags := getCommand.Flags()
	flags.StringVarP(&getConfiguration.formatName, "format", "f", "auto", "File format (auto, keyvalue, plain, json, yaml, toml, lua)")
}

func getMain(command *cobra.Command, arguments []string) error {
	path := arguments[0]

	f, err := parseFormatName(getConfiguration.formatName)
	if err != nil {
		return err
	}
	f = format.Resolve(f, path)

	content, err := livetune.ReadFileOS(path, livetune.DefaultRetryPolicy())
	if err != nil {
		return err
	}
	values, err := format.Parse(content, f)
	if err != nil {
		return err
	}

	if len(arguments) == 2 {
		key := arguments[1]
		v, ok := values[key]
		if !ok {
			return fmt.Errorf("key %q not found in %s", key, path)
		}
		fmt.Println(v)
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s = %s\n", k, values[k])
	}
	return nil
}
