// cmd/styles.go - Style inspection command
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valpere/boundary_staticmap/pkg/style"
)

// stylesCmd represents the styles command
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Print the effective style of every area type",
	Long: `Print the style table after configuration overrides are merged into the
built-in defaults. The YAML output can be pasted into the styles section of
a config file as a starting point.

Examples:
  # Show the effective styles
  boundary-staticmap styles

  # Show only the default styles, ignoring configuration
  boundary-staticmap styles --defaults --format json`,
	RunE: runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)

	stylesCmd.Flags().StringP("format", "f", "yaml", "output format (yaml, json)")
	stylesCmd.Flags().Bool("defaults", false, "print the built-in defaults")
}

func runStyles(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	defaults, _ := cmd.Flags().GetBool("defaults")

	table := style.DefaultTable()
	if !defaults {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table = cfg.Styles
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(map[string]style.Table{"styles": table})
	case "json":
		data, err = json.MarshalIndent(table, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("invalid format: %s (must be 'yaml' or 'json')", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode styles: %w", err)
	}

	_, err = os.Stdout.Write(data)
	return err
}
