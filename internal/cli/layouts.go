package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/sink"
	"github.com/matzehuels/spritepack/pkg/sprite/positioner"
)

var layoutDescriptions = map[string]string{
	positioner.NameColumn:  "stack images vertically in input order",
	positioner.NameMinArea: "shelf packing, smallest canvas area",
}

var formatDescriptions = map[string]string{
	sink.FormatCSS:  "one class per image with background-position",
	sink.FormatSCSS: "variables, a sprite map and nested rules",
	sink.FormatJSON: "frames keyed by image id",
}

// layoutsCommand creates the layouts command.
func (c *CLI) layoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List packing strategies and metadata formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			p := newPrinter(cmd.OutOrStdout())
			p.heading("Layouts")
			for _, name := range positioner.Names() {
				label := name
				if name == positioner.DefaultName {
					label += " (default)"
				}
				p.entry(label, layoutDescriptions[name])
			}
			p.blank()
			p.heading("Formats")
			for _, name := range sink.FormatNames() {
				p.entry(name, formatDescriptions[name])
			}
		},
	}
}
