package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/hierarchy"
	"github.com/mj1618/overlay-cli/internal/output"
)

var viewportCmd = &cobra.Command{
	Use:   "viewport [file]",
	Short: "Extract the declared viewport size from a hierarchy dump",
	Long: "Parse a UI-hierarchy dump and report the coordinate-space width/height it\n" +
		"declares, preferring the root bounds, then the largest rectangle anchored at\n" +
		"the origin, then the largest rectangle anywhere. Reads stdin when file is '-'.",
	Args: cobra.MaximumNArgs(1),
	RunE: runViewport,
}

func init() {
	rootCmd.AddCommand(viewportCmd)
	viewportCmd.Flags().Bool("elements", false, "Also list the parsed elements with bounds")
	viewportCmd.Flags().Bool("clickable", false, "With --elements, list only clickable elements")
}

func runViewport(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readHierarchyFile(path)
	if err != nil {
		return err
	}

	vp := hierarchy.ExtractViewport(text)
	if vp == nil {
		return fmt.Errorf("no viewport bounds found in hierarchy")
	}

	withElements, _ := cmd.Flags().GetBool("elements")
	if !withElements {
		return output.Print(vp)
	}

	elements := hierarchy.ParseElements(text)
	if clickable, _ := cmd.Flags().GetBool("clickable"); clickable {
		elements = hierarchy.FilterClickable(elements)
	}
	return output.Print(struct {
		Viewport *hierarchy.Viewport `yaml:"viewport" json:"viewport"`
		Elements []hierarchy.Element `yaml:"elements" json:"elements"`
	}{vp, elements})
}
