package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"govdoc/internal/content"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the blocks of a document body as JSON",
	Long:  `Reads HTML or plain text from file (or stdin when omitted or "-") and prints the paragraphs, headings and lists the layout engine will draw.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

type blockView struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Level   int      `json:"level,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Items   []string `json:"items,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	body, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	blocks := content.Parse(string(body))
	out := make([]blockView, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockView{
			Kind:    b.Kind.String(),
			Text:    b.Text,
			Level:   b.Level,
			Ordered: b.Ordered,
			Items:   b.Items,
		})
	}
	return printJSON(cmd, out)
}

// readInput reads path, or the command input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
