package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/logging"
)

func newClipboardCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clipboard",
		Aliases: []string{"clip"},
		Short:   "Read and write the system clipboard",
	}
	cmd.AddCommand(
		newClipboardReadCmd(c, "copy", "Print the clipboard contents (like pbpaste)", false),
		newClipboardReadCmd(c, "cut", "Print the clipboard contents and clear it", true),
		newClipboardPushCmd(c),
	)
	return cmd
}

func newClipboardReadCmd(c *cli, use, short string, cut bool) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Text is written to stdout. Images are written as PNG to --output, or to
stdout when stdout is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				read := caps.Copy
				if cut {
					read = caps.Cut
				}
				content, err := read(cmd.Context())
				if err != nil {
					return err
				}
				return c.writeClipboard(cmd.OutOrStdout(), content, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the contents to this file instead of stdout")
	return cmd
}

// writeClipboard prints content to w, or saves it to path when set.
func (c *cli) writeClipboard(w io.Writer, content bridge.ClipboardContent, path string) error {
	if c.jsonOut {
		return printJSON(w, content)
	}

	var data []byte
	switch content.Kind {
	case bridge.KindImage:
		data = content.Image.PNG
		if path == "" && logging.IsTTY(w) {
			return errors.New("clipboard holds an image; use --output or redirect stdout")
		}
	default:
		data = []byte(content.Text)
	}

	if path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	_, err := w.Write(data)
	return err
}

func newClipboardPushCmd(c *cli) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "push [text...]",
		Short: "Replace the clipboard contents (like pbcopy)",
		Long: `Replace the clipboard contents with the given text, a PNG file (--image),
or stdin when neither is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readClipboardInput(cmd.InOrStdin(), args, image)
			if err != nil {
				return err
			}
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				return caps.Push(cmd.Context(), content)
			})
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "push this PNG file instead of text")
	return cmd
}

// readClipboardInput builds the content to push from args, an image file
// or stdin, in that order.
func readClipboardInput(stdin io.Reader, args []string, imagePath string) (bridge.ClipboardContent, error) {
	if imagePath != "" {
		if len(args) > 0 {
			return bridge.ClipboardContent{}, errors.New("--image cannot be combined with text arguments")
		}
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return bridge.ClipboardContent{}, fmt.Errorf("read image: %w", err)
		}
		return bridge.ImageContent(data), nil
	}
	if len(args) > 0 {
		return bridge.TextContent(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return bridge.ClipboardContent{}, fmt.Errorf("read stdin: %w", err)
	}
	return bridge.TextContent(string(data)), nil
}
