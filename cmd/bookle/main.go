package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaitwalla/bookle"
)

var rootCmd = &cobra.Command{
	Use:   "bookle",
	Short: "Convert ebooks between formats",
	Long: `bookle converts ebooks between formats through a shared intermediate
representation.

Inputs:  EPUB, KEPUB, MOBI/AZW, LIT, Markdown, PDF (text extraction)
Outputs: EPUB, KEPUB, Typst markup (compile to PDF with the typst CLI)`,
}

var convertCmd = &cobra.Command{
	Use:   "convert INPUT",
	Short: "Convert an ebook to another format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		outputPath, _ := cmd.Flags().GetString("output")
		to, _ := cmd.Flags().GetString("to")

		from := formatExtension(inputPath)
		if to == "" {
			if outputPath == "" {
				return fmt.Errorf("either --output or --to is required")
			}
			to = formatExtension(outputPath)
		}
		if outputPath == "" {
			enc := bookle.EncoderForFormat(to)
			if enc == nil {
				return fmt.Errorf("unknown output format %q", to)
			}
			outputPath = strings.TrimSuffix(inputPath, "."+from) + "." + enc.FileExtension()
		}

		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		log.Printf("Converting: %s -> %s", inputPath, outputPath)

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		if err := bookle.Convert(data, from, to, out); err != nil {
			out.Close()
			os.Remove(outputPath)
			return fmt.Errorf("conversion failed: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		log.Printf("Done: %s", outputPath)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info INPUT",
	Short: "Print metadata and chapter list of an ebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		b, err := bookle.Decode(data, formatExtension(args[0]))
		if err != nil {
			return fmt.Errorf("failed to decode: %w", err)
		}

		md := b.Metadata
		fmt.Printf("Title:      %s\n", md.Title)
		if len(md.Authors) > 0 {
			fmt.Printf("Authors:    %s\n", strings.Join(md.Authors, ", "))
		}
		fmt.Printf("Language:   %s\n", md.Language)
		fmt.Printf("Identifier: %s\n", md.Identifier)
		if md.Publisher != "" {
			fmt.Printf("Publisher:  %s\n", md.Publisher)
		}
		fmt.Printf("Chapters:   %d\n", len(b.Chapters))
		fmt.Printf("Resources:  %d\n", b.Resources.Len())
		for i, ch := range b.Chapters {
			fmt.Printf("  %3d. %s\n", i+1, ch.Title)
		}
		return nil
	},
}

// formatExtension returns the format token for a path, recognizing the
// compound .kepub.epub extension.
func formatExtension(p string) string {
	name := strings.ToLower(filepath.Base(p))
	if strings.HasSuffix(name, ".kepub.epub") {
		return "kepub.epub"
	}
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "Output file path (default: input with the output format's extension)")
	convertCmd.Flags().String("to", "", "Output format (default: inferred from --output)")
	rootCmd.AddCommand(convertCmd, infoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
