package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"research_copilot_go_backend/cmd/api/config"
	"research_copilot_go_backend/internal/services"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

var outDir string

var rootCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the paper pipeline stages against local PDF files",
}

var textCmd = &cobra.Command{
	Use:   "text [file.pdf...]",
	Short: "Extract plain text from PDFs",
	Long:  `Extracts text page by page. With --out, each PDF is written to <out>/<name>.txt; otherwise text goes to stdout.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runText,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file.pdf]",
	Short: "Extract and summarize one PDF with Gemini",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	textCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for extracted .txt files")
	rootCmd.AddCommand(textCmd, summarizeCmd)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runText(cmd *cobra.Command, args []string) error {
	extractor := services.NewPDFTextExtractor()
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}
	}

	failed := 0
	for _, path := range args {
		doc, err := extractFile(cmd.Context(), extractor, path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Extraction failed")
			failed++
			continue
		}
		log.Info().Str("file", path).Int("pages", doc.PageCount).Int("chars", len(doc.Text)).Msg("Extracted")

		if outDir == "" {
			fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(doc.Text), 0o644); err != nil {
			log.Error().Err(err).Str("file", name).Msg("Write failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	doc, err := extractFile(ctx, services.NewPDFTextExtractor(), args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%s has no extractable text", args[0])
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	defer client.Close()

	summarizer := services.NewGeminiSummarizer(client, cfg.Gemini.Model, cfg.Gemini.Timeout)
	reply, err := summarizer.Summarize(ctx, services.Truncate(doc.Text, cfg.Gemini.MaxInputChars))
	if err != nil {
		return err
	}
	result, err := services.ParseSummary(reply)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func extractFile(ctx context.Context, extractor *services.PDFTextExtractor, path string) (services.ExtractedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.ExtractedDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	return extractor.ExtractText(ctx, data)
}
