package docs

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"gopkg.in/yaml.v3"
)

var outputDir string
var rootCmd *cobra.Command

func NewDocsCmd(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate CLI documentation",
		Long:  "Generate Markdown documentation and a navigation index for all commands in this CLI application",
		Run:   Docs,
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "./cli-docs", "Output directory for the generated docs")
	rootCmd = root
	return cmd
}

func Docs(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(outputDir); err == nil {
		log.Info().Msg("Output directory exists, deleting...")
		if err := os.RemoveAll(outputDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete existing output directory")
		}
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	rootCmd.DisableAutoGenTag = true
	if err := doc.GenMarkdownTreeCustom(rootCmd, outputDir, filePrepender, linkHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate CLI docs")
	}

	if err := writeNavYaml(rootCmd, outputDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to write navigation index")
	}

	log.Info().Str("folder", outputDir).Msg("Markdown successfully generated")
}

func filePrepender(filename string) string {
	return ""
}

func linkHandler(s string) string {
	if s == "repoguard.md" {
		return "/"
	}

	s = strings.TrimPrefix(s, "repoguard_")
	s = strings.TrimSuffix(s, ".md")
	s = strings.ReplaceAll(s, "_", "/")
	return "/" + s
}

type navEntry struct {
	Label    string
	FilePath string
	Children []*navEntry
}

func buildNav(cmd *cobra.Command, parentPath string) *navEntry {
	titleCaser := cases.Title(language.Und, cases.NoLower)
	entry := &navEntry{
		Label:    titleCaser.String(cmd.Name()),
		FilePath: filepath.ToSlash(filepath.Join(parentPath, docFileName(cmd))),
	}

	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		entry.Children = append(entry.Children, buildNav(c, parentPath))
	}

	return entry
}

func docFileName(cmd *cobra.Command) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", "_") + ".md"
}

func convertNavToYaml(entries []*navEntry) []map[string]interface{} {
	yamlList := []map[string]interface{}{}
	for _, e := range entries {
		if len(e.Children) == 0 {
			yamlList = append(yamlList, map[string]interface{}{
				e.Label: strings.TrimSuffix(e.FilePath, ".md"),
			})
		} else {
			yamlList = append(yamlList, map[string]interface{}{
				e.Label: convertNavToYaml(e.Children),
			})
		}
	}
	return yamlList
}

func writeNavYaml(rootCmd *cobra.Command, outputDir string) error {
	rootEntry := buildNav(rootCmd, "")
	nav := convertNavToYaml(rootEntry.Children)

	yamlData, err := yaml.Marshal(map[string]interface{}{"nav": nav})
	if err != nil {
		return err
	}

	filename := filepath.Join(outputDir, "nav.yml")
	return os.WriteFile(filename, yamlData, 0644)
}
