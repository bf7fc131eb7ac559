package cmd

import (
	"os"
	"time"

	"github.com/CompassSecurity/repoguard/cmd/branch"
	"github.com/CompassSecurity/repoguard/cmd/docs"
	"github.com/CompassSecurity/repoguard/cmd/gh"
	"github.com/CompassSecurity/repoguard/cmd/scan"
	"github.com/CompassSecurity/repoguard/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "repoguard",
		Short: "🛡️ Enforce branch naming and secret hygiene policies 🛡️",
		Long:  "Repoguard checks branch names against a naming policy, scans files for credential-like strings and audits branch protection rules. 🛡️",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				logging.InitJSONLogging()
			}
			logging.SetLogLevel(verbose)
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(branch.NewBranchRootCmd())
	rootCmd.AddCommand(scan.NewScanCmd())
	rootCmd.AddCommand(gh.NewGitHubRootCmd())
	rootCmd.AddCommand(docs.NewDocsCmd(rootCmd))
	rootCmd.AddCommand(NewVersionCmd())

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose log output")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "", false, "Raw JSON log output")

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
