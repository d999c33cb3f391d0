package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "collab",
	Short: "Terminal client for the real-time collaborative code editor",
	Long: `Collab joins a shared editing room from the terminal: everyone in the
room edits one code buffer, runs it against the execution service, and can
join the room's video call. The relay server holds the authoritative room
state; this client mirrors it.`,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
