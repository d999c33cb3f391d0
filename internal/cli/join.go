package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/client"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/config"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/ui"
)

var (
	flagName     string
	flagServer   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagLanguage string
	flagVersion  string
	flagVideo    bool
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id>",
	Aliases: []string{"j"},
	Short:   "Join a collaboration room",
	Long: `Join a named room on the relay server. Any name/room-id pair is
accepted; the room is created on first join.

Examples:
  collab join standup --name alice
  collab join standup --name bob --video
  collab join standup --name carol --server wss://collab.example.com/ws`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return joinRoom(args[0])
	},
}

func joinRoom(roomID string) error {
	cfg, err := config.Load(config.Options{
		Server:     flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return client.NewError("load config", err)
	}

	name := flagName
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		return fmt.Errorf("a display name is required (--name)")
	}

	fmt.Println()
	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	session, err := client.Dial(cfg)
	stopSpinner()
	if err != nil {
		return err
	}
	defer session.Close()

	session.Join(roomID, name)

	if flagVideo {
		if err := session.EnableVideo(); err != nil {
			// Video is strictly additive; editing continues without it.
			ui.PrintError(err.Error())
		}
	}

	model := ui.NewRoomModel(session, flagLanguage, flagVersion)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return client.NewError("run room view", err)
	}

	ui.PrintSessionSummary(model.Summary())
	return nil
}

func init() {
	joinCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name shown to the room")
	joinCmd.Flags().StringVarP(&flagServer, "server", "s", "", "Relay websocket URL or host:port")
	joinCmd.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	joinCmd.Flags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	joinCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	joinCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	joinCmd.Flags().StringVarP(&flagLanguage, "language", "l", "python", "Language for execution requests")
	joinCmd.Flags().StringVar(&flagVersion, "language-version", "3.10.0", "Language version for execution requests")
	joinCmd.Flags().BoolVar(&flagVideo, "video", false, "Join the room's video call on start")

	rootCmd.AddCommand(joinCmd)
}
