package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SessionSummary is printed after the live view exits.
type SessionSummary struct {
	RoomID      string
	DisplayName string
	Duration    time.Duration
	Members     int
	PeersLinked int
	LastOutput  string
}

// PrintSessionSummary renders the end-of-session stats table.
func PrintSessionSummary(s SessionSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetTitle("Session Summary")

	t.AppendRow(table.Row{"Room", s.RoomID})
	t.AppendRow(table.Row{"Name", s.DisplayName})
	t.AppendRow(table.Row{"Duration", s.Duration.Round(time.Second).String()})
	t.AppendRow(table.Row{"Members at exit", s.Members})
	t.AppendRow(table.Row{"Video peers linked", s.PeersLinked})

	t.Render()

	if s.LastOutput != "" {
		fmt.Println(MutedStyle.Render("Last execution output:"))
		fmt.Println(s.LastOutput)
	}
}
