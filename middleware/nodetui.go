package middleware

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/deemkeen/mammut/db"
	"github.com/deemkeen/mammut/federation"
	"github.com/deemkeen/mammut/ui/nodeadmin"
	"github.com/muesli/termenv"
)

// NodeTui serves the node admin panel over SSH.
func NodeTui(database *db.DB, syncer *federation.Syncer) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {
		pty, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		m := nodeadmin.InitialModel(database, syncer, pty.Window.Width, pty.Window.Height)
		return tea.NewProgram(m, tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}
