package middleware

import (
	"log"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/deemkeen/mammut/util"
)

// AuthMiddleware logs the connecting public key. Key-based access control
// happens in the server's public key handler, this only leaves a trail.
func AuthMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			util.LogPublicKey(s)
			log.Printf("Ssh: Admin session from %s", s.RemoteAddr())
			h(s)
		}
	}
}
