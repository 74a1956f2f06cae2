package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/eldermate/internal/assistant"
	"github.com/dmitrijs2005/eldermate/internal/config"
	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/dmitrijs2005/eldermate/internal/memstore"
)

// App holds the REPL state: the assistant core plus the current session.
type App struct {
	core   *assistant.Assistant
	log    logging.Logger
	reader *bufio.Reader

	phone string
	token string
}

func NewApp(cfg *config.Config, log logging.Logger) *App {
	return &App{
		core:   assistant.New(cfg, log),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Eldermate (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) status() string {
	if a.phone == "" {
		return ""
	}
	return "(" + a.phone + ")"
}

// memory returns the logged-in user's memory store. The REPL never
// dispatches memory commands without a session, so phone is always set here.
func (a *App) memory() *memstore.Store {
	return a.core.Memory(a.phone)
}
