// Package cli implements the interactive ragchat client: a small REPL on
// top of the session manager and the application services.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ragchat/internal/client/api"
	"github.com/dmitrijs2005/ragchat/internal/client/config"
	"github.com/dmitrijs2005/ragchat/internal/client/services"
	"github.com/dmitrijs2005/ragchat/internal/client/session"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// App wires the session manager, transport and services together and
// hosts the REPL command handlers.
type App struct {
	config    *config.Config
	manager   *session.Manager
	chat      services.ChatService
	history   services.HistoryService
	admin     services.AdminService
	apiClient api.Client
	db        *sql.DB
	log       logging.Logger
	reader    *bufio.Reader
}

// NewApp composes the client. Composition order matters: the refresh
// coordinator is built around the bare API client, the session transport
// around the coordinator, and only then is the transport installed for
// authorized calls.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := session.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	origin := uuid.NewString()
	store := session.NewStore(db, origin, log)

	apiClient := api.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)
	coordinator := session.NewRefreshCoordinator(store, apiClient, log)
	transport := session.NewTransport(nil, store, coordinator, c.RefreshMargin, log)
	apiClient.UseAuthorizedTransport(transport)

	manager := session.NewManager(apiClient, store, coordinator, session.Options{
		Margin:          c.RefreshMargin,
		RescheduleFloor: c.RescheduleFloor,
		WatchInterval:   c.WatchInterval,
	}, log.With("ctx_id", origin))

	return &App{
		config:    c,
		manager:   manager,
		chat:      services.NewChatService(apiClient),
		history:   services.NewHistoryService(apiClient),
		admin:     services.NewAdminService(apiClient),
		apiClient: apiClient,
		db:        db,
		log:       log,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores any stored session, starts cross-context watching and
// enters the REPL. Returns when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	defer a.manager.Stop()
	defer a.apiClient.Close()
	defer a.db.Close()

	if id := a.manager.Identity(); id != nil {
		printlnFn("Welcome back,", id.Username)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.manager.Identity() != nil
}

func (a *App) status() string {
	if id := a.manager.Identity(); id != nil {
		return id.Username
	}
	return "guest"
}
