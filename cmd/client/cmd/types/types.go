package types

import (
	"errors"

	"github.com/spf13/cobra"

	"farmsync/internal/app/client"
)

type contextKey string

// ClientAppKey ключ *client.App в контексте команды
const ClientAppKey contextKey = "app"

// App достает клиент, созданный в PersistentPreRunE
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, errors.New("приложение не инициализировано")
	}
	return app, nil
}
