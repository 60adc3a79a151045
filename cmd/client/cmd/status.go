package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farmsync/cmd/client/cmd/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Состояние клиента и сервера",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		st, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Сервер:      %s ", st.Server)
		if st.ServerErr != nil {
			color.Red("недоступен (%v)", st.ServerErr)
		} else {
			color.Green("доступен")
		}

		if st.Authenticated {
			fmt.Printf("Пользователь: %s\n", st.Email)
		} else {
			color.Yellow("Пользователь: вход не выполнен")
		}
		fmt.Printf("Устройство:  %s\n", st.DeviceID)

		if st.LastPush != nil {
			fmt.Printf("Последний push: %s в %s (создано %d, обновлено %d, ошибок %d)\n",
				st.LastPush.File, st.LastPush.PushedAt.Local().Format("2006-01-02 15:04:05"),
				st.LastPush.Created, st.LastPush.Updated, st.LastPush.Failed)
		}

		if len(st.Watermarks) == 0 {
			fmt.Println("Pull еще не выполнялся")
			return nil
		}
		fmt.Println("Отметки pull:")
		for _, entity := range slices.Sorted(maps.Keys(st.Watermarks)) {
			fmt.Printf("  %-24s %s\n", entity, st.Watermarks[entity])
		}
		return nil
	},
}
