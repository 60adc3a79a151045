package sync

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farmsync/cmd/client/cmd/types"
	"farmsync/internal/domain/sync"
)

var pullAll bool

var PullCmd = &cobra.Command{
	Use:   "pull [entity...]",
	Short: "Забрать изменения с сервера",
	Long: `Забирает записи, измененные на сервере после последнего pull, и сохраняет их
в локальной базе. Без аргументов обрабатывает все сущности:
farms, boundary-points, observation-points, inspection-suggestions, inspection-observations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		entities := sync.Order
		if len(args) > 0 {
			entities = make([]sync.EntityType, 0, len(args))
			for _, arg := range args {
				entity, err := sync.ParseEntityType(strings.ReplaceAll(arg, "-", "_"))
				if err != nil {
					return err
				}
				entities = append(entities, entity)
			}
		}

		for _, entity := range entities {
			res, err := app.Pull(cmd.Context(), entity, pullAll)
			if err != nil {
				return fmt.Errorf("pull %s: %w", entity, err)
			}

			line := fmt.Sprintf("%-24s получено %d, всего локально %d", entity, res.Received, res.Stored)
			if res.Received > 0 {
				color.Green("✓ %s (до %s)", line, res.Watermark)
			} else {
				fmt.Printf("  %s\n", line)
			}
		}
		return nil
	},
}

func init() {
	PullCmd.Flags().BoolVar(&pullAll, "all", false, "игнорировать сохраненную отметку и забрать все записи")
}
