package sync

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farmsync/cmd/client/cmd/types"
	"farmsync/internal/domain/sync"
)

var verbose bool

var PushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Отправить пакет синхронизации",
	Long: `Отправляет JSON файл в формате sync-data:

  {"farms": [...], "boundary_points": [...], "observation_points": [...],
   "inspection_suggestions": [...], "inspection_observations": [...]}

Пакет проверяется локально до отправки. Сервер применяет его в одной транзакции,
ошибки отдельных записей не отменяют остальные.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		report, entry, err := app.Push(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Синхронизация %s в %s\n", entry.File, report.Timestamp.Format("2006-01-02 15:04:05"))
		for _, entity := range sync.Order {
			results := report.Results.Get(entity)
			if len(results) == 0 {
				continue
			}
			fmt.Printf("  %s: %d\n", entity, len(results))
			for _, r := range results {
				printResult(r)
			}
		}

		summary := fmt.Sprintf("создано %d, обновлено %d, ошибок %d", entry.Created, entry.Updated, entry.Failed)
		if entry.Failed > 0 {
			color.Yellow("⚠ %s", summary)
		} else {
			color.Green("✓ %s", summary)
		}
		return nil
	},
}

func printResult(r sync.Result) {
	if r.Status != sync.StatusFailed && !verbose {
		return
	}

	mobileID := "-"
	if r.MobileID != nil {
		mobileID = fmt.Sprint(*r.MobileID)
	}

	switch r.Status {
	case sync.StatusFailed:
		color.Red("    mobile_id %s: %s", mobileID, r.Message)
	default:
		fmt.Printf("    mobile_id %s: %s, server_id %d\n", mobileID, r.Status, *r.ServerID)
	}
}

func init() {
	PushCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "показать все записи, а не только ошибки")
}
