package auth

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farmsync/cmd/client/cmd/types"
	"farmsync/internal/domain/user"
)

var role string

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать нового пользователя",
	Long: `Регистрация нового пользователя на сервере farmsync.

После регистрации токен сохраняется локально, повторный вход не нужен.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		r := user.Role(role)
		if !r.Valid() {
			return fmt.Errorf("неизвестная роль %q, допустимо: farmer, stakeholder", role)
		}

		fmt.Println("=== Регистрация нового пользователя ===")

		email, err := readLine("Email: ")
		if err != nil {
			return err
		}
		name, err := readLine("Имя: ")
		if err != nil {
			return err
		}
		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Повторите пароль: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("пароли не совпадают")
		}

		u, err := app.Register(cmd.Context(), user.RegisterRequest{
			Email:    email,
			Name:     name,
			Role:     r,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}

		color.Green("✓ Пользователь %s зарегистрирован (id %d, роль %s)", u.Email, u.ID, u.Role)
		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVar(&role, "role", string(user.RoleFarmer), "роль: farmer или stakeholder")
}
