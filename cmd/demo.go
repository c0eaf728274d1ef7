package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/config"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a todo and sign up a user against a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c := newClient(cfg)
		ctx := cmd.Context()

		todo, err := c.CreateTodo(ctx, api.TodoInput{
			Title:       "Go to gym",
			Description: "As a man, avoid the drama and hit the gym",
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Todo created with id :", todo.ID)

		signUp, err := c.SignUp(ctx, api.SignUpInput{
			Email:    "OneTwoThree@gmail.com",
			Password: "SecurePassword123",
		})
		if err != nil {
			return err
		}
		b, err := json.Marshal(signUp)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}
