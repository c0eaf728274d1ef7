package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/typed-rpc/internal/config"
)

var callCmd = &cobra.Command{
	Use:     "call PROCEDURE [JSON_INPUT]",
	Short:   "Call any procedure with raw JSON input and print the result",
	Example: `  typed-rpc call createTodo '{"title":"Go to gym","description":"today"}'`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		input := json.RawMessage(`{}`)
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("input is not valid JSON: %s", args[1])
			}
			input = json.RawMessage(args[1])
		}

		var out json.RawMessage
		if err := newClient(cfg).Call(cmd.Context(), args[0], input, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
