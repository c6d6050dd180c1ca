package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [account-id]",
	Short: "Delete an account",
	Long: `Delete an account and its whole branch history.

Deleting an account that does not exist is not an error.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, err := accountIDArg(args)
		if err != nil {
			wrapFatalln("parse account id", err)
			return
		}
		updater, err := updaterFromFlags()
		if err != nil {
			wrapFatalln("initialize store", err)
			return
		}

		if err := updater.Delete(context.Background(), id); err != nil {
			wrapFatalln("delete account", err)
			return
		}
	},
}

func init() {
	accountCmd.AddCommand(accountDeleteCmd)
}
