package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var accountCreateCmd = &cobra.Command{
	Use:   "create [account-id]",
	Short: "Create a new account",
	Long: `Create a new account on its own branch.

The command fails if an account with this id already exists. Fields
left unset keep their defaults (active, empty name, email and status).`,
	Example: `% metabranch account create 1000042 --name "Jane Doe" --email jane@example.com`,
	Run: func(cmd *cobra.Command, args []string) {
		id, err := accountIDArg(args)
		if err != nil {
			wrapFatalln("parse account id", err)
			return
		}
		fn, err := updaterFromFieldFlags(cmd)
		if err != nil {
			wrapFatalln("parse account fields", err)
			return
		}
		updater, err := updaterFromFlags()
		if err != nil {
			wrapFatalln("initialize store", err)
			return
		}

		account, err := updater.Insert(context.Background(), id, fn)
		if err != nil {
			wrapFatalln("create account", err)
			return
		}
		if err := printAccount(cmd, account); err != nil {
			wrapFatalln("render account", err)
			return
		}
	},
}

func init() {
	addAccountFieldFlags(accountCreateCmd)
	accountCmd.AddCommand(accountCreateCmd)
}
