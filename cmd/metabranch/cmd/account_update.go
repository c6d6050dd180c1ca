package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update [account-id]",
	Short: "Update an existing account",
	Long: `Update fields of an existing account.

Only the fields named on the command line change, everything else is
left as it was. Setting a field to the value it already has produces
no new commit.`,
	Example: `% metabranch account update 1000042 --status "on vacation" --meta team=storage`,
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

		account, err := updater.Update(context.Background(), id, fn)
		if err != nil {
			wrapFatalln("update account", err)
			return
		}
		if account == nil {
			wrapFatalln(fmt.Sprintf("didn't find account %d", id), nil)
			return
		}
		if err := printAccount(cmd, account); err != nil {
			wrapFatalln("render account", err)
			return
		}
	},
}

func init() {
	addAccountFieldFlags(accountUpdateCmd)
	accountCmd.AddCommand(accountUpdateCmd)
}
