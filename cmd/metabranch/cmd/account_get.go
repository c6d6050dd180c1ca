package cmd

import (
	"context"
	"fmt"

	"github.com/metabranch/metabranch/pkg/core"
	"github.com/spf13/cobra"
)

var accountGetCmd = &cobra.Command{
	Use:   "get [account-id]",
	Short: "Get account info by id",
	Long: `Performs a direct lookup of one account by id.
Prints the account record if it exists, fails otherwise.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, err := accountIDArg(args)
		if err != nil {
			wrapFatalln("parse account id", err)
			return
		}
		mgr, err := storeFromFlags()
		if err != nil {
			wrapFatalln("initialize store", err)
			return
		}

		account, err := core.GetAccount(context.Background(), mgr, params.root.repoName, id)
		if err != nil {
			wrapFatalln("read account", err)
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
	accountCmd.AddCommand(accountGetCmd)
}
