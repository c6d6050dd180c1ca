package cmd

import (
	"context"

	"github.com/metabranch/metabranch/pkg/core"
	"github.com/spf13/cobra"
)

var listConcurrency int

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Long:  `List all accounts in the repository, ordered by id.`,
	Run: func(cmd *cobra.Command, args []string) {
		mgr, err := storeFromFlags()
		if err != nil {
			wrapFatalln("initialize store", err)
			return
		}

		accounts, err := core.ListAccounts(context.Background(), mgr, params.root.repoName,
			core.ConcurrentList(listConcurrency),
		)
		if err != nil {
			wrapFatalln("list accounts", err)
			return
		}
		for _, account := range accounts {
			if err := printAccount(cmd, account); err != nil {
				wrapFatalln("render account", err)
				return
			}
		}
	},
}

func init() {
	accountListCmd.Flags().IntVar(&listConcurrency, "concurrency-factor", 8, "number of accounts read concurrently")
	accountCmd.AddCommand(accountListCmd)
}
