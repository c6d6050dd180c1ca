package cmd

import (
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

// accountCmd groups the account-level operations
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Commands to manage accounts",
	Long: `Commands to manage accounts.

An account is a versioned record kept on its own branch of the store.
Every mutation becomes a commit, so the full history of an account is
retained.`,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func wrapFatalln(msg string, err error) {
	if err != nil {
		logFatalln(msg + ": " + err.Error())
		return
	}
	logFatalln(msg)
}

func printAccount(cmd *cobra.Command, account *model.AccountDescriptor) error {
	buf, err := yaml.Marshal(account)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf)
	return err
}
