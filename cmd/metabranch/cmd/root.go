package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metabranch",
	Short: "metabranch manages versioned accounts stored on branches",
	Long: `metabranch stores account records as commits on per-account branches
of a content-addressable ref store. Every change is an atomic commit with full
history, concurrent changes are reconciled with optimistic retries.
`,
}

// used to patch over calls to os.Exit() during test
var logFatalln = log.Fatalln

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&params.root.storePath, "store-path", "", "base directory of the local store (default $HOME/.metabranch/store)")
	pf.StringVar(&params.root.repoName, "repo", "accounts", "name of the repository holding account branches")
	pf.StringVar(&params.root.loglevel, "loglevel", "info", "log level (debug|info|none)")
	pf.StringVar(&params.root.serviceName, "service-name", "metabranch", "name the service signs commits with")
	pf.StringVar(&params.root.serviceEmail, "service-email", "metabranch@localhost", "email the service signs commits with")
	pf.StringVar(&params.root.userName, "as-name", "", "act as this user (author name)")
	pf.StringVar(&params.root.userEmail, "as-email", "", "act as this user (author email)")

	for _, flag := range []string{"store-path", "repo", "loglevel", "service-name", "service-email"} {
		_ = viper.BindPFlag(flag, pf.Lookup(flag))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile := os.Getenv("METABRANCH_CONFIG"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.metabranch")
		viper.AddConfigPath("/etc/metabranch")
		viper.SetConfigName("metabranch")
	}

	viper.SetEnvPrefix("metabranch")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	for _, assign := range []struct {
		key    string
		target *string
	}{
		{"store-path", &params.root.storePath},
		{"repo", &params.root.repoName},
		{"loglevel", &params.root.loglevel},
		{"service-name", &params.root.serviceName},
		{"service-email", &params.root.serviceEmail},
	} {
		if v := viper.GetString(assign.key); v != "" {
			*assign.target = v
		}
	}
}
