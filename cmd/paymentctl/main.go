// Command paymentctl runs payment engine maintenance jobs against the
// configured database: migrations, settlement runs and reconciliation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Operate the content payment engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return env.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&env.configPath, "config", "", "config file (defaults to CONFIG_PATH or config/config.yaml)")

	rootCmd.AddCommand(migrateCmd(env))
	rootCmd.AddCommand(settleCmd(env))
	rootCmd.AddCommand(approveSettlementCmd(env))
	rootCmd.AddCommand(reconcileCmd(env))
	rootCmd.AddCommand(renewCmd(env))
	rootCmd.AddCommand(tokenCmd(env))

	return rootCmd
}
