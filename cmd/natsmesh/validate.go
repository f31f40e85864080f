package main

import (
	"fmt"
	"os"

	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/validation"
	"github.com/spf13/cobra"
)

var (
	strictSymmetry bool
	needSystemAcct bool
)

func init() {
	validateCmd.Flags().BoolVar(&strictSymmetry, "strict-symmetry", false, "Require cluster and gateway edges to be declared on both endpoints")
	validateCmd.Flags().BoolVar(&needSystemAcct, "require-system-account", false, "Require one account to be flagged as the system account")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [topology.json]",
	Short: "Validate a topology document without issuing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading topology: %w", err)
		}

		t, err := domain.ParseDocument(data)
		if err != nil {
			return err
		}

		violations := validation.ValidateTopology(t, validation.Options{
			StrictSymmetry:       strictSymmetry,
			RequireSystemAccount: needSystemAcct,
		})
		if violations.HasViolations() {
			for _, v := range violations {
				fmt.Fprintln(os.Stderr, v.Error())
			}
			return fmt.Errorf("%d violation(s) found", len(violations))
		}

		fmt.Printf("Topology %q is valid: %d accounts, %d users, %d nodes\n",
			t.Name, len(t.Accounts()), len(t.Users()), len(t.Nodes()))
		return nil
	},
}
