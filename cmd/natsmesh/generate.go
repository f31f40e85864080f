package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/service"
	"github.com/natsmesh/natsmesh/internal/signer"
	"github.com/natsmesh/natsmesh/internal/validation"
	"github.com/spf13/cobra"
)

var (
	outputDir      string
	nscPath        string
	nscStoreDir    string
	fakeSigner     bool
	signerTimeout  time.Duration
	signerRetries  uint64
	strictEdges    bool
	requireSysAcct bool
)

func init() {
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", "out", "Directory for generated configs and creds files")
	generateCmd.Flags().StringVar(&nscPath, "nsc", "nsc", "Path to the nsc binary")
	generateCmd.Flags().StringVar(&nscStoreDir, "store-dir", "", "nsc store directory (default: <output>/nsc)")
	generateCmd.Flags().BoolVar(&fakeSigner, "fake-signer", false, "Use the in-memory signer instead of nsc")
	generateCmd.Flags().DurationVar(&signerTimeout, "signer-timeout", 30*time.Second, "Per-call signer timeout")
	generateCmd.Flags().Uint64Var(&signerRetries, "signer-retries", 3, "Retries for transient signer failures")
	generateCmd.Flags().BoolVar(&strictEdges, "strict-symmetry", false, "Require cluster and gateway edges to be declared on both endpoints")
	generateCmd.Flags().BoolVar(&requireSysAcct, "require-system-account", false, "Require one account to be flagged as the system account")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [topology.json]",
	Short: "Issue the credential hierarchy and write node configurations",
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

		var sgn signer.Signer
		if fakeSigner {
			sgn = signer.NewFake()
		} else {
			storeDir := nscStoreDir
			if storeDir == "" {
				storeDir = filepath.Join(outputDir, "nsc")
			}
			nsc, err := signer.NewNSC(nscPath, storeDir)
			if err != nil {
				return fmt.Errorf("initializing nsc signer: %w", err)
			}
			sgn = nsc
		}

		builder := credential.NewBuilder(sgn, signerTimeout, signerRetries)
		engine := service.NewEngine(builder, validation.Options{
			StrictSymmetry:       strictEdges,
			RequireSystemAccount: requireSysAcct,
		})

		result, err := engine.Generate(cmd.Context(), t)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for _, f := range result.Artifacts.Files() {
			path := filepath.Join(outputDir, f.Name)
			if err := os.WriteFile(path, []byte(f.Content), 0600); err != nil {
				return fmt.Errorf("writing %s: %w", f.Name, err)
			}
			fmt.Println("Wrote", path)
		}

		fmt.Printf("Issued %d credentials, wrote %d node configs\n",
			result.Credentials.Len(), len(result.Artifacts.NodeConfigs))
		return nil
	},
}
