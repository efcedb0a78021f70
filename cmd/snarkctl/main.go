package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/proofmesh/snarkgate/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var gatewayURL string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snarkctl",
	Short: "SNARK gateway CLI",
	Long: `snarkctl is the command-line interface for the snarkgate proof
submission gateway.

It allows you to submit zero-knowledge proofs and to inspect, list, and
delete submissions on a running gateway.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.AutomaticEnv()
		if gatewayURL == "" {
			gatewayURL = viper.GetString("snarkgate_url")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "gateway base URL (default http://localhost:8080, env SNARKGATE_URL)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── submit ───────────────────────────────────────────────────────────────────

var (
	submitProofFile string
	submitVKFile    string
	submitSystem    string
	submitSubmitter string
	submitInputs    []string
	submitNotes     string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a proof to the gateway",
	Long: `Submit reads a proof and verification key from disk, Base64-encodes
them, and posts the submission:

  snarkctl submit --proof proof.bin --vk vk.bin --system groth16 --submitter alice \
      --input 42 --input 7 --notes "batch 3"`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitProofFile, "proof", "", "path to the proof file (required)")
	submitCmd.Flags().StringVar(&submitVKFile, "vk", "", "path to the verification key file (required)")
	submitCmd.Flags().StringVar(&submitSystem, "system", "groth16", "proof system tag")
	submitCmd.Flags().StringVar(&submitSubmitter, "submitter", "", "submitter name (required)")
	submitCmd.Flags().StringArrayVar(&submitInputs, "input", nil, "public input (repeatable, in order)")
	submitCmd.Flags().StringVar(&submitNotes, "notes", "", "free-form notes")
	submitCmd.MarkFlagRequired("proof")     //nolint:errcheck
	submitCmd.MarkFlagRequired("vk")        //nolint:errcheck
	submitCmd.MarkFlagRequired("submitter") //nolint:errcheck
}

func runSubmit(cmd *cobra.Command, args []string) error {
	proof, err := os.ReadFile(submitProofFile)
	if err != nil {
		return fmt.Errorf("read proof: %w", err)
	}
	vk, err := os.ReadFile(submitVKFile)
	if err != nil {
		return fmt.Errorf("read verification key: %w", err)
	}

	c, err := client.New(gatewayURL)
	if err != nil {
		return err
	}

	result, err := c.Submit(context.Background(), &client.SubmitRequest{
		Proof:           base64.StdEncoding.EncodeToString(proof),
		PublicInputs:    submitInputs,
		VerificationKey: base64.StdEncoding.EncodeToString(vk),
		ProofSystem:     submitSystem,
		Submitter:       submitSubmitter,
		Notes:           submitNotes,
	})
	if err != nil {
		return err
	}

	if result.ID != nil {
		fmt.Printf("submitted: id=%d (%s)\n", *result.ID, result.Message)
	} else {
		fmt.Printf("submitted: %s\n", result.Message)
	}
	return nil
}

// ── get ──────────────────────────────────────────────────────────────────────

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one submission as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		c, err := client.New(gatewayURL)
		if err != nil {
			return err
		}
		details, err := c.Get(context.Background(), id)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// ── list ─────────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(gatewayURL)
		if err != nil {
			return err
		}
		result, err := c.List(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYSTEM\tSUBMITTER\tSUBMITTED\tSTATUS\tNOTES")
		for _, s := range result.Snarks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.ProofSystem, s.Submitter, s.Submitted, s.Status, s.Notes)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("total: %d\n", result.Total)
		return nil
	},
}

// ── delete ───────────────────────────────────────────────────────────────────

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		c, err := client.New(gatewayURL)
		if err != nil {
			return err
		}
		result, err := c.Delete(context.Background(), id)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snarkctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("snarkctl", version)
	},
}
