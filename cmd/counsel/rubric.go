package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/linnemanlabs/go-core/log"
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/counsel/internal/postgres"
	"github.com/linnemanlabs/counsel/internal/rubric"
	"github.com/linnemanlabs/counsel/internal/rubric/pgsource"
)

func newRubricCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rubric",
		Short: "Validate, inspect and publish rubric documents",
	}
	cmd.AddCommand(
		newRubricValidateCmd(),
		newRubricShowCmd(),
		newRubricPushCmd(),
	)
	return cmd
}

func newRubricValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check that a rubric document loads (default: embedded rubric)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			rb, err := loadRubric(cmd.Context(), path)
			if err != nil {
				return err
			}
			s := rb.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d red flags, %d question templates, %d guardrails\n",
				s.RedFlags, s.QuestionTemplates, s.SafeGuardrails)
			return nil
		},
	}
}

func newRubricShowCmd() *cobra.Command {
	var (
		path   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a rubric summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rb, err := loadRubric(cmd.Context(), path)
			if err != nil {
				return err
			}
			s := rb.Summary()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			version := s.Version
			if version == "" {
				version = "(unversioned)"
			}
			fmt.Fprintf(out, "Version            %s\n", version)
			fmt.Fprintf(out, "Red flags          %d\n", s.RedFlags)
			fmt.Fprintf(out, "Question templates %d\n", s.QuestionTemplates)
			fmt.Fprintf(out, "Guardrails         %d\n", s.SafeGuardrails)
			fmt.Fprintf(out, "Default routing    %s\n", s.RoutingPolicy.Default)
			fmt.Fprintf(out, "Threshold          %.2f\n", s.RoutingPolicy.ConfidenceThreshold)
			fmt.Fprintf(out, "Missing info       %s\n", s.RoutingPolicy.MissingInfoAction)
			fmt.Fprintf(out, "Codes              %s\n", strings.Join(s.Codes, ", "))
			fmt.Fprintf(out, "Conditions         %s\n", strings.Join(s.Conditions, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "rubric", "", "rubric YAML file (default: embedded rubric)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newRubricPushCmd() *cobra.Command {
	var (
		databaseURL string
		name        string
	)
	cmd := &cobra.Command{
		Use:   "push <path>",
		Short: "Validate a rubric file and store it in PostgreSQL",
		Long: `Validate a rubric file and store it in PostgreSQL under --name, replacing
any previous version. Servers pick it up on restart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if databaseURL == "" {
				databaseURL = os.Getenv("COUNSEL_DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("--database-url or COUNSEL_DATABASE_URL is required")
			}

			doc, err := os.ReadFile(args[0])
			if err != nil {
				return &rubric.ConfigError{Source: args[0], Err: fmt.Errorf("read: %w", err)}
			}
			// fail before connecting when the document is invalid
			if _, err := rubric.Load(ctx, rubric.BytesSource{Label: args[0], Data: doc}); err != nil {
				return err
			}

			pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolOptions{Logger: log.Nop(), MaxConns: 1})
			if err != nil {
				return err
			}
			defer pool.Close()

			store, err := pgsource.New(ctx, pool)
			if err != nil {
				return err
			}
			rb, err := store.Put(ctx, name, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored rubric %q (%d red flags)\n", name, len(rb.RedFlags))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (default: $COUNSEL_DATABASE_URL)")
	cmd.Flags().StringVar(&name, "name", "default", "rubric name")
	return cmd
}
