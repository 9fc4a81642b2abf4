package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/linnemanlabs/go-core/log"
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/counsel/internal/report"
	"github.com/linnemanlabs/counsel/internal/triage"
)

type checkOptions struct {
	in           triage.Input
	rubricPath   string
	asJSON       bool
	compact      bool
	noColor      bool
	failOnReview bool
}

func newCheckCmd() *cobra.Command {
	var o checkOptions

	cmd := &cobra.Command{
		Use:   "check [description]",
		Short: "Triage a description with optional context",
		Long: `Triage a description. The description comes from --description, the
positional arguments, or stdin when neither is given. Unset context flags
are treated as unknown and may trigger clarifying questions.`,
		Example: `  counsel check -d "Before/after photos with a 30% discount" -e public -u no_collection
  echo "Collect phone numbers for a giveaway" | counsel check --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, &o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.in.Description, "description", "d", "", "description to triage")
	f.StringVarP((*string)(&o.in.Exposure), "exposure", "e", "", "public | members_only | specific_group | internal_test")
	f.StringVarP((*string)(&o.in.DataUsage), "data-usage", "u", "", "collects | no_collection | unclear")
	f.StringVarP((*string)(&o.in.RevenueModel), "revenue", "r", "", "free | paid_once | subscription | ads | commission")
	f.StringVarP((*string)(&o.in.ExternalCommunication), "communication", "c", "", "customer_facing | media | internal")
	f.StringVarP((*string)(&o.in.CrossBorder), "cross-border", "b", "", "domestic_only | includes_overseas | unclear")
	f.StringVar(&o.rubricPath, "rubric", "", "rubric YAML file (default: embedded rubric)")
	f.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	f.BoolVar(&o.compact, "compact", false, "with --json, print on a single line")
	f.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	f.BoolVar(&o.failOnReview, "fail-on-review", false, "exit with status 2 when legal review is required")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, o *checkOptions) error {
	ctx := cmd.Context()

	in := o.in
	if in.Description == "" {
		desc, err := describe(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		in.Description = desc
	}

	rb, err := loadRubric(ctx, o.rubricPath)
	if err != nil {
		return err
	}

	res, err := triage.NewEngine(rb, log.Nop(), triage.EngineHooks{}).Triage(ctx, &in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		data, err := report.JSON(res, !o.compact)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, report.Human(res, report.Options{Color: !o.noColor}))
	}

	if o.failOnReview && res.RecommendedNextStep == triage.NextLegalReview {
		return errNeedsReview
	}
	return nil
}

// describe joins positional arguments, falling back to stdin.
func describe(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func newQuickCmd() *cobra.Command {
	var rubricPath string

	cmd := &cobra.Command{
		Use:   "quick <description>",
		Short: "Triage a description and print a one-line summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rb, err := loadRubric(ctx, rubricPath)
			if err != nil {
				return err
			}
			in := triage.Input{Description: strings.Join(args, " ")}
			res, err := triage.NewEngine(rb, log.Nop(), triage.EngineHooks{}).Triage(ctx, &in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&rubricPath, "rubric", "", "rubric YAML file (default: embedded rubric)")
	return cmd
}
