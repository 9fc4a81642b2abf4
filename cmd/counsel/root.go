package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

// errNeedsReview is returned by check --fail-on-review when the result
// requires legal review. main maps it to exit status 2.
var errNeedsReview = errors.New("legal review required")

func newRootCmd() *cobra.Command {
	v.AppName = "counsel"
	v.Component = "cli"

	root := &cobra.Command{
		Use:   "counsel",
		Short: "Conservative legal-risk triage for product and marketing plans",
		Long: `counsel classifies a free-text product, feature or campaign description
as needing formal legal review (TYPE_1) or safe to proceed under
guardrails (TYPE_2), using a declarative rubric.`,
		Version:       v.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCheckCmd(),
		newQuickCmd(),
		newRubricCmd(),
	)
	return root
}

// loadRubric reads path, or the embedded default when path is empty.
func loadRubric(ctx context.Context, path string) (*rubric.Rubric, error) {
	if path == "" {
		return rubric.Load(ctx, rubric.DefaultSource())
	}
	return rubric.Load(ctx, rubric.FileSource{Path: path})
}
