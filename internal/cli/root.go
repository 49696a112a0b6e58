package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
)

// Reindexer rebuilds the search index from the store.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// App holds the services the operator commands run against.
type App struct {
	Suggestions service.SuggestionService
	Merges      service.MergeService
	Metrics     service.MetricsService
	Search      Reindexer
}

// operator is the identity suggestctl acts as. It bypasses ownership checks
// the same way an admin would through the API.
var operator = model.Principal{
	UserID:      "suggestctl",
	UserDetails: "suggestctl",
	UserRoles:   []string{"admin"},
	IsAdmin:     true,
	DisplayName: "suggestctl",
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "suggestctl",
		Short:         "Operator tooling for the suggestion box",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSweepMergesCmd(app),
		newMetricsCmd(app),
		newReindexCmd(app),
		newGetCmd(app),
	)

	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
