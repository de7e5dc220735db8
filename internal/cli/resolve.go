package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"idlookup/internal/app"
	"idlookup/internal/holidays"
	"idlookup/internal/platform/logger"
	"idlookup/internal/platform/metrics"
	dErrors "idlookup/pkg/domain-errors"
)

// ResolveResult is the JSON shape of a resolution.
type ResolveResult struct {
	DecodeResult
	SearchCount      int64              `json:"search_count"`
	IsNewUser        bool               `json:"is_new_user"`
	HolidaysDegraded bool               `json:"holidays_degraded"`
	Holidays         []holidays.Holiday `json:"holidays"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id-number>",
		Short: "Resolve an identity number against the configured store",
		Long: `Resolve an identity number exactly as the server does: the search
counter is incremented and, on first sight, birth-day holidays are fetched
and stored. Uses the same environment configuration as the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), rootOpts, args[0], &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()})
		},
	}
}

func runResolve(ctx context.Context, opts *RootOptions, raw string, out *OutputFormatter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	// Logs go to stderr so JSON output stays parseable.
	application, err := app.Build(ctx, cfg, logger.NewWithWriter(os.Stderr, cfg.Server.LogLevel), metrics.New())
	if err != nil {
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer application.Close() //nolint:errcheck // best-effort on exit
	defer application.FlushAudit(ctx)

	outcome, err := application.Service.Resolve(ctx, raw)
	if err != nil {
		code := ExitCommandError
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			code = ExitRejected
		}
		return out.EmitError(string(dErrors.CodeOf(err)), err.Error(), WrapExitError(code, "resolve failed", err))
	}

	result := ResolveResult{
		DecodeResult: DecodeResult{
			IDNumber:       outcome.IDNumber.String(),
			BirthDate:      outcome.BirthDate,
			Gender:         string(outcome.Gender),
			ResidentStatus: string(outcome.ResidentStatus),
		},
		SearchCount:      outcome.SearchCount,
		IsNewUser:        outcome.IsNewUser,
		HolidaysDegraded: outcome.HolidaysDegraded,
		Holidays:         outcome.Holidays,
	}
	return out.Emit(result, []Field{
		{"ID number", result.IDNumber},
		{"Birth date", result.BirthDate},
		{"Gender", result.Gender},
		{"Resident status", result.ResidentStatus},
		{"Search count", result.SearchCount},
		{"New user", result.IsNewUser},
		{"Holidays", holidayNames(result.Holidays, result.HolidaysDegraded)},
	})
}

func holidayNames(hs []holidays.Holiday, degraded bool) string {
	if len(hs) == 0 {
		if degraded {
			return "none available"
		}
		return "none"
	}
	names := make([]string, 0, len(hs))
	for _, h := range hs {
		names = append(names, h.Name+" ("+h.Type+")")
	}
	return strings.Join(names, ", ")
}
