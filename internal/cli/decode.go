package cli

import (
	"github.com/spf13/cobra"

	"idlookup/pkg/domain"
)

// DecodeResult is the JSON shape of a decoded identity number.
type DecodeResult struct {
	IDNumber       string `json:"id_number"`
	BirthDate      string `json:"birth_date"`
	Gender         string `json:"gender"`
	ResidentStatus string `json:"resident_status"`
}

// NewDecodeCommand creates the offline decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <id-number>",
		Short: "Validate an identity number and print what it encodes",
		Long: `Validate an identity number offline and print the birth date, gender
and residency it encodes. Nothing is stored and no provider is called.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args[0], &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()})
		},
	}
}

func runDecode(raw string, out *OutputFormatter) error {
	decoded, err := domain.DecodeIDNumber(raw)
	if err != nil {
		kind, _ := domain.ValidationKindOf(err)
		return out.EmitError(string(kind), err.Error(), WrapExitError(ExitRejected, "invalid ID number", err))
	}

	result := DecodeResult{
		IDNumber:       decoded.IDNumber.String(),
		BirthDate:      decoded.BirthDate.String(),
		Gender:         string(decoded.Gender),
		ResidentStatus: string(decoded.ResidentStatus),
	}
	return out.Emit(result, []Field{
		{"ID number", result.IDNumber},
		{"Birth date", result.BirthDate},
		{"Gender", result.Gender},
		{"Resident status", result.ResidentStatus},
	})
}
