package main

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/pitts/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Check speech engines and audio output",
	Long:    paragraph(fmt.Sprintf("\n%s that the speech engines, converters and audio devices pitts uses are installed.", keyword("Check"))),
	Example: paragraph("pitts doctor"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report := doctor.Run(cmd.Context(), doctor.DefaultCheckers(cfg.Cloud.APIKey != "")...)
		fmt.Fprintln(cmd.OutOrStdout(), report.Render()) //nolint:errcheck

		if err := report.Err(); err != nil {
			return errors.New("pitts is not ready: " + err.Error())
		}
		fmt.Fprintln(cmd.OutOrStdout(), keyword("Everything looks good.")) //nolint:errcheck
		return nil
	},
}
