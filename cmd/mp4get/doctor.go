package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mp4get/internal/cookies"
	"mp4get/internal/deps"
	"mp4get/internal/logging"
)

func newDoctorCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and cookie sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			rows := [][]string{}
			healthy := true
			for _, status := range deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg)) {
				state := "ok"
				detail := status.Version
				if !status.Available {
					state = "missing"
					detail = status.Detail
					if !status.Optional {
						healthy = false
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, yesNo(status.Optional), detail})
			}
			fmt.Fprintln(out, renderTable(
				[]column{col("Tool"), col("Command"), col("State"), col("Optional"), colMax("Detail", 48)},
				rows,
			))

			fmt.Fprintf(out, "Config:  %s\n", cctx.configPath)
			fmt.Fprintf(out, "Output:  %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "System:  %s\n", cfg.Paths.SystemDir)

			jar := cookies.NewResolver(cfg, logging.NewNop()).Resolve(cmd.Context())
			fmt.Fprintf(out, "Cookies: %s\n", jar.Description())

			if !healthy {
				return exitCodeError{code: 1}
			}
			return nil
		},
	}
}
