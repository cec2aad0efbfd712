package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSystemCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Print platform facts: architecture, OS, locale and storage paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				info, err := caps.Info(cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd.OutOrStdout(), info, func(w io.Writer) {
					fmt.Fprintf(w, "arch:             %s\n", info.Arch)
					fmt.Fprintf(w, "os:               %s\n", info.OS)
					fmt.Fprintf(w, "locale:           %s\n", info.Locale)
					fmt.Fprintf(w, "local storage:    %s\n", info.LocalStorage)
					fmt.Fprintf(w, "external storage: %s\n", info.ExternalStorage)
				})
			})
		},
	}

	cmd.AddCommand(
		newSystemValueCmd(c, "arch", "Print the CPU architecture", capabilities.Arch),
		newSystemValueCmd(c, "os", "Print the versioned OS identifier", capabilities.OS),
		newSystemValueCmd(c, "locale", "Print the user locale", capabilities.Locale),
		newVariablesCmd(c),
	)
	return cmd
}

func newSystemValueCmd(c *cli, use, short string, get func(capabilities, context.Context) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				v, err := get(caps, cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd.OutOrStdout(), map[string]string{use: v}, func(w io.Writer) {
					fmt.Fprintln(w, v)
				})
			})
		},
	}
}

func newVariablesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "variables",
		Short: "Print the local and external storage paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				vars, err := caps.Variables(cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd.OutOrStdout(), vars, func(w io.Writer) {
					fmt.Fprintf(w, "local storage:    %s\n", vars.LocalStorage)
					fmt.Fprintf(w, "external storage: %s\n", vars.ExternalStorage)
				})
			})
		},
	}
}
