package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// lookupCmd groups the reference table lookups
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up employee names and failure descriptions",
}

var lookupEmployeeCmd = &cobra.Command{
	Use:   "employee [employee-id]",
	Short: "Print the name of an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookupEmployee,
}

var lookupFailureCmd = &cobra.Command{
	Use:   "failure [failure-code]",
	Short: "Print the description of a failure code",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookupFailure,
}

// pingCmd checks the datasource connection
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the connection to the tracking database",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	lookupCmd.AddCommand(lookupEmployeeCmd, lookupFailureCmd)
}

func runLookupEmployee(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	name, err := a.lookups.EmployeeName(ctx, lookupKey(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

func runLookupFailure(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	desc, err := a.lookups.FailureDescription(ctx, lookupKey(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), desc)
	return nil
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.tracker.TestConnection(ctx); err != nil {
		return fmt.Errorf("%s datasource unreachable: %w", a.adapter.DisplayName, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: connected to %s datasource\n", a.adapter.DisplayName)
	return nil
}

// lookupKey binds numeric ids as integers so typed key columns compare
// without server-side conversion.
func lookupKey(arg string) any {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return n
	}
	return arg
}
