package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mikelcalvo/grn-cli/internal/grn"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// No arguments or "tui" command -> launch TUI
	if len(os.Args) < 2 || os.Args[1] == "tui" {
		os.Exit(runTUI(ctx))
	}

	cmd := os.Args[1]

	// Help doesn't need config
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		os.Exit(0)
	}

	// Version
	if cmd == "version" || cmd == "-v" || cmd == "--version" {
		fmt.Printf("GRN CLI v%s\n", grn.Version)
		fmt.Printf("Created by %s in %s\n", grn.Author, grn.Year)
		os.Exit(0)
	}

	os.Exit(runCommand(ctx, cmd, os.Args[2:]))
}

func runTUI(ctx context.Context) int {
	config, err := grn.LoadConfig()
	if err != nil {
		fmt.Printf("%sError: %s%s\n", grn.Red, err, grn.Reset)
		return 1
	}

	sink := &grn.MemorySink{}
	app, err := grn.Open(ctx, config, sink)
	if err != nil {
		fmt.Printf("%sError: %s%s\n", grn.Red, err, grn.Reset)
		return 1
	}
	defer app.Close()

	if err := grn.RunTUI(ctx, app, sink); err != nil {
		fmt.Printf("%sError: %s%s\n", grn.Red, err, grn.Reset)
		return 1
	}
	return 0
}

func runCommand(ctx context.Context, cmd string, args []string) int {
	// Load config
	config, err := grn.LoadConfig()
	if err != nil {
		fmt.Printf("%sError: %s%s\n", grn.Red, err, grn.Reset)
		return 1
	}

	app, err := grn.Open(ctx, config, grn.WriterSink{Out: os.Stderr})
	if err != nil {
		fmt.Printf("%sError: %s%s\n", grn.Red, err, grn.Reset)
		return 1
	}
	defer app.Close()

	// Route commands
	var cmdErr error
	switch cmd {
	case "login":
		cmdErr = app.CmdLogin(ctx, args)
	case "status":
		cmdErr = app.CmdStatus(ctx)
	case "initiate", "init":
		cmdErr = app.CmdInitiate(ctx, args)
	case "transporters":
		cmdErr = app.CmdTransporters(ctx)
	case "save":
		cmdErr = app.CmdSave(ctx, args)
	case "logout":
		cmdErr = app.CmdLogout(ctx)
	case "api-base":
		cmdErr = app.CmdAPIBase(ctx, args)
	case "clear-cache":
		cmdErr = app.CmdClearCache(ctx)
	case "config":
		cmdErr = app.CmdConfig(ctx)
	default:
		fmt.Printf("%sUnknown command: %s%s\n", grn.Red, cmd, grn.Reset)
		printUsage()
		return 1
	}

	if cmdErr != nil {
		// already shown by the notifier
		if !errors.Is(cmdErr, grn.ErrReported) {
			fmt.Printf("%sError: %s%s\n", grn.Red, cmdErr, grn.Reset)
		}
		return 1
	}
	return 0
}

func printUsage() {
	usage := `{b}GRN CLI{r} - Created by Mikel Calvo in 2026

Usage: grn-cli <command> [args...]

{y}Commands:{r}

  {g}tui{r}                               Start the interactive terminal UI (default)
  {g}config{r}                            Show current configuration
  {g}version{r}                           Show version information

{y}Session:{r}
  {g}login <username>{r}                  Log in to the KOL database
  {g}status{r}                            Show the session of this terminal tab
  {g}logout{r}                            Forget the session of this terminal tab

{y}Challan:{r}
  {g}initiate <barcode>{r}                Open a challan for a barcode
  {g}transporters{r}                      List transporter options
  {g}save --mode=X --container=X --seal=X --transporter=X --vehicle=X [--client=X] [barcode...]{r}
                                    Save the delivery note, then add each barcode

{y}Backend:{r}
  {g}api-base [show|set <url>|local|prod|reset]{r}
                                    Show or change the API base
  {g}clear-cache{r}                       Ask the backend to clear its DB cache

{y}Examples:{r}
  grn-cli login jdoe
  grn-cli initiate 12345
  grn-cli save --mode=Road --container=C1 --seal=S1 --transporter="Fast Freight" --vehicle=WB01 T100 T101

`
	fmt.Print(strings.NewReplacer(
		"{b}", grn.Blue,
		"{y}", grn.Yellow,
		"{g}", grn.Green,
		"{r}", grn.Reset,
	).Replace(usage))
}
