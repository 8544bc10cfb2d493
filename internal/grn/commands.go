package grn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ErrReported marks a failure the notifier already showed
var ErrReported = errors.New("reported")

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// start restores the tab's session for a one-shot command
func (a *App) start(ctx context.Context) bool {
	return a.Workflow.Start(ctx)
}

// CmdLogin logs in and keeps the session for this tab
func (a *App) CmdLogin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grn-cli login <username>")
	}
	a.start(ctx)

	fmt.Printf("%sLogging in to %s...%s\n", Blue, a.Client.BaseURL(ctx), Reset)
	if err := a.Workflow.Login(ctx, strings.Join(args, " ")); err != nil {
		return err
	}

	snap := a.Workflow.Snapshot()
	fmt.Printf("%s✓ Logged in as %s%s\n", Green, snap.Session.Username, Reset)
	fmt.Printf("  Database: %s\n", snap.Session.SelectedDatabase)
	fmt.Printf("  User ID: %s | Ledger ID: %s\n", snap.Session.UserID, snap.Session.LedgerID)
	return nil
}

// CmdStatus shows the restored session of this tab
func (a *App) CmdStatus(ctx context.Context) error {
	restored := a.start(ctx)
	snap := a.Workflow.Snapshot()

	fmt.Printf("%sSession (tab %s):%s\n", Blue, a.Config.TabID, Reset)
	if !restored {
		fmt.Printf("  %sNot logged in%s\n", Yellow, Reset)
		return nil
	}
	fmt.Printf("  Username: %s\n", snap.Session.Username)
	fmt.Printf("  Database: %s\n", snap.Session.SelectedDatabase)
	fmt.Printf("  User ID: %s | Ledger ID: %s\n", snap.Session.UserID, snap.Session.LedgerID)
	if snap.Draft != nil {
		fmt.Printf("  Open challan: %s (%s)\n", snap.Draft.Barcode, snap.Draft.LedgerName)
	} else {
		fmt.Printf("  Open challan: %snone%s\n", Yellow, Reset)
	}
	fmt.Printf("  API: %s\n", a.Client.BaseURL(ctx))
	return nil
}

// CmdInitiate opens a challan for a barcode
func (a *App) CmdInitiate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grn-cli initiate <barcode>")
	}
	a.start(ctx)

	fmt.Printf("%sInitiating challan %s...%s\n", Blue, args[0], Reset)
	if err := a.Workflow.Initiate(ctx, args[0]); err != nil {
		return reported(err)
	}

	snap := a.Workflow.Snapshot()
	fmt.Printf("%s✓ Challan initiated%s\n", Green, Reset)
	fmt.Printf("  Client: %s%s%s\n", Yellow, snap.Form.ClientName, Reset)
	printTransporters(snap.Transporters)
	fmt.Printf("  Use 'grn-cli save --mode=... --container=... --seal=... --transporter=... --vehicle=...' to save\n")
	return nil
}

// CmdTransporters lists the transporter options
func (a *App) CmdTransporters(ctx context.Context) error {
	if !a.start(ctx) {
		return fmt.Errorf("not logged in")
	}
	if err := a.Workflow.LoadTransporters(ctx); err != nil {
		return err
	}
	printTransporters(a.Workflow.Snapshot().Transporters)
	return nil
}

func printTransporters(list []Transporter) {
	if len(list) == 0 {
		fmt.Printf("%sNo transporters found%s\n", Yellow, Reset)
		return
	}
	fmt.Printf("\n%sTransporters (%d):%s\n", Cyan, len(list), Reset)
	for _, t := range list {
		fmt.Printf("  %s (ledger %s)\n", t.LedgerName, t.LedgerID)
	}
}

type saveOptions struct {
	form     ChallanForm
	barcodes []string
}

func parseSaveOptions(args []string) saveOptions {
	opts := saveOptions{}
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--client="); ok {
			opts.form.ClientName = v
		} else if v, ok := strings.CutPrefix(arg, "--mode="); ok {
			opts.form.ModeOfTransport = v
		} else if v, ok := strings.CutPrefix(arg, "--container="); ok {
			opts.form.ContainerNumber = v
		} else if v, ok := strings.CutPrefix(arg, "--seal="); ok {
			opts.form.SealNumber = v
		} else if v, ok := strings.CutPrefix(arg, "--transporter="); ok {
			opts.form.TransporterName = v
		} else if v, ok := strings.CutPrefix(arg, "--vehicle="); ok {
			opts.form.VehicleNumber = v
		} else if !strings.HasPrefix(arg, "--") {
			opts.barcodes = append(opts.barcodes, arg)
		}
	}
	return opts
}

// CmdSave saves the open challan, then appends a delivery line for every
// extra barcode against the same transaction.
func (a *App) CmdSave(ctx context.Context, args []string) error {
	opts := parseSaveOptions(args)
	a.start(ctx)
	a.Workflow.Resume()

	if opts.form.ClientName == "" {
		opts.form.ClientName = a.Workflow.Snapshot().Form.ClientName
	}
	a.Workflow.LoadTransporters(ctx)

	fmt.Printf("%sSaving delivery note...%s\n", Blue, Reset)
	if err := a.Workflow.Save(ctx, opts.form); err != nil {
		return reported(err)
	}

	snap := a.Workflow.Snapshot()
	c := snap.Confirmation
	fmt.Printf("%s✓ Delivery note saved: %s%s\n", Green, c.DeliveryNoteNumber, Reset)
	fmt.Printf("  Client: %s\n", c.Data.ClientName)
	fmt.Printf("  Transport: %s via %s\n", c.Data.ModeOfTransport, c.Data.TransporterName)
	fmt.Printf("  Container: %s | Seal: %s | Vehicle: %s\n", c.Data.ContainerNumber, c.Data.SealNumber, c.Data.VehicleNumber)

	var failed int
	for _, barcode := range opts.barcodes {
		fmt.Printf("%sAdding %s...%s\n", Blue, barcode, Reset)
		if err := a.Workflow.Update(ctx, barcode); err != nil {
			failed++
		}
	}

	fmt.Println()
	fmt.Println(renderResultTable(a.Workflow.Snapshot().Rows))

	if failed > 0 {
		return reported(fmt.Errorf("%d of %d additional barcodes failed", failed, len(opts.barcodes)))
	}
	return nil
}

// renderResultTable draws the delivery lines for plain terminal output
func renderResultTable(rows []DeliveryLineResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))).
		Headers(TableColumns...)
	for _, r := range RenderRows(rows) {
		r := r
		if rowIsBlank(r) {
			continue
		}
		t.Row(r[:]...)
	}
	return t.Render()
}

func rowIsBlank(r TableRow) bool {
	for _, cell := range r {
		if cell != "" {
			return false
		}
	}
	return true
}

// CmdLogout clears this tab's session
func (a *App) CmdLogout(ctx context.Context) error {
	a.start(ctx)
	if err := a.Workflow.Logout(ctx); err != nil {
		return err
	}
	fmt.Printf("%s✓ Logged out%s\n", Green, Reset)
	return nil
}

// CmdAPIBase shows or changes the API base preference
func (a *App) CmdAPIBase(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	var err error
	switch sub {
	case "show":
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: grn-cli api-base set <url>")
		}
		err = a.Client.SetBaseURL(ctx, args[1])
	case "local":
		err = a.Client.SetBaseURL(ctx, LocalAPIBase)
	case "prod":
		err = a.Client.SetBaseURL(ctx, DefaultAPIBase)
	case "reset":
		err = a.Client.ResetBaseURL(ctx)
	default:
		return fmt.Errorf("unknown api-base subcommand: %s", sub)
	}
	if err != nil {
		return err
	}

	fmt.Printf("API base: %s%s%s\n", Cyan, a.Client.BaseURL(ctx), Reset)
	return nil
}

// CmdClearCache asks the backend to drop its database cache
func (a *App) CmdClearCache(ctx context.Context) error {
	fmt.Printf("%sClearing backend DB cache...%s\n", Blue, Reset)
	a.Workflow.ClearCache(ctx)
	fmt.Printf("%s✓ Requested%s (failures are only logged to %s)\n", Green, Reset, a.Config.LogFile)
	return nil
}

// CmdConfig shows current configuration
func (a *App) CmdConfig(ctx context.Context) error {
	fmt.Printf("%sCurrent configuration:%s\n", Blue, Reset)
	if a.Config.ConfigPath != "" {
		fmt.Printf("  Config file: %s\n", a.Config.ConfigPath)
	} else {
		fmt.Printf("  Config file: %snone%s (defaults and environment)\n", Yellow, Reset)
	}
	fmt.Printf("  Active API: %s\n", a.Client.BaseURL(ctx))
	fmt.Printf("  Default API: %s\n", a.Config.APIBase)
	fmt.Printf("  Database: %s\n", FixedDatabase)
	fmt.Printf("  Storage: %s\n", a.Config.Storage)
	if a.Config.Storage == StorageRedis {
		fmt.Printf("  Redis: %s (db %d)\n", a.Config.RedisAddr, a.Config.RedisDB)
	} else {
		fmt.Printf("  State dir: %s\n", a.Config.StateDir)
	}
	fmt.Printf("  Tab: %s\n", a.Config.TabID)
	fmt.Printf("  Transporter resolution: %s\n", a.Config.TransporterMode)
	fmt.Printf("  Log file: %s (%s)\n", a.Config.LogFile, a.Config.LogLevel)
	return nil
}
