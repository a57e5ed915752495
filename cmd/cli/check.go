package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/portfolio-monitor/internal/modules/report"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// checkCmd evaluates a portfolio and prints the report.
type checkCmd struct {
	requestFlags
	currency    string
	style       string
	raw         bool
	failOnAlert bool
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "check holdings against their stop-loss limits" }
func (*checkCmd) Usage() string {
	return `check [-h TICKER=AMOUNT[:STOPLOSS]]... [-start <date>] [-end <date>] [-raw]

  Fetches prices, values the portfolio over the window and prints a report
  listing every holding whose drawdown from the previous close reached its
  stop-loss limit.

  Example:
    check -h AAPL=3000:10 -h MSFT=2250 -start 2024-01-01
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.currency, "currency", "", "Currency for invested amounts. Defaults to DISPLAY_CURRENCY.")
	f.StringVar(&c.style, "style", "dark", "Terminal style: dark, light, notty or ascii")
	f.BoolVar(&c.raw, "raw", false, "Print the markdown source instead of rendering it")
	f.BoolVar(&c.failOnAlert, "fail-on-alert", false, "Exit with status 1 when any stop-loss is reached")
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, container, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	req, err := c.build(container.MonitorService.Defaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ev, err := container.MonitorService.Check(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	currency := c.currency
	if currency == "" {
		currency = cfg.DisplayCurrency
	}
	md := report.Markdown(ev.ReportInput(currency))

	if c.raw {
		fmt.Print(md)
	} else {
		out, err := renderTerminal(md, c.style)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			fmt.Print(md)
		} else {
			fmt.Print(out)
		}
	}

	if c.failOnAlert && len(ev.Result.Alerts) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func renderTerminal(md, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
