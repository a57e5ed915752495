package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/google/subcommands"
)

// chartCmd writes the value and allocation charts as PNG files.
type chartCmd struct {
	requestFlags
	out string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "write portfolio charts as PNG files" }
func (*chartCmd) Usage() string {
	return `chart [-out <dir>] [-h TICKER=AMOUNT[:STOPLOSS]]... [-start <date>] [-end <date>]

  Writes value.png (normalized portfolio value with invested baseline and
  moving average) and allocation.png (invested amount per holding).
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.out, "out", ".", "Output directory")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, container, err := setup()
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

	if err := os.MkdirAll(c.out, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", c.out, err)
		return subcommands.ExitFailure
	}

	portfolio, _ := domain.SplitHoldings(req.Holdings)
	allocation, err := container.ChartsService.RenderAllocationChart(portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering allocation chart: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.write("allocation.png", allocation); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	ev, err := container.MonitorService.Check(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	value, err := container.ChartsService.RenderValueChart(ev.Result.Series, ev.Portfolio.TotalInvested())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering value chart: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.write("value.png", value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

func (c *chartCmd) write(name string, data []byte) error {
	p := filepath.Join(c.out, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	fmt.Println(p)
	return nil
}
