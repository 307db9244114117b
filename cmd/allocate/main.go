// Command allocate runs the goods payment allocation engine offline against
// a YAML or JSON description of a shipment.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/infrastructure/strategy"
)

const (
	exitOK         = 0
	exitUsage      = 1
	exitAllocation = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("allocate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file         string
		output       string
		strategyName string
		amount       string
	)
	fs.StringVar(&file, "f", "-", "Input file (YAML or JSON); - reads stdin")
	fs.StringVar(&output, "o", "table", "Output format: table or json")
	fs.StringVar(&strategyName, "strategy", "", "Allocation strategy (overrides the input file)")
	fs.StringVar(&amount, "amount", "", "Payment amount (overrides the input file)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: allocate [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if output != "table" && output != "json" {
		fmt.Fprintf(stderr, "unknown output format %q\n", output)
		return exitUsage
	}

	in, err := readInput(file, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if strategyName != "" {
		in.Strategy = strategyName
	}
	if amount != "" {
		in.PaymentAmount = amount
	}

	payment := valueobject.RoundMoney(valueobject.ParseAmountOrZero(valueobject.RawAmountOf(in.PaymentAmount)))
	if !payment.IsPositive() {
		fmt.Fprintln(stderr, "payment_amount must be a positive number")
		return exitUsage
	}

	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	strat, err := registry.GetAllocationStrategy(in.Strategy)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	lines, priors, names := in.engineInput()
	result, err := shipment.AllocateWith(strat, payment, lines, priors)
	if err != nil {
		var allocErr *shipment.AllocationError
		if !errors.As(err, &allocErr) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		writeAllocationError(output, allocErr, stdout, stderr)
		return exitAllocation
	}

	if output == "json" {
		err = writeJSON(stdout, newResultView(result, names))
	} else {
		err = writeTable(stdout, result, names)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	return exitOK
}

func readInput(file string, stdin io.Reader) (*allocationInput, error) {
	if file == "-" {
		return decodeInput(stdin)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return decodeInput(f)
}

type supplierView struct {
	Supplier          string `json:"supplier"`
	GoodsTotal        string `json:"goods_total"`
	OutstandingBefore string `json:"outstanding_before"`
	Allocated         string `json:"allocated"`
	OutstandingAfter  string `json:"outstanding_after"`
}

type resultView struct {
	Strategy           string         `json:"strategy"`
	PaymentAmount      string         `json:"payment_amount"`
	ShipmentGoodsTotal string         `json:"shipment_goods_total"`
	TotalOutstanding   string         `json:"total_outstanding"`
	Suppliers          []supplierView `json:"suppliers"`
}

type errorView struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newResultView(result *shipment.AllocationResult, names suppliers) resultView {
	allocated := make(map[string]decimal.Decimal, len(result.Allocations))
	for _, a := range result.Allocations {
		allocated[a.SupplierID.String()] = a.AllocatedAmount
	}

	view := resultView{
		Strategy:           result.Strategy,
		PaymentAmount:      result.PaymentAmount.StringFixed(2),
		ShipmentGoodsTotal: result.ShipmentGoodsTotal.StringFixed(2),
		TotalOutstanding:   result.TotalOutstanding.StringFixed(2),
		Suppliers:          make([]supplierView, 0, len(result.SupplierTotals)),
	}
	for _, s := range result.SupplierTotals {
		amount := allocated[s.SupplierID.String()]
		view.Suppliers = append(view.Suppliers, supplierView{
			Supplier:          names.label(s.SupplierID),
			GoodsTotal:        s.GoodsTotal.StringFixed(2),
			OutstandingBefore: s.Outstanding.StringFixed(2),
			Allocated:         amount.StringFixed(2),
			OutstandingAfter:  s.Outstanding.Sub(amount).StringFixed(2),
		})
	}
	return view
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, result *shipment.AllocationResult, names suppliers) error {
	view := newResultView(result, names)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SUPPLIER\tGOODS TOTAL\tOUTSTANDING\tALLOCATED\tREMAINING\t")
	for _, s := range view.Suppliers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			s.Supplier, s.GoodsTotal, s.OutstandingBefore, s.Allocated, s.OutstandingAfter)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t\t\n",
		view.ShipmentGoodsTotal, view.TotalOutstanding, view.PaymentAmount)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "strategy: %s\n", view.Strategy)
	return err
}

func writeAllocationError(output string, allocErr *shipment.AllocationError, stdout, stderr io.Writer) {
	if output == "json" {
		var view errorView
		view.Error.Code = string(allocErr.Code)
		view.Error.Message = allocErr.Message
		view.Error.Details = allocErr.Details.Map()
		_ = writeJSON(stdout, view)
		return
	}
	fmt.Fprintf(stderr, "allocation failed: %s (%s)\n", allocErr.Message, allocErr.Code)
	details := allocErr.Details.Map()
	for _, k := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(stderr, "  %s: %s\n", k, details[k])
	}
}
