package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// supplierNamespace derives stable supplier IDs from non-UUID labels
var supplierNamespace = uuid.MustParse("6f1c3f5e-8a4b-4f3e-9a51-0c7f0f8e2d11")

// allocationInput is the file format accepted by the CLI. JSON documents
// parse as well since YAML is a superset.
type allocationInput struct {
	PaymentAmount any          `yaml:"payment_amount"`
	Strategy      string       `yaml:"strategy"`
	GoodsLines    []inputLine  `yaml:"goods_lines"`
	Priors        []inputPrior `yaml:"priors"`
}

type inputLine struct {
	Supplier  string `yaml:"supplier"`
	GoodsCost any    `yaml:"goods_cost"`
}

type inputPrior struct {
	Supplier        string `yaml:"supplier"`
	AllocatedAmount any    `yaml:"allocated_amount"`
}

// suppliers maps derived IDs back to the labels used in the input
type suppliers map[uuid.UUID]string

func (s suppliers) label(id uuid.UUID) string {
	if name, ok := s[id]; ok {
		return name
	}
	return id.String()
}

// resolve turns a supplier reference into an ID. UUIDs are used as-is,
// other labels map to a name-based UUID, blank means no supplier.
func (s suppliers) resolve(ref string) *uuid.UUID {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		id = uuid.NewSHA1(supplierNamespace, []byte(ref))
	}
	s[id] = ref
	return &id
}

func decodeInput(r io.Reader) (*allocationInput, error) {
	var in allocationInput
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("input is empty")
		}
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return &in, nil
}

// engineInput converts the decoded document into engine arguments
func (in *allocationInput) engineInput() ([]shipment.GoodsLine, []shipment.PriorAllocation, suppliers) {
	names := make(suppliers)

	lines := make([]shipment.GoodsLine, 0, len(in.GoodsLines))
	for _, l := range in.GoodsLines {
		lines = append(lines, shipment.GoodsLine{
			SupplierID: names.resolve(l.Supplier),
			GoodsCost:  valueobject.RawAmountOf(l.GoodsCost),
		})
	}

	priors := make([]shipment.PriorAllocation, 0, len(in.Priors))
	for _, p := range in.Priors {
		priors = append(priors, shipment.PriorAllocation{
			SupplierID:      names.resolve(p.Supplier),
			AllocatedAmount: valueobject.RawAmountOf(p.AllocatedAmount),
		})
	}

	return lines, priors, names
}
