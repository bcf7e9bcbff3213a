package manufacturing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// CreateBomComponent adds one component line to a product's BOM. A line that
// would make the component tree cyclic is rejected.
func (s *Service) CreateBomComponent(ctx context.Context, bom domain.BillOfMaterial) (domain.BillOfMaterial, error) {
	if bom.ProductID == "" || bom.ProductIDTo == "" {
		return domain.BillOfMaterial{}, apperrors.Validation("productId and productIdTo are required")
	}
	if bom.ProductID == bom.ProductIDTo {
		return domain.BillOfMaterial{}, apperrors.Validation("a product cannot be its own component")
	}
	if !bom.Quantity.IsPositive() {
		return domain.BillOfMaterial{}, apperrors.Validation("quantity must be positive")
	}
	if bom.ScrapFactor.IsNegative() {
		return domain.BillOfMaterial{}, apperrors.Validation("scrapFactor must not be negative")
	}
	if bom.FromDate.IsZero() {
		bom.FromDate = time.Now().UTC()
	}

	// Reject the line when ProductID is already reachable from ProductIDTo.
	reachable, err := s.reaches(ctx, bom.ProductIDTo, bom.ProductID, map[string]bool{})
	if err != nil {
		return domain.BillOfMaterial{}, err
	}
	if reachable {
		return domain.BillOfMaterial{}, apperrors.Validation("component %s would make the bill of material cyclic", bom.ProductIDTo)
	}

	return s.store.CreateBom(ctx, bom)
}

func (s *Service) reaches(ctx context.Context, from, target string, visited map[string]bool) (bool, error) {
	if from == target {
		return true, nil
	}
	if visited[from] {
		return false, nil
	}
	visited[from] = true

	lines, err := s.store.ListBoms(ctx, from)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		found, err := s.reaches(ctx, line.ProductIDTo, target, visited)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// ListBomComponents lists a product's direct component lines.
func (s *Service) ListBomComponents(ctx context.Context, productID string) ([]domain.BillOfMaterial, error) {
	return s.store.ListBoms(ctx, productID)
}

// DeleteBomComponent removes one component line.
func (s *Service) DeleteBomComponent(ctx context.Context, productID, productIDTo string, fromDate time.Time) error {
	return s.store.DeleteBom(ctx, productID, productIDTo, fromDate)
}

// Explode expands a product's BOM into the flat component list needed to
// produce quantity units as of asOf. Component quantities are multiplied down
// the tree and inflated by each line's scrap factor. A visited set guards
// against cyclic data reaching the walk.
func (s *Service) Explode(ctx context.Context, productID string, quantity decimal.Decimal, asOf time.Time) ([]domain.BomComponent, error) {
	if productID == "" {
		return nil, apperrors.Validation("productId is required")
	}
	if !quantity.IsPositive() {
		return nil, apperrors.Validation("quantity must be positive")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	var out []domain.BomComponent
	err := s.explode(ctx, productID, quantity, asOf, 1, map[string]bool{productID: true}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) explode(ctx context.Context, productID string, quantity decimal.Decimal, asOf time.Time, depth int, path map[string]bool, out *[]domain.BomComponent) error {
	lines, err := s.store.ListBoms(ctx, productID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if !line.EffectiveAt(asOf) {
			continue
		}
		if path[line.ProductIDTo] {
			return apperrors.Validation("bill of material contains a cycle at %s", line.ProductIDTo)
		}

		// scrap inflates the required quantity: qty × (1 + scrapFactor).
		required := quantity.Mul(line.Quantity).Mul(decimal.NewFromInt(1).Add(line.ScrapFactor))
		*out = append(*out, domain.BomComponent{
			ProductID: line.ProductIDTo,
			Quantity:  required,
			Depth:     depth,
		})

		path[line.ProductIDTo] = true
		if err := s.explode(ctx, line.ProductIDTo, required, asOf, depth+1, path, out); err != nil {
			return err
		}
		delete(path, line.ProductIDTo)
	}
	return nil
}
