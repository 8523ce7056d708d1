package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// PlacePurchaseOrder buys a quantity of one material from one provider.
// Payment happens at order time: the total cost is deducted immediately and
// the purchase order is scheduled to arrive after the offering's lead time.
// All validations run before any mutation.
func (e *SimulationEngine) PlacePurchaseOrder(ctx context.Context, materialID, providerID string, quantity int) (domain.PurchaseOrder, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	if quantity <= 0 {
		return domain.PurchaseOrder{}, &domain.InvalidQuantityError{Quantity: quantity}
	}
	if _, ok := r.materials[materialID]; !ok {
		return domain.PurchaseOrder{}, &domain.InvalidReferenceError{Kind: "material", ID: materialID}
	}
	provider, ok := r.providers[providerID]
	if !ok {
		return domain.PurchaseOrder{}, &domain.InvalidReferenceError{Kind: "provider", ID: providerID}
	}
	offering, ok := provider.OfferingFor(materialID)
	if !ok {
		return domain.PurchaseOrder{}, &domain.InvalidReferenceError{Kind: "offering for material", ID: materialID}
	}

	totalCost := offering.PricePerUnit.Mul(decimal.NewFromInt(int64(quantity)))
	if r.state.CurrentBalance.LessThan(totalCost) {
		return domain.PurchaseOrder{}, &domain.InsufficientFundsError{
			Required:  totalCost,
			Available: r.state.CurrentBalance,
		}
	}

	orderDate := domain.SimulatedDate(r.state.CurrentDay)
	po := domain.PurchaseOrder{
		ID:                  newID(),
		MaterialID:          materialID,
		ProviderID:          providerID,
		QuantityOrdered:     quantity,
		OrderDate:           orderDate,
		ExpectedArrivalDate: orderDate.AddDate(0, 0, offering.LeadTimeDays),
		Status:              domain.PurchaseOrdered,
		TotalCost:           totalCost,
		CreatedAt:           e.now(),
	}

	r.state.CurrentBalance = r.state.CurrentBalance.Sub(totalCost)
	r.state.PendingPurchaseOrders = append(r.state.PendingPurchaseOrders, po.ID)

	if err := e.store.CreatePurchaseOrder(ctx, po); err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("creating purchase order: %w", err)
	}
	if err := e.store.SaveState(ctx, r.state); err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("saving state: %w", err)
	}
	if err := e.logFinancialEvent(ctx, r.state.CurrentDay, domain.EventTypePurchaseOrderPlaced, map[string]any{
		"po_id":            po.ID,
		"material_id":      materialID,
		"provider_id":      providerID,
		"quantity":         quantity,
		"expected_arrival": po.ExpectedArrivalDate.Format("2006-01-02"),
	}, totalCost.Neg()); err != nil {
		return domain.PurchaseOrder{}, err
	}

	return po, nil
}

// Shortage outcome results per material.
const (
	ShortageOrdered    = "ordered"
	ShortageSufficient = "sufficient"
	ShortageNoProvider = "no_provider"
	ShortageFailed     = "failed"
)

// ShortageOutcome describes what happened for one required material when
// ordering an order's shortages.
type ShortageOutcome struct {
	Result          string
	PurchaseOrderID string
	QuantityOrdered int
	Detail          string
}

// OrderShortages places purchase orders for every material a production order
// still lacks, choosing the cheapest provider per material (ties broken by
// provider id). The net additional need subtracts what the order has already
// committed and what physical stock is not claimed by other orders.
func (e *SimulationEngine) OrderShortages(ctx context.Context, orderID string) (map[string]ShortageOutcome, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return nil, err
	}
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	product, ok := r.products[order.ProductID]
	if !ok {
		return nil, &domain.InvalidReferenceError{Kind: "product", ID: order.ProductID}
	}

	outcomes := make(map[string]ShortageOutcome)
	for _, materialID := range product.BOMMaterialIDs() {
		required := order.RequiredMaterials[materialID]
		committedToThis := order.CommittedMaterials[materialID]
		available := r.state.AvailableFor(materialID, committedToThis)
		if available < 0 {
			available = 0
		}

		net := required - committedToThis - available
		if net <= 0 {
			outcomes[materialID] = ShortageOutcome{Result: ShortageSufficient}
			continue
		}

		providerID, ok := e.cheapestProviderFor(r, materialID)
		if !ok {
			outcomes[materialID] = ShortageOutcome{Result: ShortageNoProvider}
			continue
		}

		po, err := e.PlacePurchaseOrder(ctx, materialID, providerID, net)
		if err != nil {
			outcomes[materialID] = ShortageOutcome{Result: ShortageFailed, Detail: err.Error()}
			continue
		}
		outcomes[materialID] = ShortageOutcome{
			Result:          ShortageOrdered,
			PurchaseOrderID: po.ID,
			QuantityOrdered: net,
		}
	}
	return outcomes, nil
}

// cheapestProviderFor selects the provider with the lowest unit price for a
// material. Providers are scanned in id order so price ties resolve
// deterministically.
func (e *SimulationEngine) cheapestProviderFor(r *run, materialID string) (string, bool) {
	providerIDs := make([]string, 0, len(r.providers))
	for id := range r.providers {
		providerIDs = append(providerIDs, id)
	}
	sort.Strings(providerIDs)

	var bestID string
	var bestPrice decimal.Decimal
	found := false
	for _, id := range providerIDs {
		offering, ok := r.providers[id].OfferingFor(materialID)
		if !ok {
			continue
		}
		if !found || offering.PricePerUnit.LessThan(bestPrice) {
			bestID = id
			bestPrice = offering.PricePerUnit
			found = true
		}
	}
	return bestID, found
}
