package app

import (
	"context"
	"time"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// ItemType tags a forecastable catalog item.
const (
	ItemTypeMaterial = "material"
	ItemTypeProduct  = "product"
)

// ForecastPoint is one day of a projected stock series. Offset 0 is today,
// negative offsets are reconstructed history.
type ForecastPoint struct {
	DayOffset int       `json:"day_offset"`
	Date      time.Time `json:"date"`
	Quantity  float64   `json:"quantity"`
}

// ItemForecast is the projected physical stock of one catalog item.
type ItemForecast struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	ItemType string          `json:"item_type"`
	Points   []ForecastPoint `json:"forecast"`
}

// ForecastItem projects an item's physical stock day by day over the given
// horizon, folding in purchase orders still in flight and the consumption and
// output of in-progress production. historicalDays extends the series
// backward by replaying the inventory change log, for charting continuity.
// The projection is read-only.
func (e *SimulationEngine) ForecastItem(ctx context.Context, itemID string, days, historicalDays int) (ItemForecast, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return ItemForecast{}, err
	}
	if days < 1 {
		days = 1
	}

	forecast := ItemForecast{ItemID: itemID}
	if m, ok := r.materials[itemID]; ok {
		forecast.ItemName = m.Name
		forecast.ItemType = ItemTypeMaterial
	} else if p, ok := r.products[itemID]; ok {
		forecast.ItemName = p.Name
		forecast.ItemType = ItemTypeProduct
	} else {
		return ItemForecast{}, &domain.InvalidReferenceError{Kind: "item", ID: itemID}
	}

	deltas := make(map[int]float64)

	if forecast.ItemType == ItemTypeMaterial {
		if err := e.pendingArrivalDeltas(ctx, r, itemID, days, deltas); err != nil {
			return ItemForecast{}, err
		}
	}
	if err := e.productionDeltas(ctx, r, itemID, forecast.ItemType, deltas); err != nil {
		return ItemForecast{}, err
	}

	if historicalDays > 0 {
		history, err := e.historicalStock(ctx, r, itemID, historicalDays)
		if err != nil {
			return ItemForecast{}, err
		}
		forecast.Points = append(forecast.Points, history...)
	}

	running := float64(r.state.Inventory[itemID])
	for offset := 0; offset <= days; offset++ {
		running += deltas[offset]
		forecast.Points = append(forecast.Points, ForecastPoint{
			DayOffset: offset,
			Date:      domain.SimulatedDate(r.state.CurrentDay + offset),
			Quantity:  running,
		})
	}
	return forecast, nil
}

// pendingArrivalDeltas adds the incoming stock of every purchase order still
// marked Ordered. A purchase order already past its expected arrival (held
// back by the storage gate) is projected as arriving tomorrow.
func (e *SimulationEngine) pendingArrivalDeltas(ctx context.Context, r *run, materialID string, days int, deltas map[int]float64) error {
	status := domain.PurchaseOrdered
	pos, err := e.store.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Status: &status})
	if err != nil {
		return err
	}
	for _, po := range pos {
		if po.MaterialID != materialID {
			continue
		}
		offset := domain.DayOf(po.ExpectedArrivalDate) - r.state.CurrentDay
		if offset < 1 {
			offset = 1
		}
		if offset > days {
			continue
		}
		deltas[offset] += float64(po.QuantityOrdered)
	}
	return nil
}

// productionDeltas folds in in-progress production: committed material is
// consumed over the order's remaining days, finished goods land on the
// completion day.
func (e *SimulationEngine) productionDeltas(ctx context.Context, r *run, itemID, itemType string, deltas map[int]float64) error {
	inProgress, err := e.listOrdersByStatus(ctx, domain.StatusInProgress)
	if err != nil {
		return err
	}
	for _, order := range inProgress {
		product, ok := r.products[order.ProductID]
		if !ok {
			continue
		}
		completion := completionOffset(r.state.CurrentDay, order, product)

		if itemType == ItemTypeProduct && order.ProductID == itemID {
			deltas[completion] += float64(order.Quantity)
			continue
		}

		need := order.CommittedMaterials[itemID]
		if need <= 0 {
			continue
		}
		if product.ProductionTime > 1 && order.Quantity > 1 && completion > 1 {
			perDay := float64(need) / float64(completion)
			for offset := 1; offset <= completion; offset++ {
				deltas[offset] -= perDay
			}
		} else {
			deltas[completion] -= float64(need)
		}
	}
	return nil
}

// historicalStock reconstructs end-of-day physical stock for the lookback
// window by replaying inventory change events backward from the current
// quantity. Days before day 0 are clipped.
func (e *SimulationEngine) historicalStock(ctx context.Context, r *run, itemID string, lookback int) ([]ForecastPoint, error) {
	events, err := e.store.ListEventsByType(ctx, domain.EventTypeInventoryChange)
	if err != nil {
		return nil, err
	}

	changeByDay := make(map[int]int)
	for _, ev := range events {
		if ev.DetailString("item_id") != itemID || ev.DetailString("ledger") != string(domain.LedgerPhysical) {
			continue
		}
		changeByDay[ev.Day] += ev.DetailInt("change")
	}

	if lookback > r.state.CurrentDay {
		lookback = r.state.CurrentDay
	}

	// stock at end of day d-1 = stock at end of day d minus day d's changes
	stock := float64(r.state.Inventory[itemID])
	points := make([]ForecastPoint, lookback)
	for back := 1; back <= lookback; back++ {
		day := r.state.CurrentDay - back + 1
		stock -= float64(changeByDay[day])
		points[lookback-back] = ForecastPoint{
			DayOffset: -back,
			Date:      domain.SimulatedDate(r.state.CurrentDay - back),
			Quantity:  stock,
		}
	}
	return points, nil
}
