package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// minimumDailyOperationalCost floors the daily operational charge so a run
// never operates for free.
var minimumDailyOperationalCost = decimal.NewFromInt(1)

// creditSale books revenue for a number of units of the order's product
// without touching the at-most-once flag. Partial fulfillments use it
// directly; the remaining quantity's revenue is collected later.
func (e *SimulationEngine) creditSale(ctx context.Context, r *run, order domain.ProductionOrder, units int) error {
	price, ok := r.config.Financial.PriceFor(order.ProductID)
	if !ok || units <= 0 {
		return nil
	}
	revenue := price.Mul(decimal.NewFromInt(int64(units)))
	r.state.CurrentBalance = r.state.CurrentBalance.Add(revenue)
	return e.logFinancialEvent(ctx, r.state.CurrentDay, domain.EventTypeRevenueCollected, map[string]any{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"units":      units,
	}, revenue)
}

// collectRevenue credits the order's full remaining quantity, guarded to
// happen at most once per order. Orders whose product has no configured
// price never generate revenue. This is the only path by which the balance
// increases.
func (e *SimulationEngine) collectRevenue(ctx context.Context, r *run, order *domain.ProductionOrder) error {
	if order.RevenueCollected {
		return nil
	}
	if _, ok := r.config.Financial.PriceFor(order.ProductID); !ok {
		return nil
	}
	if err := e.creditSale(ctx, r, *order, order.Quantity); err != nil {
		return err
	}
	order.RevenueCollected = true
	return nil
}

// operationalCost computes the day's charge for the given number of orders
// in production, floored at the minimum.
func operationalCost(financial domain.FinancialConfig, inProduction int) decimal.Decimal {
	cost := financial.DailyOperationalCostBase.Add(
		financial.DailyOperationalCostPerItemInProduction.Mul(decimal.NewFromInt(int64(inProduction))))
	if cost.LessThan(minimumDailyOperationalCost) {
		return minimumDailyOperationalCost
	}
	return cost
}

// FinancialSummary aggregates the run's money flows to date.
type FinancialSummary struct {
	CurrentBalance decimal.Decimal
	TotalRevenue   decimal.Decimal
	TotalExpenses  decimal.Decimal
	Profit         decimal.Decimal
}

// FinancialHistoryPoint is one simulated day of realized money flows.
type FinancialHistoryPoint struct {
	Day              int
	Date             time.Time
	Balance          decimal.Decimal
	Revenue          decimal.Decimal
	MaterialCosts    decimal.Decimal
	OperationalCosts decimal.Decimal
	Profit           decimal.Decimal
}

// FinancialForecastPoint is one projected future day. Material costs are
// recognized entirely at order-placement time and are deliberately not
// projected forward.
type FinancialForecastPoint struct {
	DayOffset                 int
	Date                      time.Time
	ProjectedBalance          decimal.Decimal
	ProjectedRevenue          decimal.Decimal
	ProjectedMaterialCosts    decimal.Decimal
	ProjectedOperationalCosts decimal.Decimal
	ProjectedProfit           decimal.Decimal
}

// FinancialOverview is the finances page payload: summary, realized history
// and short-horizon forecast.
type FinancialOverview struct {
	Summary  FinancialSummary
	History  []FinancialHistoryPoint
	Forecast []FinancialForecastPoint
}

// FinancialOverview reconstructs the run's financial history from the event
// log and projects the given number of days forward.
func (e *SimulationEngine) FinancialOverview(ctx context.Context, forecastDays int) (FinancialOverview, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return FinancialOverview{}, err
	}

	events, err := e.store.ListFinancialEvents(ctx)
	if err != nil {
		return FinancialOverview{}, err
	}

	summary := FinancialSummary{
		CurrentBalance: r.state.CurrentBalance,
		TotalRevenue:   decimal.Zero,
		TotalExpenses:  decimal.Zero,
	}
	type dayFlows struct {
		revenue     decimal.Decimal
		material    decimal.Decimal
		operational decimal.Decimal
		net         decimal.Decimal
	}
	flows := make(map[int]*dayFlows)
	flowsFor := func(day int) *dayFlows {
		f, ok := flows[day]
		if !ok {
			f = &dayFlows{revenue: decimal.Zero, material: decimal.Zero, operational: decimal.Zero, net: decimal.Zero}
			flows[day] = f
		}
		return f
	}

	for _, ev := range events {
		f := flowsFor(ev.Day)
		f.net = f.net.Add(ev.Amount)
		if ev.Amount.IsPositive() {
			summary.TotalRevenue = summary.TotalRevenue.Add(ev.Amount)
			f.revenue = f.revenue.Add(ev.Amount)
			continue
		}
		cost := ev.Amount.Neg()
		summary.TotalExpenses = summary.TotalExpenses.Add(cost)
		switch ev.Type {
		case domain.EventTypePurchaseOrderPlaced:
			f.material = f.material.Add(cost)
		default:
			f.operational = f.operational.Add(cost)
		}
	}
	summary.Profit = summary.TotalRevenue.Sub(summary.TotalExpenses)

	// End-of-day balances are reconstructed backward from the current one.
	balances := make(map[int]decimal.Decimal, r.state.CurrentDay+1)
	balance := r.state.CurrentBalance
	for day := r.state.CurrentDay; day >= 0; day-- {
		balances[day] = balance
		if f, ok := flows[day]; ok {
			balance = balance.Sub(f.net)
		}
	}

	history := make([]FinancialHistoryPoint, 0, r.state.CurrentDay)
	for day := 1; day <= r.state.CurrentDay; day++ {
		point := FinancialHistoryPoint{
			Day:              day,
			Date:             domain.SimulatedDate(day),
			Balance:          balances[day],
			Revenue:          decimal.Zero,
			MaterialCosts:    decimal.Zero,
			OperationalCosts: decimal.Zero,
		}
		if f, ok := flows[day]; ok {
			point.Revenue = f.revenue
			point.MaterialCosts = f.material
			point.OperationalCosts = f.operational
		}
		point.Profit = point.Revenue.Sub(point.MaterialCosts).Sub(point.OperationalCosts)
		history = append(history, point)
	}

	forecast, err := e.financialForecast(ctx, r, forecastDays)
	if err != nil {
		return FinancialOverview{}, err
	}

	return FinancialOverview{Summary: summary, History: history, Forecast: forecast}, nil
}

// financialForecast projects operational cost from the current count of
// orders that are in or about to enter production, and revenue on the day
// each of those orders is expected to complete.
func (e *SimulationEngine) financialForecast(ctx context.Context, r *run, days int) ([]FinancialForecastPoint, error) {
	if days <= 0 {
		return []FinancialForecastPoint{}, nil
	}

	inProgress, err := e.listOrdersByStatus(ctx, domain.StatusInProgress)
	if err != nil {
		return nil, err
	}
	accepted, err := e.listOrdersByStatus(ctx, domain.StatusAccepted)
	if err != nil {
		return nil, err
	}

	dailyCost := operationalCost(r.config.Financial, len(inProgress)+len(accepted))

	revenueByOffset := make(map[int]decimal.Decimal)
	addRevenue := func(order domain.ProductionOrder, offset int) {
		if order.RevenueCollected {
			return
		}
		price, ok := r.config.Financial.PriceFor(order.ProductID)
		if !ok {
			return
		}
		amount := price.Mul(decimal.NewFromInt(int64(order.Quantity)))
		if existing, ok := revenueByOffset[offset]; ok {
			revenueByOffset[offset] = existing.Add(amount)
		} else {
			revenueByOffset[offset] = amount
		}
	}

	for _, order := range inProgress {
		product, ok := r.products[order.ProductID]
		if !ok {
			continue
		}
		addRevenue(order, completionOffset(r.state.CurrentDay, order, product))
	}
	for _, order := range accepted {
		product, ok := r.products[order.ProductID]
		if !ok {
			continue
		}
		// Not started yet: assume production begins today.
		offset := product.ProductionTime
		if offset < 1 {
			offset = 1
		}
		addRevenue(order, offset)
	}

	points := make([]FinancialForecastPoint, 0, days)
	balance := r.state.CurrentBalance
	for offset := 1; offset <= days; offset++ {
		revenue := decimal.Zero
		if amount, ok := revenueByOffset[offset]; ok {
			revenue = amount
		}
		profit := revenue.Sub(dailyCost)
		balance = balance.Add(profit)
		points = append(points, FinancialForecastPoint{
			DayOffset:                 offset,
			Date:                      domain.SimulatedDate(r.state.CurrentDay + offset),
			ProjectedBalance:          balance,
			ProjectedRevenue:          revenue,
			ProjectedMaterialCosts:    decimal.Zero,
			ProjectedOperationalCosts: dailyCost,
			ProjectedProfit:           profit,
		})
	}
	return points, nil
}

func (e *SimulationEngine) listOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.ProductionOrder, error) {
	return e.store.ListOrders(ctx, domain.OrderFilter{Status: &status})
}

// completionOffset computes how many days from today an in-progress order is
// expected to finish, never less than one.
func completionOffset(currentDay int, order domain.ProductionOrder, product domain.Product) int {
	offset := product.ProductionTime
	if order.StartedAt != nil {
		offset = domain.DayOf(*order.StartedAt) + product.ProductionTime - currentDay
	}
	if offset < 1 {
		offset = 1
	}
	return offset
}
