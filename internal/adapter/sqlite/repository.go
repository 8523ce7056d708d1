package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: Store implements the full persistence surface.
var _ domain.Store = (*Store)(nil)

// Store implements domain.Store using SQLite. Collection-valued fields (bills
// of materials, provider catalogs, inventory maps, event details) are stored
// as JSON text; money as decimal strings.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready store. Use this when the *sql.DB has been pre-configured (e.g., with
// otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

// --- catalog ---

func (s *Store) SaveMaterials(ctx context.Context, materials []domain.Material) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range materials {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO materials (id, name, description) VALUES (?, ?, ?)`,
			m.ID, m.Name, m.Description,
		); err != nil {
			return fmt.Errorf("inserting material %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		bom, err := json.Marshal(p.BOM)
		if err != nil {
			return fmt.Errorf("encoding bom of %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO products (id, name, bom, production_time) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, string(bom), p.ProductionTime,
		); err != nil {
			return fmt.Errorf("inserting product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveProviders(ctx context.Context, providers []domain.Provider) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range providers {
		catalog, err := json.Marshal(p.Catalog)
		if err != nil {
			return fmt.Errorf("encoding catalog of %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO providers (id, name, catalog) VALUES (?, ?, ?)`,
			p.ID, p.Name, string(catalog),
		); err != nil {
			return fmt.Errorf("inserting provider %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM materials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing materials: %w", err)
	}
	defer rows.Close()

	var materials []domain.Material
	for rows.Next() {
		var m domain.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Description); err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, bom, production_time FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, catalog FROM providers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing providers: %w", err)
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *Store) GetMaterial(ctx context.Context, id string) (domain.Material, error) {
	var m domain.Material
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM materials WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Description)
	if err == sql.ErrNoRows {
		return domain.Material{}, &domain.InvalidReferenceError{Kind: "material", ID: id}
	}
	if err != nil {
		return domain.Material{}, fmt.Errorf("scanning material: %w", err)
	}
	return m, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, bom, production_time FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, &domain.InvalidReferenceError{Kind: "product", ID: id}
	}
	return p, err
}

func (s *Store) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, catalog FROM providers WHERE id = ?`, id)

	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return domain.Provider{}, &domain.InvalidReferenceError{Kind: "provider", ID: id}
	}
	return p, err
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var p domain.Product
	var bom string
	if err := row.Scan(&p.ID, &p.Name, &bom, &p.ProductionTime); err != nil {
		if err == sql.ErrNoRows {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scanning product: %w", err)
	}
	if err := json.Unmarshal([]byte(bom), &p.BOM); err != nil {
		return domain.Product{}, fmt.Errorf("decoding bom of %s: %w", p.ID, err)
	}
	return p, nil
}

func scanProvider(row scanner) (domain.Provider, error) {
	var p domain.Provider
	var catalog string
	if err := row.Scan(&p.ID, &p.Name, &catalog); err != nil {
		if err == sql.ErrNoRows {
			return domain.Provider{}, err
		}
		return domain.Provider{}, fmt.Errorf("scanning provider: %w", err)
	}
	if err := json.Unmarshal([]byte(catalog), &p.Catalog); err != nil {
		return domain.Provider{}, fmt.Errorf("decoding catalog of %s: %w", p.ID, err)
	}
	return p, nil
}

// --- production orders ---

func (s *Store) CreateOrder(ctx context.Context, order domain.ProductionOrder) error {
	required, committed, err := encodeOrderMaps(order)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO production_orders
		 (id, product_id, quantity, status, requested_date, created_at, started_at,
		  completed_at, required_materials, committed_materials, revenue_collected)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ProductID, order.Quantity, string(order.Status),
		order.RequestedDate.UTC().Format(timeFormat),
		order.CreatedAt.UTC().Format(timeFormat),
		nullableTime(order.StartedAt), nullableTime(order.CompletedAt),
		required, committed, order.RevenueCollected,
	)
	if err != nil {
		return fmt.Errorf("inserting production order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (domain.ProductionOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, product_id, quantity, status, requested_date, created_at,
		        started_at, completed_at, required_materials, committed_materials,
		        revenue_collected
		 FROM production_orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return domain.ProductionOrder{}, &domain.InvalidReferenceError{Kind: "production order", ID: id}
	}
	return order, err
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.ProductionOrder, error) {
	query := `SELECT id, product_id, quantity, status, requested_date, created_at,
	                 started_at, completed_at, required_materials, committed_materials,
	                 revenue_collected
	          FROM production_orders`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing production orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.ProductionOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *Store) UpdateOrder(ctx context.Context, order domain.ProductionOrder) error {
	required, committed, err := encodeOrderMaps(order)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE production_orders
		 SET product_id = ?, quantity = ?, status = ?, started_at = ?, completed_at = ?,
		     required_materials = ?, committed_materials = ?, revenue_collected = ?
		 WHERE id = ?`,
		order.ProductID, order.Quantity, string(order.Status),
		nullableTime(order.StartedAt), nullableTime(order.CompletedAt),
		required, committed, order.RevenueCollected, order.ID,
	)
	if err != nil {
		return fmt.Errorf("updating production order: %w", err)
	}
	return checkAffected(result, "production order", order.ID)
}

func encodeOrderMaps(order domain.ProductionOrder) (string, string, error) {
	required, err := json.Marshal(emptyIfNil(order.RequiredMaterials))
	if err != nil {
		return "", "", fmt.Errorf("encoding required materials: %w", err)
	}
	committed, err := json.Marshal(emptyIfNil(order.CommittedMaterials))
	if err != nil {
		return "", "", fmt.Errorf("encoding committed materials: %w", err)
	}
	return string(required), string(committed), nil
}

func scanOrder(row scanner) (domain.ProductionOrder, error) {
	var order domain.ProductionOrder
	var status, requestedDate, createdAt, required, committed string
	var startedAt, completedAt sql.NullString

	err := row.Scan(&order.ID, &order.ProductID, &order.Quantity, &status,
		&requestedDate, &createdAt, &startedAt, &completedAt,
		&required, &committed, &order.RevenueCollected)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ProductionOrder{}, err
		}
		return domain.ProductionOrder{}, fmt.Errorf("scanning production order: %w", err)
	}

	order.Status = domain.OrderStatus(status)
	order.RequestedDate, _ = time.Parse(timeFormat, requestedDate)
	order.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	order.StartedAt = parseNullableTime(startedAt)
	order.CompletedAt = parseNullableTime(completedAt)

	if err := json.Unmarshal([]byte(required), &order.RequiredMaterials); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("decoding required materials: %w", err)
	}
	if err := json.Unmarshal([]byte(committed), &order.CommittedMaterials); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("decoding committed materials: %w", err)
	}
	return order, nil
}

// --- purchase orders ---

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO purchase_orders
		 (id, material_id, provider_id, quantity_ordered, units_received, order_date,
		  expected_arrival_date, actual_arrival_date, status, total_cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		po.ID, po.MaterialID, po.ProviderID, po.QuantityOrdered, po.UnitsReceived,
		po.OrderDate.UTC().Format(timeFormat),
		po.ExpectedArrivalDate.UTC().Format(timeFormat),
		nullableTime(po.ActualArrivalDate),
		string(po.Status), po.TotalCost.String(),
		po.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting purchase order: %w", err)
	}
	return nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, material_id, provider_id, quantity_ordered, units_received,
		        order_date, expected_arrival_date, actual_arrival_date, status,
		        total_cost, created_at
		 FROM purchase_orders WHERE id = ?`, id)

	po, err := scanPurchaseOrder(row)
	if err == sql.ErrNoRows {
		return domain.PurchaseOrder{}, &domain.InvalidReferenceError{Kind: "purchase order", ID: id}
	}
	return po, err
}

func (s *Store) ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	query := `SELECT id, material_id, provider_id, quantity_ordered, units_received,
	                 order_date, expected_arrival_date, actual_arrival_date, status,
	                 total_cost, created_at
	          FROM purchase_orders`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing purchase orders: %w", err)
	}
	defer rows.Close()

	var pos []domain.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

func (s *Store) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE purchase_orders
		 SET units_received = ?, actual_arrival_date = ?, status = ?
		 WHERE id = ?`,
		po.UnitsReceived, nullableTime(po.ActualArrivalDate), string(po.Status), po.ID,
	)
	if err != nil {
		return fmt.Errorf("updating purchase order: %w", err)
	}
	return checkAffected(result, "purchase order", po.ID)
}

func scanPurchaseOrder(row scanner) (domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	var status, orderDate, expectedArrival, totalCost, createdAt string
	var actualArrival sql.NullString

	err := row.Scan(&po.ID, &po.MaterialID, &po.ProviderID, &po.QuantityOrdered,
		&po.UnitsReceived, &orderDate, &expectedArrival, &actualArrival,
		&status, &totalCost, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.PurchaseOrder{}, err
		}
		return domain.PurchaseOrder{}, fmt.Errorf("scanning purchase order: %w", err)
	}

	po.Status = domain.PurchaseOrderStatus(status)
	po.OrderDate, _ = time.Parse(timeFormat, orderDate)
	po.ExpectedArrivalDate, _ = time.Parse(timeFormat, expectedArrival)
	po.ActualArrivalDate = parseNullableTime(actualArrival)
	po.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	po.TotalCost, err = decimal.NewFromString(totalCost)
	if err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("decoding total cost of %s: %w", po.ID, err)
	}
	return po, nil
}

// --- simulation state ---

func (s *Store) LoadState(ctx context.Context) (domain.SimulationState, error) {
	var state domain.SimulationState
	var inventory, committed, active, pending, balance string

	err := s.db.QueryRowContext(ctx,
		`SELECT current_day, inventory, committed_inventory, storage_capacity,
		        daily_production_capacity, active_production_orders,
		        pending_purchase_orders, current_balance, is_initialized
		 FROM simulation_state WHERE id = 1`,
	).Scan(&state.CurrentDay, &inventory, &committed, &state.StorageCapacity,
		&state.DailyProductionCapacity, &active, &pending, &balance, &state.IsInitialized)
	if err == sql.ErrNoRows {
		return domain.SimulationState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.SimulationState{}, fmt.Errorf("scanning simulation state: %w", err)
	}

	if err := json.Unmarshal([]byte(inventory), &state.Inventory); err != nil {
		return domain.SimulationState{}, fmt.Errorf("decoding inventory: %w", err)
	}
	if err := json.Unmarshal([]byte(committed), &state.CommittedInventory); err != nil {
		return domain.SimulationState{}, fmt.Errorf("decoding committed inventory: %w", err)
	}
	if err := json.Unmarshal([]byte(active), &state.ActiveProductionOrders); err != nil {
		return domain.SimulationState{}, fmt.Errorf("decoding active orders: %w", err)
	}
	if err := json.Unmarshal([]byte(pending), &state.PendingPurchaseOrders); err != nil {
		return domain.SimulationState{}, fmt.Errorf("decoding pending purchases: %w", err)
	}
	state.CurrentBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return domain.SimulationState{}, fmt.Errorf("decoding balance: %w", err)
	}
	return state, nil
}

func (s *Store) SaveState(ctx context.Context, state domain.SimulationState) error {
	inventory, err := json.Marshal(emptyIfNil(state.Inventory))
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	committed, err := json.Marshal(emptyIfNil(state.CommittedInventory))
	if err != nil {
		return fmt.Errorf("encoding committed inventory: %w", err)
	}
	active, err := json.Marshal(emptySliceIfNil(state.ActiveProductionOrders))
	if err != nil {
		return fmt.Errorf("encoding active orders: %w", err)
	}
	pending, err := json.Marshal(emptySliceIfNil(state.PendingPurchaseOrders))
	if err != nil {
		return fmt.Errorf("encoding pending purchases: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO simulation_state
		 (id, current_day, inventory, committed_inventory, storage_capacity,
		  daily_production_capacity, active_production_orders,
		  pending_purchase_orders, current_balance, is_initialized)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.CurrentDay, string(inventory), string(committed), state.StorageCapacity,
		state.DailyProductionCapacity, string(active), string(pending),
		state.CurrentBalance.String(), state.IsInitialized,
	)
	if err != nil {
		return fmt.Errorf("saving simulation state: %w", err)
	}
	return nil
}

// --- configuration ---

func (s *Store) LoadConfig(ctx context.Context) (domain.SimulationConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM simulation_config WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.SimulationConfig{}, nil
	}
	if err != nil {
		return domain.SimulationConfig{}, fmt.Errorf("scanning config: %w", err)
	}

	var config domain.SimulationConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return domain.SimulationConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	return config, nil
}

func (s *Store) SaveConfig(ctx context.Context, config domain.SimulationConfig) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO simulation_config (id, config) VALUES (1, ?)`,
		string(raw),
	); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// --- event log ---

func (s *Store) AppendEvent(ctx context.Context, event domain.SimulationEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("encoding event details: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, day, timestamp, event_type, details, financial, amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Day, event.Timestamp.UTC().Format(timeFormat),
		string(event.Type), string(details), event.Financial, event.Amount.String(),
	); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]domain.SimulationEvent, error) {
	query := `SELECT id, day, timestamp, event_type, details, financial, amount
	          FROM events ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryEvents(ctx, query, args...)
}

func (s *Store) ListEventsByType(ctx context.Context, eventType domain.EventType) ([]domain.SimulationEvent, error) {
	return s.queryEvents(ctx,
		`SELECT id, day, timestamp, event_type, details, financial, amount
		 FROM events WHERE event_type = ? ORDER BY seq`,
		string(eventType))
}

func (s *Store) ListFinancialEvents(ctx context.Context) ([]domain.SimulationEvent, error) {
	return s.queryEvents(ctx,
		`SELECT id, day, timestamp, event_type, details, financial, amount
		 FROM events WHERE financial ORDER BY seq`)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]domain.SimulationEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.SimulationEvent
	for rows.Next() {
		var ev domain.SimulationEvent
		var timestamp, eventType, details, amount string
		if err := rows.Scan(&ev.ID, &ev.Day, &timestamp, &eventType, &details,
			&ev.Financial, &amount); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Timestamp, _ = time.Parse(timeFormat, timestamp)
		ev.Type = domain.EventType(eventType)
		if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
			return nil, fmt.Errorf("decoding event details: %w", err)
		}
		ev.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("decoding event amount: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- reset ---

// Reset wipes all persisted data. Used by initialize and import, both of
// which fully replace the current run.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"events", "simulation_config", "simulation_state",
		"purchase_orders", "production_orders",
		"providers", "products", "materials",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// --- helpers ---

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func parseNullableTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(timeFormat, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func checkAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.InvalidReferenceError{Kind: kind, ID: id}
	}
	return nil
}

func emptyIfNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func emptySliceIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
