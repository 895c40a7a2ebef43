package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
	"clothshop/backend/internal/xid"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
	aggregates
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, aggregates: aggregates{q: db}}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ReadSnapshot(ctx context.Context, fn func(store.Aggregates) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(aggregates{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

const varietyColumns = `id, name, description, measurement_unit, standard_length, default_cost_price, created_at`

func scanVariety(row interface{ Scan(dest ...any) error }) (domain.Variety, error) {
	var v domain.Variety
	var unit string
	var length decimal.NullDecimal
	if err := row.Scan(&v.ID, &v.Name, &v.Description, &unit, &length, &v.DefaultCostPrice, &v.CreatedAt); err != nil {
		return v, err
	}
	var lengthPtr *decimal.Decimal
	if length.Valid {
		lengthPtr = &length.Decimal
	}
	measurement, err := domain.NewMeasurement(domain.MeasurementUnit(unit), lengthPtr)
	if err != nil {
		return v, fmt.Errorf("variety %d has invalid measurement: %w", v.ID, err)
	}
	v.Measurement = measurement
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}

func (s *Store) CreateVariety(ctx context.Context, variety domain.Variety) (*domain.Variety, error) {
	if strings.TrimSpace(variety.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrValidation)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cloth_varieties (name, description, measurement_unit, standard_length, default_cost_price, created_at)
		VALUES ($1,$2,$3,$4,$5,now())
		RETURNING `+varietyColumns,
		variety.Name, variety.Description, string(variety.Measurement.Unit()), variety.Measurement.NullStandardLength(), variety.DefaultCostPrice)
	created, err := scanVariety(row)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("cloth variety %q already exists", variety.Name))
	}
	return &created, nil
}

func (s *Store) GetVariety(ctx context.Context, id int64) (*domain.Variety, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+varietyColumns+` FROM cloth_varieties WHERE id = $1`, id)
	variety, err := scanVariety(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("cloth variety", id)
		}
		return nil, err
	}
	return &variety, nil
}

func (s *Store) ListVarieties(ctx context.Context) ([]domain.Variety, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+varietyColumns+` FROM cloth_varieties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	varieties := make([]domain.Variety, 0, 32)
	for rows.Next() {
		v, err := scanVariety(rows)
		if err != nil {
			return nil, err
		}
		varieties = append(varieties, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return varieties, nil
}

func (s *Store) UpdateVariety(ctx context.Context, variety domain.Variety) (*domain.Variety, error) {
	if strings.TrimSpace(variety.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrValidation)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE cloth_varieties
		SET name = $2, description = $3, measurement_unit = $4, standard_length = $5, default_cost_price = $6
		WHERE id = $1
		RETURNING `+varietyColumns,
		variety.ID, variety.Name, variety.Description, string(variety.Measurement.Unit()), variety.Measurement.NullStandardLength(), variety.DefaultCostPrice)
	updated, err := scanVariety(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("cloth variety", variety.ID)
		}
		return nil, mapWriteError(err, fmt.Sprintf("cloth variety %q already exists", variety.Name))
	}
	return &updated, nil
}

func (s *Store) DeleteVariety(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "cloth_varieties", "cloth variety", id)
}

func (s *Store) deleteByID(ctx context.Context, table string, kind string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NotFound(kind, id)
	}
	return nil
}

const inventoryColumns = `id, supplier_name, variety_id, quantity, price_per_item, total_amount, supply_date, created_at`

func scanInventory(row interface{ Scan(dest ...any) error }) (domain.SupplierInventory, error) {
	var rec domain.SupplierInventory
	err := row.Scan(&rec.ID, &rec.SupplierName, &rec.VarietyID, &rec.Quantity, &rec.PricePerItem, &rec.TotalAmount, &rec.SupplyDate, &rec.CreatedAt)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, err
}

func (s *Store) CreateSupplierInventory(ctx context.Context, record domain.SupplierInventory) (*domain.SupplierInventory, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO supplier_inventory (supplier_name, variety_id, quantity, price_per_item, total_amount, supply_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		RETURNING `+inventoryColumns,
		record.SupplierName, record.VarietyID, record.Quantity, record.PricePerItem, record.TotalAmount, record.SupplyDate)
	created, err := scanInventory(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.NotFound("cloth variety", record.VarietyID)
		}
		return nil, mapWriteError(err, "")
	}
	return &created, nil
}

func (s *Store) GetSupplierInventory(ctx context.Context, id int64) (*domain.SupplierInventory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM supplier_inventory WHERE id = $1`, id)
	rec, err := scanInventory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("inventory record", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListSupplierInventory(ctx context.Context, period store.Period) ([]domain.SupplierInventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM supplier_inventory
		WHERE `+periodClause("supply_date")+`
		ORDER BY supply_date, id
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.SupplierInventory, 0, 64)
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) DeleteSupplierInventory(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "supplier_inventory", "inventory record", id)
}

const returnColumns = `id, supplier_name, variety_id, quantity, price_per_item, total_amount, return_date, reason, created_at`

func scanReturn(row interface{ Scan(dest ...any) error }) (domain.SupplierReturn, error) {
	var rec domain.SupplierReturn
	err := row.Scan(&rec.ID, &rec.SupplierName, &rec.VarietyID, &rec.Quantity, &rec.PricePerItem, &rec.TotalAmount, &rec.ReturnDate, &rec.Reason, &rec.CreatedAt)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, err
}

func (s *Store) CreateSupplierReturn(ctx context.Context, record domain.SupplierReturn) (*domain.SupplierReturn, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO supplier_returns (supplier_name, variety_id, quantity, price_per_item, total_amount, return_date, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		RETURNING `+returnColumns,
		record.SupplierName, record.VarietyID, record.Quantity, record.PricePerItem, record.TotalAmount, record.ReturnDate, record.Reason)
	created, err := scanReturn(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.NotFound("cloth variety", record.VarietyID)
		}
		return nil, mapWriteError(err, "")
	}
	return &created, nil
}

func (s *Store) GetSupplierReturn(ctx context.Context, id int64) (*domain.SupplierReturn, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+returnColumns+` FROM supplier_returns WHERE id = $1`, id)
	rec, err := scanReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("return record", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListSupplierReturns(ctx context.Context, period store.Period) ([]domain.SupplierReturn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+returnColumns+`
		FROM supplier_returns
		WHERE `+periodClause("return_date")+`
		ORDER BY return_date, id
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.SupplierReturn, 0, 32)
	for rows.Next() {
		rec, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) DeleteSupplierReturn(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "supplier_returns", "return record", id)
}

const saleColumns = `id, salesperson_name, variety_id, quantity, selling_price, cost_price, profit, sale_date, sale_timestamp`

func scanSale(row interface{ Scan(dest ...any) error }) (domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.SalespersonName, &sale.VarietyID, &sale.Quantity, &sale.SellingPrice, &sale.CostPrice, &sale.Profit, &sale.SaleDate, &sale.SaleTimestamp)
	sale.SaleTimestamp = sale.SaleTimestamp.UTC()
	return sale, err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.SaleTimestamp.IsZero() {
		sale.SaleTimestamp = time.Now().UTC()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sales (salesperson_name, variety_id, quantity, selling_price, cost_price, profit, sale_date, sale_timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+saleColumns,
		sale.SalespersonName, sale.VarietyID, sale.Quantity, sale.SellingPrice, sale.CostPrice, sale.Profit, sale.SaleDate, sale.SaleTimestamp)
	created, err := scanSale(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.NotFound("cloth variety", sale.VarietyID)
		}
		return nil, mapWriteError(err, "")
	}
	return &created, nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("sale", id)
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE `+periodClause("sale_date")+`
			AND ($3 = '' OR salesperson_name = $3)
		ORDER BY sale_date, id
	`, filter.Period.From, filter.Period.To, filter.Salesperson)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "sales", "sale", id)
}

const expenseColumns = `id, category, amount, expense_date, description, created_at`

func scanExpense(row interface{ Scan(dest ...any) error }) (domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(&e.ID, &e.Category, &e.Amount, &e.ExpenseDate, &e.Description, &e.CreatedAt)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, err
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (category, amount, expense_date, description, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING `+expenseColumns,
		expense.Category, expense.Amount, expense.ExpenseDate, expense.Description)
	created, err := scanExpense(row)
	if err != nil {
		return nil, mapWriteError(err, "")
	}
	return &created, nil
}

func (s *Store) GetExpense(ctx context.Context, id int64) (*domain.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("expense", id)
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListExpenses(ctx context.Context, period store.Period) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE `+periodClause("expense_date")+`
		ORDER BY expense_date DESC, id
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "expenses", "expense", id)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1
			AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		return mapWriteError(err, "username already exists")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %q", store.ErrNotFound, username)
	}
	return nil
}

// aggregates runs the grouped report queries against a pool or a snapshot tx.
type aggregates struct {
	q querier
}

func (a aggregates) SalesTotals(ctx context.Context, filter store.SaleFilter) (domain.SalesTotals, error) {
	var totals domain.SalesTotals
	err := a.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(selling_price * quantity), 0),
			COALESCE(SUM(profit), 0),
			COALESCE(SUM(quantity), 0),
			COUNT(*)
		FROM sales
		WHERE `+periodClause("sale_date")+`
			AND ($3 = '' OR salesperson_name = $3)
	`, filter.Period.From, filter.Period.To, filter.Salesperson).Scan(&totals.Amount, &totals.Profit, &totals.Quantity, &totals.Count)
	return totals, err
}

func (a aggregates) SalesByVariety(ctx context.Context, period store.Period) ([]domain.VarietyProfit, error) {
	rows, err := a.q.QueryContext(ctx, `
		SELECT s.variety_id, v.name,
			SUM(s.quantity), SUM(s.selling_price * s.quantity), SUM(s.profit), COUNT(*)
		FROM sales s
		JOIN cloth_varieties v ON v.id = s.variety_id
		WHERE `+periodClause("s.sale_date")+`
		GROUP BY s.variety_id, v.name
		ORDER BY s.variety_id
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.VarietyProfit, 0, 16)
	for rows.Next() {
		var row domain.VarietyProfit
		if err := rows.Scan(&row.VarietyID, &row.VarietyName, &row.TotalQuantity, &row.TotalSales, &row.TotalProfit, &row.SalesCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (a aggregates) SalesBySalesperson(ctx context.Context, period store.Period) ([]domain.SalespersonProfit, error) {
	rows, err := a.q.QueryContext(ctx, `
		SELECT salesperson_name,
			SUM(quantity), SUM(selling_price * quantity), SUM(profit), COUNT(*)
		FROM sales
		WHERE `+periodClause("sale_date")+`
		GROUP BY salesperson_name
		ORDER BY salesperson_name
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.SalespersonProfit, 0, 16)
	for rows.Next() {
		var row domain.SalespersonProfit
		if err := rows.Scan(&row.SalespersonName, &row.TotalQuantity, &row.TotalSales, &row.TotalProfit, &row.SalesCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (a aggregates) SupplyTotals(ctx context.Context, period store.Period) (domain.MovementTotals, error) {
	return a.movementTotals(ctx, "supplier_inventory", "supply_date", period)
}

func (a aggregates) ReturnTotals(ctx context.Context, period store.Period) (domain.MovementTotals, error) {
	return a.movementTotals(ctx, "supplier_returns", "return_date", period)
}

func (a aggregates) movementTotals(ctx context.Context, table string, dateColumn string, period store.Period) (domain.MovementTotals, error) {
	var totals domain.MovementTotals
	err := a.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COALESCE(SUM(quantity), 0), COUNT(*)
		FROM `+table+`
		WHERE `+periodClause(dateColumn),
		period.From, period.To).Scan(&totals.Amount, &totals.Quantity, &totals.Count)
	return totals, err
}

func (a aggregates) SupplyBySupplier(ctx context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	return a.movementBySupplier(ctx, "supplier_inventory", "supply_date", period)
}

func (a aggregates) ReturnsBySupplier(ctx context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	return a.movementBySupplier(ctx, "supplier_returns", "return_date", period)
}

func (a aggregates) movementBySupplier(ctx context.Context, table string, dateColumn string, period store.Period) ([]domain.SupplierMovementTotals, error) {
	rows, err := a.q.QueryContext(ctx, `
		SELECT supplier_name, SUM(total_amount), SUM(quantity), COUNT(*)
		FROM `+table+`
		WHERE `+periodClause(dateColumn)+`
		GROUP BY supplier_name
		ORDER BY supplier_name
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.SupplierMovementTotals, 0, 16)
	for rows.Next() {
		var row domain.SupplierMovementTotals
		if err := rows.Scan(&row.SupplierName, &row.Amount, &row.Quantity, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (a aggregates) ExpensesByCategory(ctx context.Context, period store.Period) ([]domain.CategoryTotal, error) {
	rows, err := a.q.QueryContext(ctx, `
		SELECT category, SUM(amount), COUNT(*)
		FROM expenses
		WHERE `+periodClause("expense_date")+`
		GROUP BY category
		ORDER BY category
	`, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.CategoryTotal, 0, 8)
	for rows.Next() {
		var row domain.CategoryTotal
		if err := rows.Scan(&row.Category, &row.Amount, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// periodClause binds $1 and $2 to the half-open period bounds; a NULL bound
// is open.
func periodClause(column string) string {
	return `($1::date IS NULL OR ` + column + ` >= $1::date) AND ($2::date IS NULL OR ` + column + ` < $2::date)`
}

func mapWriteError(err error, conflictMsg string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		if conflictMsg == "" {
			conflictMsg = pgErr.Detail
		}
		return fmt.Errorf("%w: %s", store.ErrConflict, conflictMsg)
	case "23514", "22003":
		return fmt.Errorf("%w: %s", store.ErrValidation, pgErr.Message)
	default:
		return err
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
