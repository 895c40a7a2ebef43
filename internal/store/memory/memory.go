package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
	"clothshop/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	lastID          int64
	varieties       map[int64]domain.Variety
	inventory       map[int64]domain.SupplierInventory
	returns         map[int64]domain.SupplierReturn
	sales           map[int64]domain.Sale
	expenses        map[int64]domain.Expense
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD;
// hardcoded dev defaults are used when unset. The postgres store is used in
// production, so these never leave a developer machine.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		zap.L().Warn("memory store is using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		if err != nil {
			zap.L().Fatal("hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty store without user accounts.
func New() *Store {
	return &Store{
		varieties:       make(map[int64]domain.Variety),
		inventory:       make(map[int64]domain.SupplierInventory),
		returns:         make(map[int64]domain.SupplierReturn),
		sales:           make(map[int64]domain.Sale),
		expenses:        make(map[int64]domain.Expense),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns an empty catalog with the dev admin and staff accounts.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *Store) CreateVariety(_ context.Context, variety domain.Variety) (*domain.Variety, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(variety.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	if s.nameTaken(variety.Name, 0) {
		return nil, fmt.Errorf("%w: cloth variety %q already exists", store.ErrConflict, variety.Name)
	}

	variety.ID = s.nextID()
	if variety.CreatedAt.IsZero() {
		variety.CreatedAt = time.Now().UTC()
	}
	s.varieties[variety.ID] = variety
	created := variety
	return &created, nil
}

func (s *Store) GetVariety(_ context.Context, id int64) (*domain.Variety, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	variety, exists := s.varieties[id]
	if !exists {
		return nil, store.NotFound("cloth variety", id)
	}
	return &variety, nil
}

func (s *Store) ListVarieties(_ context.Context) ([]domain.Variety, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	varieties := make([]domain.Variety, 0, len(s.varieties))
	for _, v := range s.varieties {
		varieties = append(varieties, v)
	}
	slices.SortFunc(varieties, func(a, b domain.Variety) int {
		return cmpInt64(a.ID, b.ID)
	})
	return varieties, nil
}

func (s *Store) UpdateVariety(_ context.Context, variety domain.Variety) (*domain.Variety, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.varieties[variety.ID]
	if !exists {
		return nil, store.NotFound("cloth variety", variety.ID)
	}
	if strings.TrimSpace(variety.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	if s.nameTaken(variety.Name, variety.ID) {
		return nil, fmt.Errorf("%w: cloth variety %q already exists", store.ErrConflict, variety.Name)
	}

	variety.CreatedAt = existing.CreatedAt
	s.varieties[variety.ID] = variety
	updated := variety
	return &updated, nil
}

func (s *Store) DeleteVariety(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.varieties[id]; !exists {
		return store.NotFound("cloth variety", id)
	}
	delete(s.varieties, id)

	for recID, rec := range s.inventory {
		if rec.VarietyID == id {
			delete(s.inventory, recID)
		}
	}
	for recID, rec := range s.returns {
		if rec.VarietyID == id {
			delete(s.returns, recID)
		}
	}
	for saleID, sale := range s.sales {
		if sale.VarietyID == id {
			delete(s.sales, saleID)
		}
	}
	return nil
}

func (s *Store) nameTaken(name string, exceptID int64) bool {
	for _, v := range s.varieties {
		if v.ID != exceptID && v.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateSupplierInventory(_ context.Context, record domain.SupplierInventory) (*domain.SupplierInventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.varieties[record.VarietyID]; !exists {
		return nil, store.NotFound("cloth variety", record.VarietyID)
	}
	record.ID = s.nextID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.inventory[record.ID] = record
	created := record
	return &created, nil
}

func (s *Store) GetSupplierInventory(_ context.Context, id int64) (*domain.SupplierInventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.inventory[id]
	if !exists {
		return nil, store.NotFound("inventory record", id)
	}
	return &record, nil
}

func (s *Store) ListSupplierInventory(_ context.Context, period store.Period) ([]domain.SupplierInventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SupplierInventory, 0, len(s.inventory))
	for _, rec := range s.inventory {
		if period.Contains(rec.SupplyDate) {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b domain.SupplierInventory) int {
		return cmpDateThenID(a.SupplyDate, b.SupplyDate, a.ID, b.ID)
	})
	return records, nil
}

func (s *Store) DeleteSupplierInventory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inventory[id]; !exists {
		return store.NotFound("inventory record", id)
	}
	delete(s.inventory, id)
	return nil
}

func (s *Store) CreateSupplierReturn(_ context.Context, record domain.SupplierReturn) (*domain.SupplierReturn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.varieties[record.VarietyID]; !exists {
		return nil, store.NotFound("cloth variety", record.VarietyID)
	}
	record.ID = s.nextID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.returns[record.ID] = record
	created := record
	return &created, nil
}

func (s *Store) GetSupplierReturn(_ context.Context, id int64) (*domain.SupplierReturn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.returns[id]
	if !exists {
		return nil, store.NotFound("return record", id)
	}
	return &record, nil
}

func (s *Store) ListSupplierReturns(_ context.Context, period store.Period) ([]domain.SupplierReturn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SupplierReturn, 0, len(s.returns))
	for _, rec := range s.returns {
		if period.Contains(rec.ReturnDate) {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b domain.SupplierReturn) int {
		return cmpDateThenID(a.ReturnDate, b.ReturnDate, a.ID, b.ID)
	})
	return records, nil
}

func (s *Store) DeleteSupplierReturn(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.returns[id]; !exists {
		return store.NotFound("return record", id)
	}
	delete(s.returns, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.varieties[sale.VarietyID]; !exists {
		return nil, store.NotFound("cloth variety", sale.VarietyID)
	}
	sale.ID = s.nextID()
	if sale.SaleTimestamp.IsZero() {
		sale.SaleTimestamp = time.Now().UTC()
	}
	s.sales[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.NotFound("sale", id)
	}
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if matchesSale(sale, filter) {
			sales = append(sales, sale)
		}
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return cmpDateThenID(a.SaleDate, b.SaleDate, a.ID, b.ID)
	})
	return sales, nil
}

func (s *Store) DeleteSale(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[id]; !exists {
		return store.NotFound("sale", id)
	}
	delete(s.sales, id)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense.ID = s.nextID()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	s.expenses[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, exists := s.expenses[id]
	if !exists {
		return nil, store.NotFound("expense", id)
	}
	return &expense, nil
}

// ListExpenses returns the newest expense dates first.
func (s *Store) ListExpenses(_ context.Context, period store.Period) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if period.Contains(e.ExpenseDate) {
			expenses = append(expenses, e)
		}
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.ExpenseDate.Equal(b.ExpenseDate) {
			return cmpInt64(a.ID, b.ID)
		}
		if a.ExpenseDate.Before(b.ExpenseDate) {
			return 1
		}
		return -1
	})
	return expenses, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[id]; !exists {
		return store.NotFound("expense", id)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ReadSnapshot(_ context.Context, fn func(store.Aggregates) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(snapshot{s: s})
}

func (s *Store) SalesTotals(ctx context.Context, filter store.SaleFilter) (domain.SalesTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.SalesTotals(ctx, filter)
}

func (s *Store) SalesByVariety(ctx context.Context, period store.Period) ([]domain.VarietyProfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.SalesByVariety(ctx, period)
}

func (s *Store) SalesBySalesperson(ctx context.Context, period store.Period) ([]domain.SalespersonProfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.SalesBySalesperson(ctx, period)
}

func (s *Store) SupplyTotals(ctx context.Context, period store.Period) (domain.MovementTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.SupplyTotals(ctx, period)
}

func (s *Store) ReturnTotals(ctx context.Context, period store.Period) (domain.MovementTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.ReturnTotals(ctx, period)
}

func (s *Store) SupplyBySupplier(ctx context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.SupplyBySupplier(ctx, period)
}

func (s *Store) ReturnsBySupplier(ctx context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.ReturnsBySupplier(ctx, period)
}

func (s *Store) ExpensesByCategory(ctx context.Context, period store.Period) ([]domain.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s: s}.ExpensesByCategory(ctx, period)
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}
	if _, exists := s.usersByUsername[username]; exists {
		return fmt.Errorf("%w: username already exists", store.ErrConflict)
	}

	user.Username = username
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	user, exists := s.usersByUsername[username]
	if !exists {
		return fmt.Errorf("%w: user %q", store.ErrNotFound, username)
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// snapshot reads the maps without locking; callers hold s.mu.
type snapshot struct {
	s *Store
}

func (v snapshot) SalesTotals(_ context.Context, filter store.SaleFilter) (domain.SalesTotals, error) {
	var totals domain.SalesTotals
	for _, sale := range v.s.sales {
		if !matchesSale(sale, filter) {
			continue
		}
		totals.Amount = totals.Amount.Add(sale.SellingPrice.Mul(sale.Quantity))
		totals.Profit = totals.Profit.Add(sale.Profit)
		totals.Quantity = totals.Quantity.Add(sale.Quantity)
		totals.Count++
	}
	return totals, nil
}

func (v snapshot) SalesByVariety(_ context.Context, period store.Period) ([]domain.VarietyProfit, error) {
	byVariety := map[int64]*domain.VarietyProfit{}
	for _, sale := range v.s.sales {
		if !period.Contains(sale.SaleDate) {
			continue
		}
		row := byVariety[sale.VarietyID]
		if row == nil {
			row = &domain.VarietyProfit{VarietyID: sale.VarietyID, VarietyName: v.s.varieties[sale.VarietyID].Name}
			byVariety[sale.VarietyID] = row
		}
		row.TotalQuantity = row.TotalQuantity.Add(sale.Quantity)
		row.TotalSales = row.TotalSales.Add(sale.SellingPrice.Mul(sale.Quantity))
		row.TotalProfit = row.TotalProfit.Add(sale.Profit)
		row.SalesCount++
	}

	rows := make([]domain.VarietyProfit, 0, len(byVariety))
	for _, row := range byVariety {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b domain.VarietyProfit) int {
		return cmpInt64(a.VarietyID, b.VarietyID)
	})
	return rows, nil
}

func (v snapshot) SalesBySalesperson(_ context.Context, period store.Period) ([]domain.SalespersonProfit, error) {
	byName := map[string]*domain.SalespersonProfit{}
	for _, sale := range v.s.sales {
		if !period.Contains(sale.SaleDate) {
			continue
		}
		row := byName[sale.SalespersonName]
		if row == nil {
			row = &domain.SalespersonProfit{SalespersonName: sale.SalespersonName}
			byName[sale.SalespersonName] = row
		}
		row.TotalQuantity = row.TotalQuantity.Add(sale.Quantity)
		row.TotalSales = row.TotalSales.Add(sale.SellingPrice.Mul(sale.Quantity))
		row.TotalProfit = row.TotalProfit.Add(sale.Profit)
		row.SalesCount++
	}

	rows := make([]domain.SalespersonProfit, 0, len(byName))
	for _, row := range byName {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b domain.SalespersonProfit) int {
		return strings.Compare(a.SalespersonName, b.SalespersonName)
	})
	return rows, nil
}

func (v snapshot) SupplyTotals(_ context.Context, period store.Period) (domain.MovementTotals, error) {
	var totals domain.MovementTotals
	for _, rec := range v.s.inventory {
		if period.Contains(rec.SupplyDate) {
			addMovement(&totals, rec.TotalAmount, rec.Quantity)
		}
	}
	return totals, nil
}

func (v snapshot) ReturnTotals(_ context.Context, period store.Period) (domain.MovementTotals, error) {
	var totals domain.MovementTotals
	for _, rec := range v.s.returns {
		if period.Contains(rec.ReturnDate) {
			addMovement(&totals, rec.TotalAmount, rec.Quantity)
		}
	}
	return totals, nil
}

func (v snapshot) SupplyBySupplier(_ context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	bySupplier := map[string]*domain.SupplierMovementTotals{}
	for _, rec := range v.s.inventory {
		if period.Contains(rec.SupplyDate) {
			addSupplierMovement(bySupplier, rec.SupplierName, rec.TotalAmount, rec.Quantity)
		}
	}
	return sortedSupplierRows(bySupplier), nil
}

func (v snapshot) ReturnsBySupplier(_ context.Context, period store.Period) ([]domain.SupplierMovementTotals, error) {
	bySupplier := map[string]*domain.SupplierMovementTotals{}
	for _, rec := range v.s.returns {
		if period.Contains(rec.ReturnDate) {
			addSupplierMovement(bySupplier, rec.SupplierName, rec.TotalAmount, rec.Quantity)
		}
	}
	return sortedSupplierRows(bySupplier), nil
}

func (v snapshot) ExpensesByCategory(_ context.Context, period store.Period) ([]domain.CategoryTotal, error) {
	byCategory := map[string]*domain.CategoryTotal{}
	for _, e := range v.s.expenses {
		if !period.Contains(e.ExpenseDate) {
			continue
		}
		row := byCategory[e.Category]
		if row == nil {
			row = &domain.CategoryTotal{Category: e.Category}
			byCategory[e.Category] = row
		}
		row.Amount = row.Amount.Add(e.Amount)
		row.Count++
	}

	rows := make([]domain.CategoryTotal, 0, len(byCategory))
	for _, row := range byCategory {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b domain.CategoryTotal) int {
		return strings.Compare(a.Category, b.Category)
	})
	return rows, nil
}

func matchesSale(sale domain.Sale, filter store.SaleFilter) bool {
	if !filter.Period.Contains(sale.SaleDate) {
		return false
	}
	return filter.Salesperson == "" || sale.SalespersonName == filter.Salesperson
}

func addMovement(totals *domain.MovementTotals, amount decimal.Decimal, qty decimal.Decimal) {
	totals.Amount = totals.Amount.Add(amount)
	totals.Quantity = totals.Quantity.Add(qty)
	totals.Count++
}

func addSupplierMovement(rows map[string]*domain.SupplierMovementTotals, supplier string, amount decimal.Decimal, qty decimal.Decimal) {
	row := rows[supplier]
	if row == nil {
		row = &domain.SupplierMovementTotals{SupplierName: supplier}
		rows[supplier] = row
	}
	addMovement(&row.MovementTotals, amount, qty)
}

func sortedSupplierRows(rows map[string]*domain.SupplierMovementTotals) []domain.SupplierMovementTotals {
	result := make([]domain.SupplierMovementTotals, 0, len(rows))
	for _, row := range rows {
		result = append(result, *row)
	}
	slices.SortFunc(result, func(a, b domain.SupplierMovementTotals) int {
		return strings.Compare(a.SupplierName, b.SupplierName)
	})
	return result
}

func cmpInt64(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDateThenID(a domain.Date, b domain.Date, aID int64, bID int64) int {
	if a.Equal(b) {
		return cmpInt64(aID, bID)
	}
	if a.Before(b) {
		return -1
	}
	return 1
}
