package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Variety struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Measurement      Measurement         `json:"-"`
	DefaultCostPrice decimal.NullDecimal `json:"default_cost_price"`
	Description      string              `json:"description"`
	CreatedAt        time.Time           `json:"created_at"`
}

func (v Variety) MarshalJSON() ([]byte, error) {
	type plain Variety
	return json.Marshal(struct {
		plain
		MeasurementUnit MeasurementUnit     `json:"measurement_unit"`
		StandardLength  decimal.NullDecimal `json:"standard_length"`
	}{
		plain:           plain(v),
		MeasurementUnit: v.Measurement.Unit(),
		StandardLength:  v.Measurement.NullStandardLength(),
	})
}

type VarietyCreateRequest struct {
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	MeasurementUnit  string           `json:"measurement_unit"`
	StandardLength   *decimal.Decimal `json:"standard_length,omitempty"`
	DefaultCostPrice *decimal.Decimal `json:"default_cost_price,omitempty"`
}

type VarietyUpdateRequest struct {
	Name             *string          `json:"name,omitempty"`
	Description      *string          `json:"description,omitempty"`
	MeasurementUnit  *string          `json:"measurement_unit,omitempty"`
	StandardLength   *decimal.Decimal `json:"standard_length,omitempty"`
	DefaultCostPrice *decimal.Decimal `json:"default_cost_price,omitempty"`
}

type SupplierInventory struct {
	ID           int64           `json:"id"`
	SupplierName string          `json:"supplier_name"`
	VarietyID    int64           `json:"variety_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SupplyDate   Date            `json:"supply_date"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SupplierInventoryCreateRequest struct {
	SupplierName string          `json:"supplier_name"`
	VarietyID    int64           `json:"variety_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	SupplyDate   Date            `json:"supply_date"`
}

type SupplierReturn struct {
	ID           int64           `json:"id"`
	SupplierName string          `json:"supplier_name"`
	VarietyID    int64           `json:"variety_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ReturnDate   Date            `json:"return_date"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SupplierReturnCreateRequest struct {
	SupplierName string          `json:"supplier_name"`
	VarietyID    int64           `json:"variety_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	ReturnDate   Date            `json:"return_date"`
	Reason       string          `json:"reason"`
}

type Sale struct {
	ID              int64           `json:"id"`
	SalespersonName string          `json:"salesperson_name"`
	VarietyID       int64           `json:"variety_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	Profit          decimal.Decimal `json:"profit"`
	SaleDate        Date            `json:"sale_date"`
	SaleTimestamp   time.Time       `json:"sale_timestamp"`
}

// SaleCreateRequest leaves CostPrice nil to fall back to the variety's
// default cost price.
type SaleCreateRequest struct {
	SalespersonName string           `json:"salesperson_name"`
	VarietyID       int64            `json:"variety_id"`
	Quantity        decimal.Decimal  `json:"quantity"`
	SellingPrice    decimal.Decimal  `json:"selling_price"`
	CostPrice       *decimal.Decimal `json:"cost_price,omitempty"`
	SaleDate        Date             `json:"sale_date"`
}

type Expense struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate Date            `json:"expense_date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate Date            `json:"expense_date"`
	Description string          `json:"description"`
}

// Aggregate rows returned by stores.

type SalesTotals struct {
	Amount   decimal.Decimal
	Profit   decimal.Decimal
	Quantity decimal.Decimal
	Count    int64
}

type MovementTotals struct {
	Amount   decimal.Decimal
	Quantity decimal.Decimal
	Count    int64
}

type SupplierMovementTotals struct {
	SupplierName string
	MovementTotals
}

type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int64
}

// Report payloads.

type DailySalesSummary struct {
	Date              Date            `json:"date"`
	TotalSalesAmount  decimal.Decimal `json:"total_sales_amount"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	TotalQuantitySold decimal.Decimal `json:"total_quantity_sold"`
	SalesCount        int64           `json:"sales_count"`
}

type SalespersonSummary struct {
	SalespersonName string          `json:"salesperson_name"`
	Date            Date            `json:"date"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	TotalItemsSold  decimal.Decimal `json:"total_items_sold"`
	SalesCount      int64           `json:"sales_count"`
}

type DailySupplierSummary struct {
	Date         Date            `json:"date"`
	TotalSupply  decimal.Decimal `json:"total_supply"`
	TotalReturns decimal.Decimal `json:"total_returns"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	SupplyCount  int64           `json:"supply_count"`
	ReturnCount  int64           `json:"return_count"`
}

type SupplierWiseEntry struct {
	SupplierName   string          `json:"supplier_name"`
	TotalSupply    decimal.Decimal `json:"total_supply"`
	SupplyQuantity decimal.Decimal `json:"supply_quantity"`
	SupplyRecords  int64           `json:"supply_records"`
	TotalReturns   decimal.Decimal `json:"total_returns"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	ReturnRecords  int64           `json:"return_records"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

type SupplierWiseSummary struct {
	Date      Date                `json:"date"`
	Suppliers []SupplierWiseEntry `json:"suppliers"`
}

type ExpenseSummary struct {
	Date              Date                       `json:"date"`
	TotalExpenses     decimal.Decimal            `json:"total_expenses"`
	CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
	ExpenseCount      int64                      `json:"expense_count"`
}

type FinancialReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	PeriodStart   Date            `json:"period_start"`
	PeriodEnd     Date            `json:"period_end"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	ProfitMargin  float64         `json:"profit_margin"`
	ExpenseRatio  float64         `json:"expense_ratio"`
}

type DailyReport struct {
	Date              Date                 `json:"date"`
	SupplierSummary   DailySupplierSummary `json:"supplier_summary"`
	SalesSummary      DailySalesSummary    `json:"sales_summary"`
	NetInventoryValue decimal.Decimal      `json:"net_inventory_value"`
}

type VarietyProfit struct {
	VarietyID     int64           `json:"variety_id"`
	VarietyName   string          `json:"variety_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	SalesCount    int64           `json:"sales_count"`
}

type SalespersonProfit struct {
	SalespersonName string          `json:"salesperson_name"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	SalesCount      int64           `json:"sales_count"`
}

type ProfitReport struct {
	Date                Date                `json:"date"`
	TotalProfit         decimal.Decimal     `json:"total_profit"`
	ProfitByVariety     []VarietyProfit     `json:"profit_by_variety"`
	ProfitBySalesperson []SalespersonProfit `json:"profit_by_salesperson"`
}

// Auth and audit.

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)
