package storage

import (
	"context"

	"github.com/askdb/askdb/internal/errors"
)

const createSalesDataSQL = `
CREATE TABLE IF NOT EXISTS sales_data (
	Product_ID           BIGINT,
	Sale_Date            DATE,
	Sales_Rep            VARCHAR,
	Region               VARCHAR,
	Sales_Amount         DOUBLE,
	Quantity_Sold        BIGINT,
	Product_Category     VARCHAR,
	Unit_Cost            DOUBLE,
	Unit_Price           DOUBLE,
	Customer_Type        VARCHAR,
	Discount             DOUBLE,
	Payment_Method       VARCHAR,
	Sales_Channel        VARCHAR,
	Region_and_Sales_Rep VARCHAR
)`

const insertSalesRowSQL = `
INSERT INTO sales_data (
	Product_ID, Sale_Date, Sales_Rep, Region, Sales_Amount, Quantity_Sold,
	Product_Category, Unit_Cost, Unit_Price, Customer_Type, Discount,
	Payment_Method, Sales_Channel, Region_and_Sales_Rep
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type salesRow struct {
	productID int64
	saleDate  string
	salesRep  string
	region    string
	amount    float64
	quantity  int64
	category  string
	unitCost  float64
	unitPrice float64
	customer  string
	discount  float64
	payment   string
	channel   string
	regionRep string
}

// sampleSalesRows is a small deterministic dataset covering every region,
// category, and payment method at least once.
var sampleSalesRows = []salesRow{
	{1001, "2024-01-15", "Alice Carter", "North", 2499.50, 5, "Electronics", 350.00, 499.90, "Retail", 0.05, "Credit Card", "Online", "North-Alice Carter"},
	{1002, "2024-01-18", "Ben Okafor", "South", 840.00, 12, "Furniture", 45.00, 70.00, "Wholesale", 0.10, "Bank Transfer", "Retail Store", "South-Ben Okafor"},
	{1003, "2024-02-02", "Carla Mendes", "East", 156.75, 3, "Clothing", 32.00, 52.25, "Retail", 0.00, "Cash", "Retail Store", "East-Carla Mendes"},
	{1004, "2024-02-10", "Dmitri Volkov", "West", 5120.00, 8, "Electronics", 480.00, 640.00, "Wholesale", 0.15, "Credit Card", "Online", "West-Dmitri Volkov"},
	{1005, "2024-03-05", "Alice Carter", "North", 312.40, 4, "Home Goods", 55.00, 78.10, "Retail", 0.00, "Debit Card", "Online", "North-Alice Carter"},
	{1006, "2024-03-22", "Ben Okafor", "South", 1980.00, 22, "Clothing", 60.00, 90.00, "Wholesale", 0.08, "Bank Transfer", "Retail Store", "South-Ben Okafor"},
	{1007, "2024-04-01", "Carla Mendes", "East", 745.25, 7, "Home Goods", 80.00, 106.46, "Retail", 0.02, "Credit Card", "Online", "East-Carla Mendes"},
	{1008, "2024-04-19", "Dmitri Volkov", "West", 94.99, 1, "Electronics", 60.00, 94.99, "Retail", 0.00, "Cash", "Retail Store", "West-Dmitri Volkov"},
	{1009, "2024-05-07", "Alice Carter", "North", 3600.00, 30, "Furniture", 85.00, 120.00, "Wholesale", 0.12, "Bank Transfer", "Online", "North-Alice Carter"},
	{1010, "2024-05-28", "Carla Mendes", "East", 420.80, 8, "Clothing", 38.00, 52.60, "Retail", 0.05, "Debit Card", "Retail Store", "East-Carla Mendes"},
}

// Seed creates the sales_data table and loads the sample dataset on first
// run. An already populated table is left untouched.
func (s *Store) Seed(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSalesDataSQL); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to create sales_data table")
	}

	count, err := s.RowCount(ctx, "sales_data")
	if err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to begin seed transaction")
	}

	defer func() { _ = tx.Rollback() }()

	for _, row := range sampleSalesRows {
		_, err := tx.ExecContext(ctx, insertSalesRowSQL,
			row.productID, row.saleDate, row.salesRep, row.region,
			row.amount, row.quantity, row.category,
			row.unitCost, row.unitPrice, row.customer, row.discount,
			row.payment, row.channel, row.regionRep,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to insert sample row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to commit seed transaction")
	}

	return nil
}
