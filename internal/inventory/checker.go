// internal/inventory/checker.go
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ferreteria-gateway/internal/common/config"
	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/models"
)

const stockQuery = `
	SELECT p.sku, p.name, COALESCE(c.name, '') AS category, COALESCE(s.quantity, 0) AS stock
	FROM product p
	LEFT JOIN category c ON p.category_id = c.category_id
	LEFT JOIN stock_location s ON p.sku = s.sku
	ORDER BY p.sku`

// Notifier delivers the generated alert.
type Notifier interface {
	SendAlert(ctx context.Context, subject, message string) map[string]string
}

// Report summarizes one inventory sweep.
type Report struct {
	Status          string            `json:"status"`
	Message         string            `json:"message,omitempty"`
	OutOfStockCount int               `json:"out_of_stock_count"`
	LowStockCount   int               `json:"low_stock_count"`
	DeliveryStatus  map[string]string `json:"delivery_status,omitempty"`
}

// Checker sweeps the product catalog for low or exhausted stock and
// raises an alert through the notifier when anything is found.
type Checker struct {
	db       *sql.DB
	cfg      config.InventoryConfig
	notifier Notifier
	logger   logger.Logger
}

func NewChecker(db *sql.DB, cfg config.InventoryConfig, notifier Notifier, log logger.Logger) *Checker {
	return &Checker{
		db:       db,
		cfg:      cfg,
		notifier: notifier,
		logger:   log.With(map[string]interface{}{"component": "inventory"}),
	}
}

// Check runs one sweep.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	products, err := c.loadProducts(ctx)
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		c.logger.Info("inventory check ran, but no products found", nil)
		return &Report{Status: "ok", Message: "No products found."}, nil
	}

	var outOfStock, lowStock []models.Product
	for _, p := range products {
		switch {
		case p.Stock <= c.cfg.OutOfStockThreshold:
			outOfStock = append(outOfStock, p)
		case p.Stock <= c.cfg.LowStockThreshold:
			lowStock = append(lowStock, p)
		}
	}

	if len(outOfStock) == 0 && len(lowStock) == 0 {
		c.logger.Info("inventory check completed, all products have sufficient stock", map[string]interface{}{
			"productCount": len(products),
		})
		return &Report{Status: "ok", Message: "All products have sufficient stock."}, nil
	}

	alert := buildAlertMessage(outOfStock, lowStock)
	delivery := c.notifier.SendAlert(ctx, "Alerta de Inventario", alert)

	return &Report{
		Status:          "alert_generated",
		OutOfStockCount: len(outOfStock),
		LowStockCount:   len(lowStock),
		DeliveryStatus:  delivery,
	}, nil
}

func (c *Checker) loadProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := c.db.QueryContext(ctx, stockQuery)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("inventory_stock", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.Stock); err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("inventory_stock", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("inventory_stock", err)
	}

	return products, nil
}

func buildAlertMessage(outOfStock, lowStock []models.Product) string {
	var b strings.Builder
	b.WriteString("🚨 *ALERTA DE INVENTARIO* 🚨\n\n")

	if len(outOfStock) > 0 {
		fmt.Fprintf(&b, "❌ *PRODUCTOS AGOTADOS (%d):*\n", len(outOfStock))
		for _, p := range outOfStock {
			fmt.Fprintf(&b, "• %s (SKU: %s)\n", p.Name, p.SKU)
		}
		b.WriteString("\n")
	}

	if len(lowStock) > 0 {
		fmt.Fprintf(&b, "⚠️ *STOCK BAJO (%d):*\n", len(lowStock))
		for _, p := range lowStock {
			fmt.Fprintf(&b, "• %s - Stock: %d (SKU: %s)\n", p.Name, p.Stock, p.SKU)
		}
		b.WriteString("\n")
	}

	return b.String()
}
