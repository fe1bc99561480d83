package alerting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Thresholds parámetros de las reglas. Se pueden cargar desde YAML (ALERT_RULES_FILE).
type Thresholds struct {
	LowStockMax        decimal.Decimal `yaml:"low_stock_max"`
	CriticalStockMax   decimal.Decimal `yaml:"critical_stock_max"`
	LowStockLimit      int             `yaml:"low_stock_limit"`
	ReservedLimit      int             `yaml:"reserved_limit"`
	HighValueFloor     decimal.Decimal `yaml:"high_value_floor"`
	FragmentationLimit int             `yaml:"fragmentation_limit"`
	FWRDLimit          int             `yaml:"fwrd_limit"`
	FWRDMinPlates      int             `yaml:"fwrd_min_plates"`
}

// DefaultThresholds valores usados por la importación de OFBiz.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowStockMax:        decimal.NewFromInt(10),
		CriticalStockMax:   decimal.NewFromInt(5),
		LowStockLimit:      5,
		ReservedLimit:      3,
		HighValueFloor:     decimal.NewFromInt(100),
		FragmentationLimit: 2,
		FWRDLimit:          5,
		FWRDMinPlates:      2,
	}
}

// Validate verifica la coherencia de los umbrales.
func (t Thresholds) Validate() error {
	if !t.LowStockMax.IsPositive() {
		return fmt.Errorf("alerting: low_stock_max debe ser positivo")
	}
	if t.CriticalStockMax.GreaterThan(t.LowStockMax) {
		return fmt.Errorf("alerting: critical_stock_max (%s) mayor que low_stock_max (%s)", t.CriticalStockMax, t.LowStockMax)
	}
	if t.LowStockLimit < 0 || t.ReservedLimit < 0 || t.FragmentationLimit < 0 || t.FWRDLimit < 0 {
		return fmt.Errorf("alerting: los límites no pueden ser negativos")
	}
	if t.FWRDMinPlates < 2 {
		return fmt.Errorf("alerting: fwrd_min_plates debe ser al menos 2")
	}
	return nil
}
