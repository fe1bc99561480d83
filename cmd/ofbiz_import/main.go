// ofbiz_import importa una exportación de OFBiz (inventario + catálogo de productos)
// para una empresa, usando el mismo flujo que POST /api/ingestion/upload.
//
// Uso: go run ./cmd/ofbiz_import -company <uuid> [-dir ./data]
// Por defecto lee ofbiz-inventory.json y ofbiz-products.json del directorio indicado.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain/alerting"
	infrakafka "github.com/jhoicas/flowlogic-api/internal/infrastructure/kafka"
	"github.com/jhoicas/flowlogic-api/internal/infrastructure/ofbiz"
	"github.com/jhoicas/flowlogic-api/internal/infrastructure/postgres"
	"github.com/jhoicas/flowlogic-api/pkg/config"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", ".", "directorio con la exportación de OFBiz")
	inventory := flag.String("inventory", "ofbiz-inventory.json", "archivo de inventario")
	products := flag.String("products", "ofbiz-products.json", "catálogo de productos (opcional)")
	companyID := flag.String("company", cfg.Ingestion.CompanyID, "empresa destino (uuid)")
	sourceKey := flag.String("source-key", "ofbiz:cli", "identidad del origen")
	flag.Parse()

	if *companyID == "" {
		fmt.Fprintln(os.Stderr, "Falta -company (o INGESTION_COMPANY_ID)")
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *companyID, *sourceKey,
		filepath.Join(*dir, *inventory), filepath.Join(*dir, *products)); err != nil {
		log.Error().Err(err).Msg("importación OFBiz")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, companyID, sourceKey, inventoryPath, productsPath string) error {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		return err
	}

	var publisher ports.AlertPublisher = ports.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = infrakafka.NewAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.AlertsTopic)
	}
	defer publisher.Close()

	importer := ingestion.NewImportUseCase(
		postgres.NewTxRunner(pool), postgres.NewIngestionRepository(pool), ofbiz.NewDecoder(),
		alerting.NewEvaluator(cfg.Alerts.Thresholds), publisher, nil, cfg.Alerts.Dedupe, log,
	)

	inv, err := os.Open(inventoryPath)
	if err != nil {
		return fmt.Errorf("abrir inventario: %w", err)
	}
	defer inv.Close()

	// El catálogo es opcional: sin él los nombres de producto quedan vacíos.
	var productsReader io.Reader
	if f, err := os.Open(productsPath); err == nil {
		defer f.Close()
		productsReader = f
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("abrir productos: %w", err)
	} else {
		log.Warn().Str("path", productsPath).Msg("catálogo de productos no encontrado; se importa sin nombres")
	}

	res, err := importer.Import(ctx, ingestion.ImportRequest{
		CompanyID: companyID,
		SourceKey: sourceKey,
		Source:    "OFBiz",
		Filename:  filepath.Base(inventoryPath),
		Data:      inv,
		Products:  productsReader,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("ingestion_id", res.IngestionID).
		Str("status", res.Status).
		Int("imported", res.Imported).
		Int("errors", res.ErrorCount).
		Int("products", res.ProductCount).
		Int("alerts_created", res.AlertsCreated).
		Int("alerts_skipped", res.AlertsSkipped).
		Strs("rule_failures", res.RuleFailures).
		Msg("importación OFBiz completada")
	for _, e := range res.Errors {
		log.Warn().Int("row", e.Row).Str("message", e.Message).Msg("fila rechazada")
	}
	return nil
}
