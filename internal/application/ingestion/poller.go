package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// Importer lo implementa ImportUseCase.
type Importer interface {
	Import(ctx context.Context, req ImportRequest) (*ImportResult, error)
}

// PollerConfig configuración del poller de la carpeta de entrada.
type PollerConfig struct {
	InboxDir  string
	Interval  time.Duration
	CompanyID string
	SourceKey string
	Source    string
}

// productsSuffix marca catálogos de productos: "inv.json" usa "inv.products.json" si existe.
const productsSuffix = ".products.json"

// Poller importa periódicamente los archivos que aparecen en la carpeta de entrada
// y los mueve a processed/ o failed/.
type Poller struct {
	cfg      PollerConfig
	importer Importer
	log      *logger.Logger
}

// NewPoller construye el poller. Interval <= 0 usa una hora.
func NewPoller(cfg PollerConfig, importer Importer, log *logger.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Source == "" {
		cfg.Source = "OFBiz"
	}
	return &Poller{cfg: cfg, importer: importer, log: log.Component("ingestion-poller")}
}

// Run procesa la carpeta al iniciar y luego en cada intervalo hasta que ctx se cancele.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().Str("inbox", p.cfg.InboxDir).Dur("interval", p.cfg.Interval).Msg("poller de ingesta iniciado")
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.ScanOnce(ctx); err != nil {
			p.log.Error().Err(err).Msg("escaneo de inbox falló")
		}
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller de ingesta detenido")
			return
		case <-ticker.C:
		}
	}
}

// ScanOnce importa los archivos pendientes en orden alfabético y devuelve cuántos procesó.
// El fallo de un archivo no detiene los siguientes.
func (p *Poller) ScanOnce(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(p.cfg.InboxDir)
	if err != nil {
		return 0, fmt.Errorf("leer inbox: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, productsSuffix) || !supported(name) {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	processed := 0
	for _, name := range files {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		catalog, err := p.importFile(ctx, name)
		dest := "processed"
		if err != nil {
			dest = "failed"
			p.log.Error().Err(err).Str("file", name).Msg("importación de archivo falló")
		}
		// El catálogo acompaña a su inventario, también a failed/.
		for _, f := range []string{name, catalog} {
			if f == "" {
				continue
			}
			if mvErr := p.move(f, dest); mvErr != nil {
				p.log.Error().Err(mvErr).Str("file", f).Msg("no se pudo mover el archivo")
			}
		}
		processed++
	}
	return processed, nil
}

// importFile devuelve además el nombre del catálogo de productos que usó, si había uno.
func (p *Poller) importFile(ctx context.Context, name string) (string, error) {
	f, err := os.Open(filepath.Join(p.cfg.InboxDir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	req := ImportRequest{
		CompanyID: p.cfg.CompanyID,
		SourceKey: p.cfg.SourceKey,
		Source:    p.cfg.Source,
		Filename:  name,
		Data:      f,
	}
	var catalog string
	if strings.HasSuffix(name, ".json") {
		candidate := strings.TrimSuffix(name, ".json") + productsSuffix
		if pf, err := os.Open(filepath.Join(p.cfg.InboxDir, candidate)); err == nil {
			defer pf.Close()
			catalog = candidate
			req.Products = pf
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	res, err := p.importer.Import(ctx, req)
	if err != nil {
		return catalog, err
	}
	p.log.Info().Str("file", name).Str("ingestion_id", res.IngestionID).Str("status", res.Status).
		Int("records", res.Imported).Int("errors", res.ErrorCount).Msg("archivo importado")
	return catalog, nil
}

func (p *Poller) move(name, subdir string) error {
	dir := filepath.Join(p.cfg.InboxDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().UTC().Format("20060102T150405")
	return os.Rename(filepath.Join(p.cfg.InboxDir, name), filepath.Join(dir, stamp+"_"+name))
}

func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".xml", ".csv":
		return true
	}
	return false
}
