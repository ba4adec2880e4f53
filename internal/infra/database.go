package infra

import (
	"fmt"

	"cajapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the full model set, then applies the idempotent SQL patches GORM cannot
// express (partial unique index, the ticket sequence).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies AutoMigrate plus the schema patches. Also used by
// integration harnesses that bring up their own database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Producto{},
		&model.Caja{},
		&model.MovimientoCaja{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Cliente{},
		&model.VentaCredito{},
		&model.PagoCredito{},
		&model.Recambio{},
		&model.RecambioItem{},
		&model.Configuracion{},
		&model.ReporteCierre{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Single-open-register guarantee at the storage layer. The service
		// checks first, this index backs the check against races.
		{"partial unique index on open caja", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_cajas_abierta') THEN
    CREATE UNIQUE INDEX uq_cajas_abierta ON cajas (estado) WHERE estado = 'abierta';
  END IF;
END $$`},
		// Atomic ticket numbering for ventas.
		{"ventas ticket sequence",
			`CREATE SEQUENCE IF NOT EXISTS ventas_numero_ticket_seq START 1`},
		// The repository guards every decrement; this holds the floor against
		// any other writer.
		{"non-negative stock check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock_no_negativo') THEN
    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock_no_negativo CHECK (stock >= 0);
  END IF;
END $$`},
		// Retry cron scans only the reports actually waiting for a retry.
		{"partial index for pending close reports", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reportes_cierre_pending_retry') THEN
    CREATE INDEX idx_reportes_cierre_pending_retry
        ON reporte_cierres (next_retry_at)
        WHERE estado = 'pendiente' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
