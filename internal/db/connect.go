package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"chatrelay/internal/config"
	"chatrelay/internal/logger"
)

type DB struct {
	*bun.DB
	logger logger.Logger
}

func NewConnection(cfg *config.Config) (*DB, error) {
	log := logger.NewForComponent("Database")

	bunDB, err := Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.IsDevelopment() || cfg.App.Debug {
		bunDB.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(cfg.App.Debug),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := bunDB.PingContext(ctx); err != nil {
		_ = bunDB.Close()
		return nil, fmt.Errorf("falha ao conectar ao banco: %w", err)
	}

	log.Info("Conectado ao banco de dados", "driver", cfg.Database.Driver)

	return &DB{
		DB:     bunDB,
		logger: log,
	}, nil
}

// Open cria o *bun.DB para o driver informado sem testar a conexão.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case config.DriverPostgres:
		sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		return bun.NewDB(sqlDB, pgdialect.New()), nil

	case config.DriverSQLite:
		sqlDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("falha ao abrir sqlite: %w", err)
		}
		// SQLite serializa escritas; uma conexão evita SQLITE_BUSY e mantém bancos em memória vivos
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil

	default:
		return nil, fmt.Errorf("driver de banco não suportado: %s", driver)
	}
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("falha ao fechar banco: %w", err)
	}
	db.logger.Info("Conexão com o banco encerrada")
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func IsPostgres(db bun.IDB) bool {
	return db.Dialect().Name() == dialect.PG
}
