package database

import (
	"fmt"

	"github.com/banko-ai/banko-backend/internal/models"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"
)

func newClickHouse(config models.DatabaseConfig) (*DB, error) {
	var dsn string
	if config.DSN != "" {
		dsn = config.DSN
	} else {
		dsn = fmt.Sprintf(
			"clickhouse://%s:%s@%s:%d/%s",
			config.Username,
			config.Password,
			config.Host,
			config.Port,
			config.Database,
		)
	}

	gormDB, err := gorm.Open(clickhouse.New(clickhouse.Config{
		DSN:                    dsn,
		DefaultGranularity:     3,
		DefaultCompression:     "LZ4",
		DefaultIndexType:       "minmax",
		DefaultTableEngineOpts: "ENGINE=MergeTree() ORDER BY id",
	}), &gorm.Config{
		// Disable prepared statements for ClickHouse - the driver has incomplete support
		// See: https://github.com/go-gorm/gorm/issues/7493
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	db := &DB{
		DB:         gormDB,
		config:     config,
		driverName: "clickhouse",
	}

	db.setConnectionPool()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return db, nil
}

// runClickHouseMigrations creates the cache tables directly without GORM's
// AutoMigrate, which misbehaves with the ClickHouse driver.
func runClickHouseMigrations(db *gorm.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS expenses (
			expense_id String,
			user_id String,
			description String,
			expense_amount Float64,
			merchant String,
			shopping_type String,
			expense_date DateTime,
			payment_method String,
			embedding String
		) ENGINE = MergeTree()
		ORDER BY expense_id`,

		`CREATE TABLE IF NOT EXISTS embedding_cache (
			text_hash String,
			model_id String,
			embedding String,
			created_at DateTime DEFAULT now(),
			last_accessed DateTime DEFAULT now(),
			hit_count Int64,
			ttl_seconds Int64,
			expires_at DateTime
		) ENGINE = MergeTree()
		ORDER BY text_hash`,

		`CREATE TABLE IF NOT EXISTS vector_search_cache (
			query_hash String,
			result_limit Int32,
			user_id String,
			results String,
			created_at DateTime DEFAULT now(),
			last_accessed DateTime DEFAULT now(),
			hit_count Int64,
			ttl_seconds Int64,
			expires_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (query_hash, result_limit, user_id)`,

		`CREATE TABLE IF NOT EXISTS query_cache (
			id UInt64,
			question_text String,
			question_embedding String,
			provider String,
			data_fingerprint String,
			response_text String,
			prompt_tokens Int64,
			response_tokens Int64,
			created_at DateTime DEFAULT now(),
			last_accessed DateTime DEFAULT now(),
			hit_count Int64,
			ttl_seconds Int64,
			expires_at DateTime
		) ENGINE = MergeTree()
		ORDER BY id`,

		`CREATE TABLE IF NOT EXISTS cache_events (
			id UInt64,
			layer String,
			outcome String,
			tokens_saved Int64,
			created_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (layer, created_at)`,
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
