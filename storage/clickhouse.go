package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/thisisjab/defscript/entity"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

type ClickHouseStorage struct {
	conn clickhouse.Conn
	cfg  ClickHouseStorageConfig
}

func NewClickHouseStorage(cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	if len(cfg.Addr) == 0 {
		return nil, errors.New("clickhouse address is required")
	}

	return &ClickHouseStorage{cfg: cfg}, nil
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	// Metadata is free-form, so it goes into a JSON column.
	return conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS evaluations (
			id UUID,
			source String,
			timestamp DateTime64(3),
			status Enum8('PENDING' = 0, 'SUCCEEDED' = 1, 'FAILED' = 2),
			statement String,
			result String,
			kind LowCardinality(String),
			error_code LowCardinality(String),
			error String,
			metadata JSON
		)
		ENGINE = MergeTree
		ORDER BY (source, timestamp, id)
		PARTITION BY toYYYYMM(timestamp)
	`)
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		Settings: clickhouse.Settings{
			"allow_experimental_json_type": 1,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	return s.conn.Close()
}

func (s *ClickHouseStorage) StoreEvaluations(ctx context.Context, evaluations ...entity.Evaluation) error {
	if len(evaluations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO evaluations (id, source, timestamp, status, statement, result, kind, error_code, error, metadata)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	for _, e := range evaluations {
		metadata, err := plainMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("couldn't encode metadata of evaluation %s: %w", e.ID, err)
		}

		err = batch.Append(e.ID, e.Source, e.Timestamp, e.Status().String(), e.Statement, e.Result, e.Kind, e.ErrorCode, e.Error, metadata)
		if err != nil {
			return fmt.Errorf("couldn't append evaluation to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

// plainMetadata reduces metadata to the maps, slices and scalars the JSON
// column understands.
func plainMetadata(metadata map[string]any) (map[string]any, error) {
	res := make(map[string]any)
	if len(metadata) == 0 {
		return res, nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	return res, nil
}
