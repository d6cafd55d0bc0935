package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/defscript/api"
	"github.com/thisisjab/defscript/engine"
	"github.com/thisisjab/defscript/processor"
	"github.com/thisisjab/defscript/source"
	"github.com/thisisjab/defscript/storage"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Logger               LoggerConfig      `yaml:"logger"`
	Server               api.Config        `yaml:"server"`
	Storage              StorageConfig     `yaml:"storage"`
	Processors           []ProcessorConfig `yaml:"processors"`
	Sources              []SourceConfig    `yaml:"sources"`
	SourceBufferSize     uint              `yaml:"source_buffer_size"`
	StorageBufferSize    uint              `yaml:"storage_buffer_size"`
	StorageFlushInterval time.Duration     `yaml:"storage_flush_interval"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type ProcessorConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Processors []string `yaml:"processors"`
	Config     any      `yaml:"config"`
}

// Load reads and decodes the YAML file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file content: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	return &cfg, nil
}

// Parse builds the engine configuration and the logger. The logger is
// returned whenever it could be built, even if a later step fails.
func (cfg Config) Parse() (*engine.Config, *slog.Logger, error) {
	logger, err := NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	if len(cfg.Sources) == 0 {
		return nil, logger, errors.New("at least one source is required")
	}

	st, err := parseStorageConfig(cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	processors := make(map[string]engine.StatementProcessor, len(cfg.Processors))
	for _, pc := range cfg.Processors {
		if _, ok := processors[pc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate processor name `%s`", pc.Name)
		}

		p, err := parseProcessorConfig(pc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create processor `%s`: %w", pc.Name, err)
		}
		processors[pc.Name] = p
	}

	sources := make(map[string]engine.StatementSource, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if _, ok := sources[sc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate source name `%s`", sc.Name)
		}

		s, err := parseSourceConfig(logger, sc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create source `%s`: %w", sc.Name, err)
		}
		sources[sc.Name] = s
	}

	sourceBufferSize := cfg.SourceBufferSize
	if sourceBufferSize == 0 {
		sourceBufferSize = 100
	}

	return &engine.Config{
		Sources:              sources,
		Processors:           processors,
		Storage:              st,
		StorageBufferMaxSize: cfg.StorageBufferSize,
		StorageFlushInterval: cfg.StorageFlushInterval,
		SourceBufferSize:     sourceBufferSize,
	}, logger, nil
}

// NewLogger builds a logger from cfg. Level defaults to info and type to text.
func NewLogger(cfg LoggerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer
	switch cfg.Output {
	case "stdout", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	var handler slog.Handler
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text", "":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}

func parseStorageConfig(cfg StorageConfig) (engine.Storage, error) {
	switch cfg.Type {
	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig
		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	case "writer":
		var writerConfig storage.WriterStorageConfig
		if err := remarshal(cfg.Config, &writerConfig); err != nil {
			return nil, fmt.Errorf("cannot parse writer storage config: %w", err)
		}

		s, err := storage.NewWriterStorage(writerConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create writer storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseSourceConfig(logger *slog.Logger, cfg SourceConfig) (engine.StatementSource, error) {
	switch cfg.Type {
	case "file":
		var fileConfig source.FileStatementSourceConfig
		if err := remarshal(cfg.Config, &fileConfig); err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		if fileConfig.Path == "" {
			return nil, errors.New("file source requires a path")
		}

		fileConfig.Name = cfg.Name
		fileConfig.Processors = cfg.Processors

		return source.NewFileStatementSource(logger, fileConfig), nil

	default:
		return nil, fmt.Errorf("invalid statement source type: %s", cfg.Type)
	}
}

func parseProcessorConfig(cfg ProcessorConfig) (engine.StatementProcessor, error) {
	switch cfg.Type {
	case "json":
		var jsonConfig processor.JsonStatementProcessorConfig
		if err := remarshal(cfg.Config, &jsonConfig); err != nil {
			return nil, fmt.Errorf("cannot create json processor: %w", err)
		}

		jsonConfig.Name = cfg.Name

		p, err := processor.NewJsonStatementProcessor(jsonConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create json processor: %w", err)
		}

		return p, nil

	case "lua":
		var luaConfig processor.LuaStatementProcessorConfig
		if err := remarshal(cfg.Config, &luaConfig); err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		luaConfig.Name = cfg.Name

		p, err := processor.NewLuaStatementProcessor(luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		return p, nil

	default:
		return nil, fmt.Errorf("invalid statement processor type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into output.
// This converts the generic `config` blocks (map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
