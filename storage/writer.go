package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/thisisjab/defscript/entity"
)

type WriterStorageConfig struct {
	// Output is "stdout", "stderr" or a file path that evaluations are appended to.
	Output string `yaml:"output"`
}

// WriterStorage writes every evaluation as one JSON line.
type WriterStorage struct {
	cfg     WriterStorageConfig
	mu      sync.Mutex
	w       io.Writer
	file    *os.File
	encoder *json.Encoder
}

func NewWriterStorage(cfg WriterStorageConfig) (*WriterStorage, error) {
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}

	return &WriterStorage{cfg: cfg}, nil
}

// NewWriterStorageFor writes to w, which is never closed by the storage.
func NewWriterStorageFor(w io.Writer) *WriterStorage {
	return &WriterStorage{w: w}
}

func (s *WriterStorage) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		switch s.cfg.Output {
		case "stdout":
			s.w = os.Stdout
		case "stderr":
			s.w = os.Stderr
		default:
			f, err := os.OpenFile(s.cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("cannot open output file: %w", err)
			}
			s.file = f
			s.w = f
		}
	}

	s.encoder = json.NewEncoder(s.w)

	return nil
}

func (s *WriterStorage) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	s.w = nil
	s.encoder = nil

	return err
}

func (s *WriterStorage) StoreEvaluations(ctx context.Context, evaluations ...entity.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return errors.New("writer storage is not connected")
	}

	for _, e := range evaluations {
		if err := s.encoder.Encode(record{Evaluation: e, Status: e.Status().String()}); err != nil {
			return fmt.Errorf("couldn't write evaluation %s: %w", e.ID, err)
		}
	}

	return nil
}

type record struct {
	entity.Evaluation
	Status string `json:"status"`
}
