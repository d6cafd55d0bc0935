package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/thisisjab/defscript/entity"
)

type FileStatementSourceConfig struct {
	Name       string   `yaml:"-"`
	Path       string   `yaml:"path"`
	Processors []string `yaml:"processors"`

	// FromStart evaluates the lines already in the file before tailing it.
	FromStart bool `yaml:"from_start"`

	// Once reads the file from the start up to its end and stops instead of
	// waiting for new lines.
	Once bool `yaml:"once"`
}

// FileStatementSource works by watching a file for changes and reading new lines as they are written.
// Every line becomes one record whose statement is the raw line; processors may rewrite it.
type FileStatementSource struct {
	cfg    FileStatementSourceConfig
	logger *slog.Logger
}

// NewFileStatementSource creates a new FileStatementSource instance.
func NewFileStatementSource(logger *slog.Logger, cfg FileStatementSourceConfig) *FileStatementSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &FileStatementSource{
		cfg:    cfg,
		logger: logger,
	}
}

func (f *FileStatementSource) Name() string {
	return f.cfg.Name
}

func (f *FileStatementSource) ProcessorNames() []string {
	return f.cfg.Processors
}

func (f *FileStatementSource) Provide(ctx context.Context, ch chan<- entity.Evaluation) error {
	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	emit := func(ctx context.Context, line []byte) error {
		return send(ctx, ch, f.cfg.Name, line)
	}

	if f.cfg.Once {
		return newLineReader(file).drain(ctx, true, emit)
	}

	if !f.cfg.FromStart {
		// Reading moves the cursor, so every later read starts where the last one stopped.
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.cfg.Path); err != nil {
		return fmt.Errorf("cannot add file to watcher: %w", err)
	}

	reader := newLineReader(file)

	// Anything written between opening the file and adding the watcher is
	// picked up here as well.
	if err := reader.drain(ctx, false, emit); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if !event.Has(fsnotify.Write) {
				// Editors that replace the file on save give it a new inode, which the watcher does not follow.
				f.logger.Debug("Received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			if err := reader.drain(ctx, false, emit); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
