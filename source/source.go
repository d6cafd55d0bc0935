package source

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/thisisjab/defscript/entity"
)

// lineReader splits a growing stream into lines. A trailing line without a
// newline is held back until the rest of it arrives, unless flush is set.
type lineReader struct {
	reader  *bufio.Reader
	partial []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

// drain sends every complete line currently available to emit. Blank lines
// are skipped.
func (lr *lineReader) drain(ctx context.Context, flush bool, emit func(context.Context, []byte) error) error {
	for {
		chunk, err := lr.reader.ReadBytes('\n')
		lr.partial = append(lr.partial, chunk...)

		if err == io.EOF {
			if flush && len(lr.partial) > 0 {
				line := lr.partial
				lr.partial = nil
				return emitLine(ctx, line, emit)
			}
			return nil
		}
		if err != nil {
			return err
		}

		line := lr.partial
		lr.partial = nil
		if err := emitLine(ctx, line, emit); err != nil {
			return err
		}
	}
}

func emitLine(ctx context.Context, line []byte, emit func(context.Context, []byte) error) error {
	line = bytes.TrimRight(line, "\r\n")
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	return emit(ctx, line)
}

// send delivers a record unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- entity.Evaluation, sourceName string, line []byte) error {
	record := entity.Evaluation{
		Source:    sourceName,
		RawData:   bytes.Clone(line),
		Statement: string(line),
		Timestamp: time.Now(),
	}

	select {
	case ch <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
