// Package processor turns one source file into its letter-count result file.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lettercount/internal/fsutil"
	"lettercount/internal/letters"
	"lettercount/internal/logging"
	"lettercount/internal/otel"
)

// Result describes one processing attempt.
type Result struct {
	Source      string
	Destination string
	Letters     int
	Err         error
	Duration    time.Duration
}

func (result Result) Name() string {
	return filepath.Base(result.Source)
}

type Options struct {
	DestDir     string
	Logger      *logging.Logger
	Instruments *otel.Instruments
	FilePerm    os.FileMode
}

type Processor struct {
	destDir     string
	logger      *logging.Logger
	instruments *otel.Instruments
	filePerm    os.FileMode
}

func New(options Options) (*Processor, error) {
	if options.DestDir == "" {
		return nil, errors.New("destination directory is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		destDir:     options.DestDir,
		logger:      logger,
		instruments: options.Instruments,
		filePerm:    options.FilePerm,
	}, nil
}

func (processor *Processor) DestDir() string {
	return processor.destDir
}

// Process reads source, counts its letters and writes the count into the
// destination directory. The outcome is logged and returned in the Result;
// failures stay inside it. A cancelled ctx does not interrupt the read or the
// write.
func (processor *Processor) Process(ctx context.Context, source string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	ctx, span := processor.instruments.StartProcess(ctx, source)

	result := processor.process(source)
	result.Duration = time.Since(started)
	processor.instruments.RecordOutcome(ctx, span, result.Letters, result.Err, result.Duration)
	processor.report(result)
	return result
}

func (processor *Processor) process(source string) Result {
	result := Result{Source: source}

	destination, err := fsutil.DestinationPath(processor.destDir, source)
	if err != nil {
		result.Err = err
		return result
	}
	result.Destination = destination

	count, err := letters.CountFile(source)
	if err != nil {
		result.Err = fmt.Errorf("read: %w", err)
		return result
	}

	if err := fsutil.ReplaceFile(destination, []byte(strconv.Itoa(count)), processor.filePerm); err != nil {
		result.Err = fmt.Errorf("write %s: %w", destination, err)
		return result
	}
	result.Letters = count
	return result
}

func (processor *Processor) report(result Result) {
	name := result.Name()
	if result.Err != nil {
		processor.logger.Error(fmt.Sprintf("error processing %s: %v", name, result.Err), map[string]string{
			"file":  name,
			"error": result.Err.Error(),
		})
		return
	}
	processor.logger.Info(fmt.Sprintf("processed %s: %d letters", name, result.Letters), map[string]string{
		"file":        name,
		"letters":     strconv.Itoa(result.Letters),
		"destination": result.Destination,
		"duration_ms": strconv.FormatInt(result.Duration.Milliseconds(), 10),
	})
}
