package app

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/dshills/cmdtree/internal/command/lexer"
	"github.com/dshills/cmdtree/internal/dispatcher"
	"github.com/dshills/cmdtree/internal/logging"
)

// LineResult is the outcome of one batch line.
type LineResult struct {
	// Line is the 1-based line number in the input.
	Line   int
	Input  string
	Result dispatcher.Result
	Err    error
}

// BatchSummary counts the lines of a batch run.
type BatchSummary struct {
	// Dispatched counts lines that were dispatched, Failed those of them
	// that returned an error.
	Dispatched int
	Failed     int

	// Skipped counts blank lines and # comments.
	Skipped int
}

// RunBatch dispatches each line of r in order. Blank lines and lines
// starting with # are skipped. A failed line does not stop the run; report,
// when non-nil, sees every dispatched line. RunBatch stops early when ctx is
// done and returns its error.
func (app *Application) RunBatch(ctx context.Context, r io.Reader, report func(LineResult)) (BatchSummary, error) {
	var sum BatchSummary
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			sum.Skipped++
			continue
		}

		if app.logger.Enabled(logging.LevelDebug) {
			if tokens, err := lexer.Split(input); err == nil {
				app.logger.WithField("line", n).Debug("tokens %q", tokens)
			}
		}

		res, err := app.Dispatch(input)
		sum.Dispatched++
		if err != nil {
			sum.Failed++
		}
		if report != nil {
			report(LineResult{Line: n, Input: input, Result: res, Err: err})
		}
	}
	return sum, scanner.Err()
}
