// Package eval scores positions with a UCI engine, degrading to a synthetic
// material estimate when the engine is missing, broken or slow.
package eval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const initTimeout = 4 * time.Second

// State is the engine lifecycle. Initialization is attempted once; a failure
// is cached so a known-broken engine is not re-probed on every move.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

// Result is one position evaluation. Centipawns are white-positive. Mate is
// the signed mate distance (positive: white mates), 0 when none. Depth 0 or
// 1 marks a degraded evaluation, not a real search.
type Result struct {
	Centipawns int
	Mate       int
	Depth      int
}

// Degraded reports whether this result came from the fallback estimator.
func (r Result) Degraded() bool { return r.Depth <= 1 }

// Engine runs one UCI subprocess with a single-threaded command queue:
// evaluation requests are serialized, and every request issues stop before
// repositioning, the only safe ordering under UCI. Cancel bypasses the
// search queue so a reset can abort an in-flight search.
type Engine struct {
	binaryPath string
	depth      int
	timeout    time.Duration
	logger     *zap.Logger

	initOnce sync.Once

	stateMu sync.Mutex
	state   State

	searchMu sync.Mutex // serializes Evaluate
	writeMu  sync.Mutex // guards the stdin command stream

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

func NewEngine(binaryPath string, depth int, timeout time.Duration, logger *zap.Logger) *Engine {
	if depth <= 0 {
		depth = 12
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{binaryPath: binaryPath, depth: depth, timeout: timeout, logger: logger}
}

// Available initializes on first call and reports whether the real engine is
// usable. Consulted before every evaluation request.
func (e *Engine) Available() bool {
	e.initOnce.Do(e.initialize)
	return e.currentState() == Ready
}

func (e *Engine) currentState() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
}

func (e *Engine) initialize() {
	e.setState(Initializing)

	fail := func(err error) {
		e.logger.Warn("uci engine unavailable, falling back to material estimates", zap.Error(err))
		e.setState(Failed)
	}

	if strings.TrimSpace(e.binaryPath) == "" {
		fail(fmt.Errorf("no engine binary configured"))
		return
	}

	cmd := exec.Command(e.binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		fail(fmt.Errorf("create stdin pipe: %w", err))
		return
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		fail(fmt.Errorf("create stdout pipe: %w", err))
		return
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		fail(fmt.Errorf("start engine: %w", err))
		return
	}

	e.cmd = cmd
	e.stdin = stdin
	e.lines = make(chan string, 32)
	go pumpLines(stdoutPipe, e.lines)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	steps := []struct {
		send  string
		await string
	}{
		{"uci\n", "uciok"},
		{"isready\n", "readyok"},
	}
	for _, step := range steps {
		if err := e.send(step.send); err != nil {
			fail(fmt.Errorf("send %q: %w", strings.TrimSpace(step.send), err))
			return
		}
		if err := e.awaitToken(ctx, step.await); err != nil {
			fail(fmt.Errorf("wait %s: %w", step.await, err))
			return
		}
	}

	e.setState(Ready)
}

// Evaluate scores a FEN. It always returns a usable Result: any engine
// failure or timeout substitutes the material estimate. The wall-clock
// timeout is armed per request and disarmed when bestmove arrives.
func (e *Engine) Evaluate(ctx context.Context, fen string) Result {
	if !e.Available() {
		return MaterialEstimate(fen)
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	searchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// stop first: cancels any search a prior timeout left running.
	for _, cmd := range []string{"stop\n", "position fen " + fen + "\n", fmt.Sprintf("go depth %d\n", e.depth)} {
		if err := e.send(cmd); err != nil {
			return MaterialEstimate(fen)
		}
	}

	res, err := e.collectSearch(searchCtx)
	if err != nil {
		e.logger.Warn("evaluation timed out or failed, using material estimate",
			zap.Error(err),
			zap.String("fen", fen),
		)
		e.resync()
		return MaterialEstimate(fen)
	}

	if !whiteToMove(fen) {
		res.Centipawns = -res.Centipawns
		res.Mate = -res.Mate
	}
	return res
}

// resync realigns the command stream after an aborted search: stop whatever
// is running, then drain output up to readyok so the next request does not
// consume this one's leftovers. An engine that cannot acknowledge within the
// search budget is retired and later requests degrade to estimates.
func (e *Engine) resync() {
	if err := e.send("stop\nisready\n"); err != nil {
		e.setState(Failed)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := e.awaitToken(ctx, "readyok"); err != nil {
		e.logger.Warn("engine did not resynchronize, retiring it", zap.Error(err))
		e.setState(Failed)
	}
}

// Cancel is a best-effort abort of an in-flight search. It does not wait
// for the search to acknowledge.
func (e *Engine) Cancel() {
	if e.currentState() == Ready {
		_ = e.send("stop\n")
	}
}

func (e *Engine) Close() error {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		return e.cmd.Wait()
	}
	return nil
}

// collectSearch reads engine output until bestmove, tracking the deepest
// info line seen. Scores here are still side-to-move relative.
func (e *Engine) collectSearch(ctx context.Context) (Result, error) {
	var res Result
	for {
		line, err := e.readLine(ctx)
		if err != nil {
			return Result{}, err
		}
		switch {
		case strings.HasPrefix(line, "info "):
			parseInfoLine(line, &res)
		case strings.HasPrefix(line, "bestmove"):
			return res, nil
		}
	}
}

func parseInfoLine(line string, res *Result) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil && v > res.Depth {
					res.Depth = v
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				val, err := strconv.Atoi(parts[i+2])
				if err == nil {
					switch parts[i+1] {
					case "cp":
						res.Centipawns = val
						res.Mate = 0
					case "mate":
						res.Mate = val
					}
				}
				i += 2
			}
		}
	}
}

func (e *Engine) send(msg string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.stdin == nil {
		return fmt.Errorf("engine stdin closed")
	}
	_, err := io.WriteString(e.stdin, msg)
	return err
}

func (e *Engine) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := e.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

// pumpLines is the sole reader of the engine's stdout; it forwards each
// trimmed line until the pipe closes. Single ownership means a timed-out
// request never leaves a blocked read competing for the stream.
func pumpLines(r io.Reader, out chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- strings.TrimSpace(sc.Text())
	}
	close(out)
}

func (e *Engine) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-e.lines:
		if !ok {
			return "", fmt.Errorf("engine output stream closed")
		}
		return line, nil
	}
}

func whiteToMove(fen string) bool {
	fields := strings.Fields(fen)
	return len(fields) < 2 || fields[1] != "b"
}
