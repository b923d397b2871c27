// Package session orchestrates one AI-vs-AI (or human-vs-AI) game: it owns
// the rules authority, both players' strategic memory, the planners and move
// proposers, and drives the propose-validate-fallback-commit turn cycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/eval"
	"github.com/kapu/llm-chess-arena/internal/llm"
	"github.com/kapu/llm-chess-arena/internal/memory"
	"github.com/kapu/llm-chess-arena/internal/mover"
	"github.com/kapu/llm-chess-arena/internal/planner"
	"github.com/kapu/llm-chess-arena/internal/prompt"
	"github.com/kapu/llm-chess-arena/internal/rules"
)

var (
	// ErrGameOver is returned when a turn is requested on a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrStaleTurn is returned when the session was reset while this turn
	// was in flight; the turn's results were discarded.
	ErrStaleTurn = errors.New("session reset during turn")
)

const fallbackNote = "\n\n[The proposed move was not legal; a random legal move was played instead.]"

// Completer is the slice of the LLM client the session's planners and
// proposers share.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Evaluator scores positions; satisfied by *eval.Engine.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string) eval.Result
	Cancel()
}

// TurnReport is the outcome of one committed turn, handed to the
// presentation layer.
type TurnReport struct {
	Move       *rules.Move
	Fallback   bool
	Analysis   string
	Snapshot   rules.Snapshot
	Evaluation eval.Result
}

// Options configure a session. WhiteModel and BlackModel may differ; the
// protocol is decided once per proposer at construction.
type Options struct {
	ID         string
	WhiteModel string
	BlackModel string
	Protocol   string
	MaxTokens  int
	Completer  Completer
	Engine     Evaluator
	Logger     *zap.Logger
}

// Session is one game. Turns are serialized by the session mutex; Reset
// bumps the generation counter outside that mutex so an in-flight turn
// notices and discards its result instead of committing into the fresh game.
type Session struct {
	ID         string
	WhiteModel string
	BlackModel string

	mu        sync.Mutex
	authority *rules.Authority
	memory    *memory.Store
	planners  map[rules.Color]*planner.Planner
	proposers map[rules.Color]mover.Proposer
	engine    Evaluator
	rng       *rand.Rand
	logger    *zap.Logger

	generation uint64

	fallbacks int
	startedAt time.Time
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := memory.NewStore()
	s := &Session{
		ID:         opts.ID,
		WhiteModel: opts.WhiteModel,
		BlackModel: opts.BlackModel,
		authority:  rules.NewAuthority(),
		memory:     store,
		engine:     opts.Engine,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     logger,
		startedAt:  time.Now(),
	}
	s.planners = map[rules.Color]*planner.Planner{
		rules.White: planner.New(opts.Completer, opts.WhiteModel, store, logger.Named("planner.white")),
		rules.Black: planner.New(opts.Completer, opts.BlackModel, store, logger.Named("planner.black")),
	}
	s.proposers = map[rules.Color]mover.Proposer{
		rules.White: mover.New(opts.Completer, mover.Options{
			Model: opts.WhiteModel, Protocol: opts.Protocol, MaxTokens: opts.MaxTokens, Logger: logger.Named("mover.white"),
		}),
		rules.Black: mover.New(opts.Completer, mover.Options{
			Model: opts.BlackModel, Protocol: opts.Protocol, MaxTokens: opts.MaxTokens, Logger: logger.Named("mover.black"),
		}),
	}
	return s
}

// PlayAITurn runs one full turn for the side to move: refresh strategy,
// compose the prompt, ask the oracle, validate, fall back to a random legal
// move if needed, commit, and record memory. Oracle failure never fails the
// turn; only a finished game, a reset race or a rules-contract violation do.
func (s *Session) PlayAITurn(ctx context.Context) (*TurnReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := atomic.LoadUint64(&s.generation)

	snap := s.authority.Snapshot()
	if snap.GameOver {
		return nil, ErrGameOver
	}
	legal := s.authority.LegalMoves()
	if len(legal) == 0 {
		// The rules library guarantees moves exist in any non-terminal
		// position; hitting this means the authority is corrupted.
		s.logger.Error("no legal moves in unfinished game",
			zap.String("session", s.ID),
			zap.String("fen", snap.FEN),
		)
		return nil, fmt.Errorf("no legal moves in unfinished game at %q", snap.FEN)
	}

	color := snap.Turn
	s.planners[color].Refresh(ctx, snap, color)

	promptText := prompt.Compose(s.authority, prompt.Input{
		Snapshot:   snap,
		Color:      color,
		LegalMoves: legal,
		Memory:     s.memory.FormatForPrompt(color),
	})
	proposal := s.proposers[color].ProposeMove(ctx, mover.Input{
		Prompt:     promptText,
		Snapshot:   snap,
		LegalMoves: legal,
	})

	if atomic.LoadUint64(&s.generation) != gen {
		s.logger.Info("discarding stale turn after reset", zap.String("session", s.ID))
		return nil, ErrStaleTurn
	}

	analysis := proposal.Analysis
	fallback := false
	match := MatchCandidate(proposal.Candidate, legal)
	if match == nil {
		if proposal.Candidate != nil {
			s.logger.Warn("oracle proposed illegal move, falling back",
				zap.String("session", s.ID),
				zap.String("from", proposal.Candidate.From),
				zap.String("to", proposal.Candidate.To),
				zap.String("promotion", proposal.Candidate.Promotion),
			)
		} else {
			s.logger.Warn("oracle produced no candidate, falling back",
				zap.String("session", s.ID),
				zap.String("color", string(color)),
			)
		}
		match = &legal[s.rng.Intn(len(legal))]
		analysis += fallbackNote
		fallback = true
		s.fallbacks++
	}

	committed, err := s.authority.AttemptMove(match.From, match.To, match.Promotion)
	if err != nil {
		return nil, fmt.Errorf("commit validated move %s%s: %w", match.From, match.To, err)
	}

	s.memory.RecordMove(color, *committed)
	if evals := extractEvaluations(proposal.Analysis); evals != nil {
		s.memory.SetMoveEvaluations(color, evals)
	}

	after := s.authority.Snapshot()
	report := &TurnReport{
		Move:       committed,
		Fallback:   fallback,
		Analysis:   analysis,
		Snapshot:   after,
		Evaluation: s.evaluate(ctx, after.FEN),
	}
	s.logger.Info("turn committed",
		zap.String("session", s.ID),
		zap.String("color", string(color)),
		zap.String("san", committed.SAN),
		zap.Bool("fallback", fallback),
		zap.Int("ply", after.Ply),
	)
	return report, nil
}

// PlayHumanMove commits a move supplied by a human player. Illegal moves
// surface rules.ErrIllegalMove to the caller instead of falling back.
func (s *Session) PlayHumanMove(ctx context.Context, from, to, promotion string) (*TurnReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.authority.Snapshot()
	if snap.GameOver {
		return nil, ErrGameOver
	}
	color := snap.Turn

	committed, err := s.authority.AttemptMove(from, to, promotion)
	if err != nil {
		return nil, err
	}
	s.memory.RecordMove(color, *committed)

	after := s.authority.Snapshot()
	return &TurnReport{
		Move:       committed,
		Snapshot:   after,
		Evaluation: s.evaluate(ctx, after.FEN),
	}, nil
}

func (s *Session) evaluate(ctx context.Context, fen string) eval.Result {
	if s.engine == nil {
		return eval.MaterialEstimate(fen)
	}
	return s.engine.Evaluate(ctx, fen)
}

// Reset returns the session to a fresh game. The generation bump and
// evaluation cancel happen before taking the turn mutex so an in-flight
// turn aborts instead of committing into the new game.
func (s *Session) Reset() {
	atomic.AddUint64(&s.generation, 1)
	if s.engine != nil {
		s.engine.Cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authority.Reset()
	s.memory.Reset()
	s.fallbacks = 0
	s.startedAt = time.Now()
	s.logger.Info("session reset", zap.String("session", s.ID))
}

// Snapshot returns the current game state.
func (s *Session) Snapshot() rules.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authority.Snapshot()
}

// Memory returns a copy of the color's strategic memory, safe to read while
// a turn is in flight.
func (s *Session) Memory(color rules.Color) *memory.PlayerMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Player(color).Clone()
}

// PieceAt reports square occupancy; lets the session back board rendering
// and prompt composition directly.
func (s *Session) PieceAt(square string) (rules.Color, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authority.PieceAt(square)
}

// MovesUCI returns the committed moves in UCI form, oldest first.
func (s *Session) MovesUCI() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authority.MovesUCI()
}

// FallbackCount reports how many random-fallback moves this game needed.
func (s *Session) FallbackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallbacks
}

// StartedAt is the wall-clock start of the current game.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}
