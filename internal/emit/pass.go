package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// ErrPassDrained is returned when a declaration is visited after the pass
// has been drained.
var ErrPassDrained = errors.New("pass already drained")

// State is the lifecycle stage of a Pass.
type State int

const (
	// Scanning accepts declarations.
	Scanning State = iota
	// Draining is entered once, after the deferred declarations were flushed.
	Draining
)

func (s State) String() string {
	if s == Draining {
		return "draining"
	}
	return "scanning"
}

// Pass translates one translation unit into a private output buffer.
type Pass struct {
	emitter *Emitter
	state   State
	out     bytes.Buffer
	units   int
	best    bool
}

// NewPass creates a pass in the Scanning state.
func NewPass(cfg Config) *Pass {
	return &Pass{emitter: NewEmitter(cfg), best: cfg.BestEffort}
}

// State returns the current lifecycle stage.
func (p *Pass) State() State {
	return p.state
}

// Visit renders one top-level declaration. Its units reach the output only
// if the whole declaration rendered. An unsupported type fails the pass
// unless the pass is best-effort, in which case the declaration is dropped
// with a warning.
func (p *Pass) Visit(d *cdecl.Decl) error {
	if p.state != Scanning {
		return ErrPassDrained
	}
	units, err := p.emitter.Emit(d)
	if err != nil {
		if p.best && IsUnsupported(err) {
			p.emitter.warn(UnsupportedTypeSkipped, d.Loc, "skipping %s %s: %v", d.Kind, d.Name, err)
			return nil
		}
		return fmt.Errorf("%s: %s %s: %w", d.Loc, d.Kind, d.Name, err)
	}
	p.write(units)
	return nil
}

// Drain flushes the deferred declarations and moves the pass to Draining.
func (p *Pass) Drain() error {
	if p.state != Scanning {
		return ErrPassDrained
	}
	p.write(p.emitter.Flush())
	p.state = Draining
	return nil
}

// Run visits every declaration of tu in order and drains the pass. It stops
// at the first error or when ctx is done.
func (p *Pass) Run(ctx context.Context, tu *cdecl.TranslationUnit) error {
	for _, d := range tu.Decls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Visit(d); err != nil {
			return err
		}
	}
	return p.Drain()
}

// Warn records a warning from outside the emitter, such as a parser
// diagnostic.
func (p *Pass) Warn(kind WarningKind, loc cdecl.Location, msg string) {
	p.emitter.warn(kind, loc, "%s", msg)
}

func (p *Pass) write(units []string) {
	for _, u := range units {
		if p.units > 0 {
			p.out.WriteByte('\n')
		}
		p.out.WriteString(u)
		p.out.WriteByte('\n')
		p.units++
	}
}

// Output returns the rendered units, separated by blank lines.
func (p *Pass) Output() []byte {
	return p.out.Bytes()
}

// Warnings returns the warnings recorded by the pass.
func (p *Pass) Warnings() []Warning {
	return p.emitter.Warnings()
}
