package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/micromata/projectforge-sub013/internal/candh"
	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/persist"
	"github.com/micromata/projectforge-sub013/internal/record"
	"github.com/micromata/projectforge-sub013/internal/schema"
	"github.com/micromata/projectforge-sub013/internal/store"
	"github.com/micromata/projectforge-sub013/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs copy passes with a deterministic clock and entry ids.
type Harness struct {
	store    *store.Store
	engine   *candh.Engine
	reg      *model.Registry
	codec    *record.Codec
	verifier *record.Verifier
	assigner *persist.Assigner
	actor    string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database. The returned error
// reports scenarios that could not be executed at all; failed expectations
// and assertions are recorded in the result instead.
//
// Execution flow:
// 1. Load, validate and register the schema
// 2. Decode the destination graph
// 3. For each step: copy, assign identities, finalize and store history
// 4. Evaluate assertions against the stored history
func Run(scenario *Scenario) (*Result, error) {
	reg, err := loadRegistry(scenario.Schema)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if scenario.Location != "" {
		loc, err = time.LoadLocation(scenario.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid location: %w", err)
		}
	}
	actor := scenario.Actor
	if actor == "" {
		actor = "test"
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	h := &Harness{
		store: st,
		engine: candh.New(reg,
			candh.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			candh.WithLocation(loc),
			candh.WithHistoryOptions(
				history.WithIDGenerator(testutil.NewSequenceGenerator("h")),
				history.WithClock(clock.Now),
			),
		),
		reg:      reg,
		codec:    record.NewCodec(reg, record.WithLocation(loc)),
		verifier: record.NewVerifier(reg),
		assigner: persist.NewAssignerWithSequence(reg, persist.NewSequence()),
		actor:    actor,
	}

	dst, err := h.decode(scenario.Dest)
	if err != nil {
		return nil, fmt.Errorf("dest: %w", err)
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, dst, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		result.Steps = append(result.Steps, sr)
		checkExpect(i, step.Expect, sr, result)
	}

	final, err := h.codec.Encode(dst)
	if err != nil {
		return nil, fmt.Errorf("encode final destination: %w", err)
	}
	result.Final = string(final)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func loadRegistry(dir string) (*model.Registry, error) {
	loaded, errs := schema.LoadDir(dir, schema.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load schema: %w", errs[0])
	}
	if verrs := schema.Validate(loaded.Types); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid schema: %w", verrs[0])
	}
	return record.BuildRegistry(loaded.Types)
}

func (h *Harness) decode(doc string) (*record.Record, error) {
	r, err := h.codec.Decode([]byte(doc))
	if err != nil {
		return nil, err
	}
	if err := persist.ForceLoad(h.reg, r, h.verifier); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *Harness) executeStep(ctx context.Context, dst *record.Record, step Step) (StepResult, error) {
	src, err := h.decode(step.Source)
	if err != nil {
		return StepResult{}, fmt.Errorf("source: %w", err)
	}
	op, err := history.ParseOp(step.Op)
	if err != nil {
		return StepResult{}, err
	}

	cc, err := h.engine.CopyWith(src, dst, candh.Request{
		Ignore:    step.Ignore,
		Operation: op,
		Actor:     h.actor,
		NoHistory: step.NoHistory,
	})
	if err != nil {
		return StepResult{}, err
	}

	assigned, err := h.assigner.Assign(dst)
	if err != nil {
		return StepResult{}, fmt.Errorf("assign identities: %w", err)
	}

	sr := StepResult{
		Status:   cc.Status().String(),
		Assigned: assigned,
		Entries:  []history.Entry{},
	}
	if cc.Recorder == nil {
		return sr, nil
	}
	entries, err := cc.Recorder.Finalize(dst, src)
	if err != nil {
		return StepResult{}, fmt.Errorf("finalize: %w", err)
	}
	if _, err := h.store.WriteEntries(ctx, entries); err != nil {
		return StepResult{}, fmt.Errorf("store history: %w", err)
	}
	sr.Entries = entries
	return sr, nil
}

func checkExpect(index int, expect *Expect, sr StepResult, result *Result) {
	if expect == nil {
		return
	}
	want, _ := candh.ParseStatus(expect.Status)
	if sr.Status != want.String() {
		result.AddError(fmt.Sprintf("step %d: expected status %s, got %s", index+1, want, sr.Status))
	}
	if expect.Entries != nil && len(sr.Entries) != *expect.Entries {
		result.AddError(fmt.Sprintf("step %d: expected %d entries, got %d", index+1, *expect.Entries, len(sr.Entries)))
	}
}
