package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relayhq/relayd/pkg/cliexec"
	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/hub"
	"github.com/relayhq/relayd/pkg/store"
)

// Executor is the default TaskExecutor: it invokes the headless CLI
// (C4) for the task's prompt, streams chunks into the Output Hub (C3)
// and the Store's output_stream column as they arrive, and returns the
// terminal result for the worker to persist.
type Executor struct {
	runner *cliexec.Runner
	hub    *hub.Hub
	store  *store.Store
	models *config.ModelConfig
	binary string
	log    *slog.Logger
}

// NewExecutor wires the CLI runner, Hub, and Store into a TaskExecutor.
func NewExecutor(runner *cliexec.Runner, h *hub.Hub, st *store.Store, models *config.ModelConfig, binary string) *Executor {
	return &Executor{
		runner: runner,
		hub:    h,
		store:  st,
		models: models,
		binary: binary,
		log:    slog.Default().With("component", "executor"),
	}
}

// Execute runs one task to completion, publishing hub events as
// output streams in and persisting the terminal outcome's data for
// the caller (the Worker) to write via Store.UpdateTaskStatus.
func (e *Executor) Execute(ctx context.Context, task *store.Task) *ExecutionResult {
	e.hub.Publish(task.ID, task.SessionID, hub.EventTaskRunning, nil)

	sink := &hubSink{hub: e.hub, store: e.store, taskID: task.ID, sessionID: task.SessionID}

	kind := config.AgentKind(task.AgentKind)
	if kind == "" {
		kind = config.AgentDefault
	}

	result, err := e.runner.Invoke(ctx, cliexec.Invocation{
		Binary:     e.binary,
		Prompt:     task.InputPrompt,
		WorkingDir: "",
		Model:      e.models.ModelFor(kind),
		Timeout:    0, // the worker's own task-level context already bounds this
		Sink:       sink,
	})
	if err != nil {
		e.log.Error("cli invocation failed", "task_id", task.ID, "error", err)
		e.hub.Publish(task.ID, task.SessionID, hub.EventTaskFailed, hub.FailedData{Error: err.Error()})
		return &ExecutionResult{Status: store.TaskFailed, Error: err}
	}

	if !result.Success {
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "cli invocation did not produce a result record"
		}
		e.hub.Publish(task.ID, task.SessionID, hub.EventTaskFailed, hub.FailedData{Error: errMsg})
		return &ExecutionResult{
			Status: store.TaskFailed,
			Terminal: store.TerminalFields{
				ErrorMessage:    errMsg,
				CostUSD:         result.CostUSD,
				InputTokens:     result.InputTokens,
				OutputTokens:    result.OutputTokens,
				DurationSeconds: result.DurationSeconds,
				OutputStream:    sink.String(),
			},
			Error: errColumnError(errMsg),
		}
	}

	e.hub.Publish(task.ID, task.SessionID, hub.EventTaskCompleted, hub.CompletedData{
		CostUSD:         result.CostUSD,
		InputTokens:     result.InputTokens,
		OutputTokens:    result.OutputTokens,
		DurationSeconds: result.DurationSeconds,
	})

	if task.ConversationID != "" {
		if err := e.store.ApplyConversationAggregate(ctx, task.ConversationID, result.CostUSD, result.InputTokens, result.OutputTokens); err != nil {
			e.log.Warn("failed to apply conversation aggregate", "task_id", task.ID, "error", err)
		}
		if _, err := e.store.AppendMessage(ctx, store.Message{
			ID:             uuid.NewString(),
			ConversationID: task.ConversationID,
			Role:           store.RoleAssistant,
			Content:        result.Output,
			TaskID:         task.ID,
		}); err != nil {
			e.log.Warn("failed to append assistant message", "task_id", task.ID, "error", err)
		}
	}
	if task.SessionID != "" {
		if err := e.store.ApplySessionAggregate(ctx, task.SessionID, result.CostUSD); err != nil {
			e.log.Warn("failed to apply session aggregate", "task_id", task.ID, "error", err)
		}
	}

	return &ExecutionResult{
		Status: store.TaskCompleted,
		Terminal: store.TerminalFields{
			CostUSD:         result.CostUSD,
			InputTokens:     result.InputTokens,
			OutputTokens:    result.OutputTokens,
			DurationSeconds: result.DurationSeconds,
			OutputStream:    sink.String(),
		},
	}
}

// errColumnError wraps a persisted error message as an error value so
// the worker's finalize path treats it consistently with a Go error.
func errColumnError(msg string) error {
	return taskFailureError(msg)
}

type taskFailureError string

func (e taskFailureError) Error() string { return string(e) }

// hubSink is a cliexec.Sink that fans output chunks out to the Output
// Hub for live subscribers and accumulates them for the Store's
// output_stream column, appending incrementally so a crash mid-task
// still leaves partial output behind.
type hubSink struct {
	hub       *hub.Hub
	store     *store.Store
	taskID    string
	sessionID string
	buf       []byte
}

func (s *hubSink) Chunk(c cliexec.Chunk) {
	s.buf = append(s.buf, c.Raw...)
	s.buf = append(s.buf, '\n')
	s.hub.Publish(s.taskID, s.sessionID, hub.EventTaskOutput, hub.OutputData{Chunk: string(c.Raw)})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.AppendOutputChunk(ctx, s.taskID, string(c.Raw)+"\n"); err != nil {
		slog.Warn("failed to persist output chunk", "task_id", s.taskID, "error", err)
	}
}

func (s *hubSink) String() string { return string(s.buf) }
