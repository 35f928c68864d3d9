package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/service/completion"
	"github.com/mamadbah2/flockcare/internal/service/scheduling"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

const helpMessage = "Commandes disponibles:\n" +
	"/tasks <lot> - taches du jour du lot\n" +
	"/done <id> - marquer une tache comme faite"

// BatchLookup resolves batches by their human-facing number.
type BatchLookup interface {
	GetBatchByNumber(ctx context.Context, number string) (models.Batch, error)
}

// TaskScheduler is the part of the scheduler the dispatcher drives.
type TaskScheduler interface {
	MaterializeTasks(ctx context.Context, batchID string, dayAge int) (scheduling.MaterializeResult, error)
	CurrentDayAge(batch models.Batch) int
}

// TaskCompleter completes task instances.
type TaskCompleter interface {
	CompleteTask(ctx context.Context, taskID, operatorID string) (completion.Result, error)
}

// Dispatcher executes worker commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	batches   BatchLookup
	scheduler TaskScheduler
	completer TaskCompleter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(batches BatchLookup, scheduler TaskScheduler, completer TaskCompleter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{batches: batches, scheduler: scheduler, completer: completer, logger: logger}
}

// HandleCommand runs cmd on behalf of sender. Domain failures worth telling the worker
// about are turned into replies; other errors are returned.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandTasks:
		if len(cmd.Args) == 0 {
			return "", ErrInvalidArguments
		}
		return s.todayTasks(ctx, cmd.Args[0])
	case models.CommandDone:
		if len(cmd.Args) == 0 {
			return "", ErrInvalidArguments
		}
		return s.completeTask(ctx, cmd.Args[0], sender)
	default:
		return helpMessage, nil
	}
}

func (s *Service) todayTasks(ctx context.Context, batchNumber string) (string, error) {
	batch, err := s.batches.GetBatchByNumber(ctx, batchNumber)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("Lot %s introuvable.", batchNumber), nil
	}
	if err != nil {
		return "", err
	}

	dayAge := s.scheduler.CurrentDayAge(batch)
	res, err := s.scheduler.MaterializeTasks(ctx, batch.ID, dayAge)
	if errors.Is(err, models.ErrInvalidState) {
		return fmt.Sprintf("Lot %s n'est plus actif.", batch.BatchNumber), nil
	}
	if err != nil {
		return "", err
	}

	return FormatTaskList(batch, dayAge, res.Tasks), nil
}

func (s *Service) completeTask(ctx context.Context, taskID, sender string) (string, error) {
	res, err := s.completer.CompleteTask(ctx, taskID, sender)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("Tache %s introuvable.", taskID), nil
	case errors.Is(err, models.ErrInvalidState):
		return "Ce lot n'est plus actif, la tache ne peut pas etre validee.", nil
	case err != nil:
		return "", err
	}

	if res.AlreadyCompleted {
		return fmt.Sprintf("Tache \"%s\" deja faite par %s.", res.Task.Title, res.Task.CompletedBy), nil
	}
	return fmt.Sprintf("Tache \"%s\" validee. Merci!", res.Task.Title), nil
}

// FormatTaskList renders a batch's tasks for one day-age, pending first.
func FormatTaskList(batch models.Batch, dayAge int, tasks []models.TaskInstance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lot %s - jour %d", batch.BatchNumber, dayAge)

	if len(tasks) == 0 {
		b.WriteString("\nAucune tache prevue.")
		return b.String()
	}

	for _, done := range []bool{false, true} {
		for _, task := range tasks {
			if task.Completed != done {
				continue
			}
			mark := "[ ]"
			if done {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "\n%s %s (%s) id:%s", mark, task.Title, task.Category, task.ID)
		}
	}
	return b.String()
}
