package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"capture-chat/internal/records"
)

// confirm validates the pending proposal and applies it. Store failures are
// reported in the transcript and leave the proposal in place for a retry.
func (e *Engine) confirm(ctx context.Context, s *Session) error {
	msg, ok := s.Pending()
	if !ok {
		e.say(s, "There's nothing waiting to be confirmed.")
		return nil
	}
	data := msg.Proposal.Data
	if v := data.Validate(); !v.OK {
		e.say(s, "Can't confirm yet: "+v.Reason, Action{Action: ActEdit, Label: "Edit"})
		return nil
	}

	res := e.commit(ctx, s, data)
	if res.err != nil && !res.partial {
		e.log.Warn("commit failed", zap.String("kind", string(data.Kind())), zap.Error(res.err))
		e.say(s, fmt.Sprintf("Couldn't save that: %v. The proposal is still here, so you can retry or edit it.", res.err))
		return nil
	}
	s.dropPending()
	if res.err != nil {
		e.log.Warn("commit partially applied", zap.String("kind", string(data.Kind())), zap.Error(res.err))
	} else {
		e.log.Info("commit applied", zap.String("kind", string(data.Kind())))
	}
	e.say(s, res.message)
	return nil
}

type commitResult struct {
	message string
	err     error
	// partial means something was written, so retrying would duplicate it.
	partial bool
}

func failed(err error) commitResult { return commitResult{err: err} }

func (e *Engine) commit(ctx context.Context, s *Session, data ProposalData) commitResult {
	now := e.now()
	switch d := data.(type) {
	case *ListItemDraft:
		item, err := e.cmds.CreateListItem(ctx, records.ListItem{ID: e.newID(), Title: d.Title, Notes: d.Notes, CreatedAt: now})
		if err != nil {
			return failed(err)
		}
		s.LastListItemID = item.ID
		return commitResult{message: fmt.Sprintf("Added %q to your list.", item.Title)}

	case *QuickTaskDraft:
		rec := d.record()
		rec.ID, rec.UpdatedAt = e.newID(), now
		task, err := e.cmds.CreateQuickTask(ctx, rec)
		if err != nil {
			return failed(err)
		}
		return commitResult{message: fmt.Sprintf("Created quick task %q.", task.Title)}

	case *JobTaskDraft:
		task, err := e.cmds.CreateJobTask(ctx, records.JobTask{
			ID:            e.newID(),
			Title:         d.Title,
			Description:   d.Description,
			JobID:         d.JobID,
			DeliverableID: d.DeliverableID,
			ServiceTypeID: d.ServiceTypeID,
			LOEHours:      d.LOEHours,
			DueDate:       d.DueDate,
			AssigneeID:    d.AssigneeID,
			UpdatedAt:     now,
		})
		if err != nil {
			return failed(err)
		}
		return commitResult{message: fmt.Sprintf("Created job task %q under %s.", task.Title, d.DeliverableName)}

	case *ConvertedTaskDraft:
		rec := d.Task.record()
		rec.ID, rec.UpdatedAt = e.newID(), now
		task, err := e.cmds.CreateQuickTask(ctx, rec)
		if err != nil {
			return failed(err)
		}
		if !d.RemoveListItem {
			return commitResult{message: fmt.Sprintf("Created quick task %q. The list item stays on your list.", task.Title)}
		}
		if err := e.cmds.DeleteListItem(ctx, d.ListItemID); err != nil {
			return commitResult{
				message: fmt.Sprintf("Created quick task %q, but couldn't remove the list item: %v.", task.Title, err),
				err:     err,
				partial: true,
			}
		}
		if s.LastListItemID == d.ListItemID {
			s.LastListItemID = ""
		}
		return commitResult{message: fmt.Sprintf("Created quick task %q and removed it from your list.", task.Title)}

	case *TimeEntryDraft:
		if _, err := e.cmds.AppendTimeEntry(ctx, records.TimeEntry{
			ID: e.newID(), TaskID: d.TaskID, TaskKind: d.TaskKind, Hours: d.Hours, Date: d.Date, Note: d.Note, CreatedAt: now,
		}); err != nil {
			return failed(err)
		}
		return commitResult{message: fmt.Sprintf("Logged %sh to %q for %s.", formatHours(d.Hours), d.TaskTitle, d.Date)}

	case *TimerStartDraft:
		if err := e.cmds.SetTimer(ctx, records.RunningTimer(d.TaskID, now)); err != nil {
			return failed(err)
		}
		return commitResult{message: fmt.Sprintf("Timer started on %q.", d.TaskTitle)}

	case *TimerStopDraft:
		if err := e.appendTimerEntry(ctx, d, now); err != nil {
			return failed(err)
		}
		if err := e.cmds.SetTimer(ctx, records.StoppedTimer()); err != nil {
			return commitResult{
				message: fmt.Sprintf("Logged %sh to %q, but the timer is still running: %v.", formatHours(d.Hours), d.TaskTitle, err),
				err:     err,
				partial: true,
			}
		}
		return commitResult{message: fmt.Sprintf("Timer stopped. Logged %sh to %q for %s.", formatHours(d.Hours), d.TaskTitle, d.Date)}

	case *TimerSwitchDraft:
		return e.commitSwitch(ctx, d, now)
	}
	return failed(fmt.Errorf("commit: unsupported proposal %T", data))
}

func (e *Engine) appendTimerEntry(ctx context.Context, d *TimerStopDraft, now time.Time) error {
	entry := d.entry()
	entry.ID, entry.CreatedAt = e.newID(), now
	_, err := e.cmds.AppendTimeEntry(ctx, entry)
	return err
}

// commitSwitch stops the running timer, logs it, then starts the next one.
// If the log write fails the prior timer state is put back.
func (e *Engine) commitSwitch(ctx context.Context, d *TimerSwitchDraft, now time.Time) commitResult {
	prior, err := e.cmds.Timer(ctx)
	if err != nil {
		return failed(fmt.Errorf("read timer: %w", err))
	}
	if err := e.cmds.SetTimer(ctx, records.StoppedTimer()); err != nil {
		return failed(err)
	}
	if err := e.appendTimerEntry(ctx, &d.TimerStopDraft, now); err != nil {
		if rerr := e.cmds.SetTimer(ctx, prior); rerr != nil {
			e.log.Error("restore timer after failed switch", zap.Error(rerr), zap.String("task", prior.TaskID))
			return failed(fmt.Errorf("%w (and restoring the timer failed: %v)", err, rerr))
		}
		return failed(err)
	}
	if err := e.cmds.SetTimer(ctx, records.RunningTimer(d.NextTaskID, now)); err != nil {
		return commitResult{
			message: fmt.Sprintf("Logged %sh to %q, but couldn't start the timer on %q: %v.",
				formatHours(d.Hours), d.TaskTitle, d.NextTaskTitle, err),
			err:     err,
			partial: true,
		}
	}
	return commitResult{message: fmt.Sprintf("Logged %sh to %q. Timer now running on %q.",
		formatHours(d.Hours), d.TaskTitle, d.NextTaskTitle)}
}
