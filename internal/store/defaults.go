package store

import (
	"time"

	"github.com/google/uuid"

	"capture-chat/internal/records"
)

func withListItemDefaults(item records.ListItem) records.ListItem {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	return item
}

func withQuickTaskDefaults(task records.QuickTask) records.QuickTask {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Anchor == "" {
		task.Anchor = records.AnchorInternal
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now()
	}
	return task
}

func withJobTaskDefaults(task records.JobTask) records.JobTask {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now()
	}
	return task
}

func withTimeEntryDefaults(entry records.TimeEntry) records.TimeEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return entry
}
