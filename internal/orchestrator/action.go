package orchestrator

import (
	"fmt"
	"strings"

	"github.com/johndauphine/db-utility/internal/backup"
)

// Action names an operation of the utility.
type Action string

const (
	ActionBackup        Action = "backup"
	ActionRestore       Action = "restore"
	ActionMigrateSQLite Action = "migrate-sqlite"
)

// Actions lists the supported actions in help order.
var Actions = []Action{ActionBackup, ActionRestore, ActionMigrateSQLite}

// ParseAction validates an action argument.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w %q (available actions: %s)", ErrUnknownAction, s, availableActions())
}

func availableActions() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// Request is one invocation of the utility.
type Request struct {
	Action   Action
	File     string
	Format   backup.Format
	Compress bool
	Clean    bool
	Force    bool
}

// Validate checks the request without touching the database or filesystem.
func (r Request) Validate() error {
	if _, err := ParseAction(string(r.Action)); err != nil {
		return err
	}
	switch r.Action {
	case ActionRestore, ActionMigrateSQLite:
		if strings.TrimSpace(r.File) == "" {
			return fmt.Errorf("%s: %w", r.Action, ErrMissingFile)
		}
	case ActionBackup:
		if _, err := backup.ParseFormat(string(r.Format)); err != nil {
			return err
		}
	}
	return nil
}
