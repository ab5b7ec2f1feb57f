package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownCommand is returned when running an unregistered command
var ErrUnknownCommand = errors.New("unknown command")

// Registry manages command lookup and execution by id
type Registry struct {
	commands sync.Map
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a command
func (r *Registry) Register(cmd Command) error {
	if cmd.ID == "" {
		return fmt.Errorf("command ID cannot be empty")
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %s has no action", cmd.ID)
	}
	if _, loaded := r.commands.LoadOrStore(cmd.ID, cmd); loaded {
		return fmt.Errorf("command %s already registered", cmd.ID)
	}
	return nil
}

// Unregister removes a command
func (r *Registry) Unregister(id string) {
	r.commands.Delete(id)
}

// Get retrieves a command by ID
func (r *Registry) Get(id string) (Command, bool) {
	val, ok := r.commands.Load(id)
	if !ok {
		return Command{}, false
	}
	return val.(Command), true
}

// List returns all registered commands sorted by id
func (r *Registry) List() []Command {
	var cmds []Command
	r.commands.Range(func(_, value interface{}) bool {
		cmds = append(cmds, value.(Command))
		return true
	})
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].ID < cmds[j].ID })
	return cmds
}

// Find returns commands whose id or label mentions the query, best match
// first
func (r *Registry) Find(query string) []Command {
	type scored struct {
		cmd   Command
		score int
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var results []scored
	for _, cmd := range r.List() {
		score := 0
		id := strings.ToLower(cmd.ID)
		switch {
		case id == q:
			score += 10
		case strings.HasSuffix(id, "."+q):
			score += 8
		case strings.Contains(id, q):
			score += 5
		}
		if strings.Contains(strings.ToLower(cmd.Label), q) {
			score += 3
		}
		if score > 0 {
			results = append(results, scored{cmd, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	out := make([]Command, len(results))
	for i, s := range results {
		out[i] = s.cmd
	}
	return out
}

// Run executes a command by id
func (r *Registry) Run(id string) error {
	cmd, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	cmd.Run()
	return nil
}
