package shell

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/starford/notesh/internal/apperr"
)

func (d *Dispatcher) cmdExport(_ context.Context, _ *Context, _ string) (*Result, error) {
	res := &Result{Export: true}
	res.Infof("exporting notes, folders and settings...")
	return res, nil
}

func (d *Dispatcher) cmdImport(_ context.Context, _ *Context, _ string) (*Result, error) {
	res := &Result{Import: true}
	res.Infof("choose an exported JSON file to import")
	return res, nil
}

func (d *Dispatcher) cmdConfig(ctx context.Context, _ *Context, args string) (*Result, error) {
	fields := Fields(args)
	if len(fields) == 0 {
		return d.listConfig(ctx)
	}

	s, ok := LookupSetting(fields[0])
	if !ok {
		res := errorResult("config: unknown key %q", fields[0])
		res.Dimf("valid keys: %s", strings.Join(settingKeys(), ", "))
		return res, nil
	}

	if len(fields) == 1 {
		v, err := d.configValue(ctx, s)
		if err != nil {
			return nil, err
		}
		res := &Result{}
		res.Plainf("%s = %s", s.Key, displayValue(v))
		return res, nil
	}

	value := strings.Join(fields[1:], " ")
	if len(s.Allowed) > 0 {
		value = strings.ToLower(value)
	}
	if !s.Accepts(value) {
		res := errorResult("config: invalid %s %q", s.Key, value)
		res.Dimf("valid options: %s", strings.Join(s.Allowed, ", "))
		return res, nil
	}
	if err := d.store.SetConfigValue(ctx, s.Key, value); err != nil {
		return nil, err
	}
	res := &Result{}
	res.Successf("%s set to %s", s.Key, value)
	return res, nil
}

func (d *Dispatcher) listConfig(ctx context.Context) (*Result, error) {
	res := &Result{}
	for _, s := range Settings {
		v, err := d.configValue(ctx, s)
		if err != nil {
			return nil, err
		}
		res.Add(Line{
			Kind:    KindPlain,
			Content: fmt.Sprintf("%-12s %-12s %s", s.Key, displayValue(v), s.Description),
			Action:  &Action{Kind: ActionRun, Payload: "config " + s.Key},
		})
	}
	return res, nil
}

// configValue reads a preference, falling back to its default when unset.
func (d *Dispatcher) configValue(ctx context.Context, s Setting) (string, error) {
	v, err := d.store.ConfigValue(ctx, s.Key)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.Default, nil
	}
	return v, err
}

func displayValue(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func (d *Dispatcher) cmdHistory(_ context.Context, sc *Context, _ string) (*Result, error) {
	res := &Result{}
	if len(sc.History) == 0 {
		res.Infof("no commands in history")
		return res, nil
	}
	for i, h := range sc.History {
		res.Add(Line{
			Kind:    KindPlain,
			Content: fmt.Sprintf("%4d  %s", i+1, h),
			Action:  &Action{Kind: ActionRun, Payload: h},
		})
	}
	return res, nil
}

func (d *Dispatcher) cmdClear(_ context.Context, _ *Context, _ string) (*Result, error) {
	return &Result{Clear: true}, nil
}

func (d *Dispatcher) cmdVersion(_ context.Context, _ *Context, _ string) (*Result, error) {
	res := &Result{}
	res.Plainf("notesh %s", d.version)
	res.Dimf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return res, nil
}

func (d *Dispatcher) cmdExit(_ context.Context, _ *Context, _ string) (*Result, error) {
	res := &Result{Exit: true}
	res.Dimf("bye")
	return res, nil
}

func (d *Dispatcher) cmdHelp(_ context.Context, _ *Context, args string) (*Result, error) {
	word, _ := cutWord(args)
	if word == "" {
		return d.helpIndex(), nil
	}

	c, ok := d.registry.Lookup(word)
	if !ok {
		res := errorResult("help: no such command: %s", word)
		if s, found := d.registry.Suggest(word); found {
			res.Infof("did you mean '%s'?", s)
		}
		return res, nil
	}
	res := &Result{}
	res.Highlightf("%s", c.Name)
	res.Plainf("%s", c.Description)
	res.Plainf("usage: %s", c.Usage)
	if len(c.Aliases) > 0 {
		res.Dimf("aliases: %s", strings.Join(c.Aliases, ", "))
	}
	for _, ex := range c.Examples {
		res.Add(Line{
			Kind:    KindDim,
			Content: "  " + ex,
			Action:  &Action{Kind: ActionRun, Payload: ex},
		})
	}
	return res, nil
}

func (d *Dispatcher) helpIndex() *Result {
	res := &Result{}
	var current Category = -1
	for _, c := range d.registry.Commands() {
		if c.Category != current {
			current = c.Category
			res.Highlightf("%s", current)
		}
		res.Add(Line{
			Kind:    KindPlain,
			Content: fmt.Sprintf("  %-10s %s", c.Name, c.Description),
			Action:  &Action{Kind: ActionRun, Payload: "help " + c.Name},
		})
	}
	res.Dimf("pipe commands with '|', e.g.: list | grep idea")
	res.Dimf("type 'help <command>' for details")
	return res
}
