package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/notesh/internal/apperr"
)

// maxFolderDepth bounds parent walks so a corrupt parent cycle cannot hang the shell.
const maxFolderDepth = 256

// errNoSuchFolder is returned by resolvePath for a path segment that does not exist.
var errNoSuchFolder = errors.New("no such folder")

// resolvePath walks path from the folder from. "", "~" and "/" are the root;
// a leading "/" or "~/" starts at the root; ".." climbs one level and is a
// no-op at the root; other segments match child folder names ignoring case,
// first match wins.
func (d *Dispatcher) resolvePath(ctx context.Context, from *int64, path string) (*int64, error) {
	path = strings.TrimSpace(path)
	switch path {
	case "", "~", "/":
		return nil, nil
	}
	cur := from
	if strings.HasPrefix(path, "/") {
		cur = nil
		path = strings.TrimPrefix(path, "/")
	} else if strings.HasPrefix(path, "~/") {
		cur = nil
		path = strings.TrimPrefix(path, "~/")
	}

	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		switch seg {
		case "", ".":
			continue
		case "..":
			if cur == nil {
				continue
			}
			f, err := d.store.GetFolder(ctx, *cur)
			if err != nil {
				return nil, err
			}
			cur = f.ParentID
			continue
		}

		_, folders, err := d.store.FolderContents(ctx, cur)
		if err != nil {
			return nil, err
		}
		found := false
		for i := range folders {
			if strings.EqualFold(folders[i].Name, seg) {
				id := folders[i].ID
				cur = &id
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", errNoSuchFolder, seg)
		}
	}
	return cur, nil
}

// Path renders the folder id as an absolute path, "/" for the root.
func (d *Dispatcher) Path(ctx context.Context, cwd *int64) (string, error) {
	var parts []string
	cur := cwd
	for depth := 0; cur != nil; depth++ {
		if depth >= maxFolderDepth {
			return "", fmt.Errorf("folder %d: parent chain too deep", *cwd)
		}
		f, err := d.store.GetFolder(ctx, *cur)
		if err != nil {
			return "", err
		}
		parts = append(parts, f.Name)
		cur = f.ParentID
	}
	if len(parts) == 0 {
		return "/", nil
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/"), nil
}

func (d *Dispatcher) cmdCd(ctx context.Context, sc *Context, args string) (*Result, error) {
	target, _ := ParseTitle(args)
	next, err := d.resolvePath(ctx, sc.Cwd, target)
	switch {
	case errors.Is(err, errNoSuchFolder):
		res := errorResult("cd: no such folder: %s", target)
		res.Dimf("list shows the folders here")
		return res, nil
	case errors.Is(err, apperr.ErrNotFound):
		// The current folder vanished underneath us; fall back to the root.
		sc.Cwd = nil
		res := &Result{}
		res.Warnf("cd: current folder no longer exists, moved to /")
		return res, nil
	case err != nil:
		return nil, err
	}
	sc.Cwd = next
	return &Result{}, nil
}

func (d *Dispatcher) cmdPwd(ctx context.Context, sc *Context, _ string) (*Result, error) {
	path, err := d.Path(ctx, sc.Cwd)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.Plainf("%s", path)
	return res, nil
}

func (d *Dispatcher) cmdMkdir(ctx context.Context, sc *Context, args string) (*Result, error) {
	name, _ := ParseTitle(args)
	if name == "" {
		return d.usageError("mkdir", "folder name is required"), nil
	}
	f, err := d.store.CreateFolder(ctx, name, sc.Cwd)
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		return errorResult("mkdir: folder %q already exists", name), nil
	case errors.Is(err, apperr.ErrInvalid):
		return d.invalidResult("mkdir", err), nil
	case errors.Is(err, apperr.ErrNotFound):
		return errorResult("mkdir: current folder no longer exists; cd / and try again"), nil
	case err != nil:
		return nil, err
	}
	res := &Result{}
	res.Add(Line{
		Kind:    KindSuccess,
		Content: fmt.Sprintf("created folder %s/", f.Name),
		Action:  &Action{Kind: ActionCd, Payload: f.Name},
	})
	return res, nil
}

func (d *Dispatcher) cmdList(ctx context.Context, sc *Context, args string) (*Result, error) {
	dir := sc.Cwd
	if target, _ := ParseTitle(args); target != "" {
		var err error
		dir, err = d.resolvePath(ctx, sc.Cwd, target)
		if errors.Is(err, errNoSuchFolder) {
			return errorResult("list: no such folder: %s", target), nil
		}
		if err != nil {
			return nil, err
		}
	}

	notes, folders, err := d.store.FolderContents(ctx, dir)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if len(notes) == 0 && len(folders) == 0 {
		res.Infof(`this folder is empty; create a note with: new "My first note"`)
		return res, nil
	}
	for i := range folders {
		res.Add(folderLine(&folders[i]))
	}
	for i := range notes {
		res.Add(noteLine(&notes[i]))
	}
	return res, nil
}
