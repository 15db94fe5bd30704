package builtin

import (
	"context"
	"fmt"
	"go-nexus/pkg/tools"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const defaultReadLimit = 100 * 1024

// sandbox resolves tool paths. An empty root allows any path.
type sandbox struct {
	root string
}

func (s sandbox) resolve(path string) (string, error) {
	if s.root == "" {
		return filepath.Clean(path), nil
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", path, root)
	}
	return p, nil
}

type ReadFile struct {
	tools.Base
	box sandbox
}

func NewReadFile(root string) *ReadFile {
	return &ReadFile{box: sandbox{root}, Base: tools.NewBase(tools.Descriptor{
		Name:        "read_file",
		Description: "Read a text file",
		Parameters: []tools.Parameter{
			{Name: "path", Type: "string", Description: "File path", Required: true},
			{Name: "max_bytes", Type: "integer", Description: "Maximum bytes to read", Default: defaultReadLimit},
		},
	})}
}

func (t *ReadFile) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	path, err := t.box.resolve(tools.String(args, "path"))
	if err != nil {
		return tools.Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return tools.Result{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return tools.Result{}, err
	}
	if info.IsDir() {
		return tools.Fail("%s is a directory", path), nil
	}

	limit := tools.Int(args, "max_bytes", defaultReadLimit)
	b, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Ok(map[string]any{
		"path":      path,
		"content":   string(b),
		"size":      info.Size(),
		"truncated": info.Size() > int64(len(b)),
	}), nil
}

type WriteFile struct {
	tools.Base
	box sandbox
}

func NewWriteFile(root string) *WriteFile {
	return &WriteFile{box: sandbox{root}, Base: tools.NewBase(tools.Descriptor{
		Name:        "write_file",
		Description: "Write text to a file, creating parent directories",
		Parameters: []tools.Parameter{
			{Name: "path", Type: "string", Description: "File path", Required: true},
			{Name: "content", Type: "string", Description: "Text to write", Required: true},
			{Name: "append", Type: "boolean", Description: "Append instead of overwrite", Default: false},
		},
	})}
}

func (t *WriteFile) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	path, err := t.box.resolve(tools.String(args, "path"))
	if err != nil {
		return tools.Result{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return tools.Result{}, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if tools.Bool(args, "append", false) {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return tools.Result{}, err
	}
	n, err := f.WriteString(tools.String(args, "content"))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Ok(map[string]any{"path": path, "bytes_written": n}), nil
}

type ListDirectory struct {
	tools.Base
	box sandbox
}

func NewListDirectory(root string) *ListDirectory {
	return &ListDirectory{box: sandbox{root}, Base: tools.NewBase(tools.Descriptor{
		Name:        "list_directory",
		Description: "List the entries of a directory",
		Parameters: []tools.Parameter{
			{Name: "path", Type: "string", Description: "Directory path", Default: "."},
		},
	})}
}

type entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

func (t *ListDirectory) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	path, err := t.box.resolve(tools.String(args, "path"))
	if err != nil {
		return tools.Result{}, err
	}
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return tools.Result{}, err
	}
	entries := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := entry{Name: de.Name(), IsDir: de.IsDir()}
		if info, err := de.Info(); err == nil && !de.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	res := tools.Ok(map[string]any{"path": path, "entries": entries})
	res.Metadata["count"] = len(entries)
	return res, nil
}
