package builtin

import (
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/tools"
	"net/http"
)

type Options struct {
	FileRoot   string // empty allows any path
	ShellDir   string
	HTTPClient *http.Client
	Memory     semantic.Store // memory_search is skipped when nil
}

// Register adds every built-in tool to r.
func Register(r *tools.Registry, opts Options) {
	r.Register(NewHash())
	r.Register(NewBase64())
	r.Register(NewEncrypt())
	r.Register(NewDecrypt())
	r.Register(NewReadFile(opts.FileRoot))
	r.Register(NewWriteFile(opts.FileRoot))
	r.Register(NewListDirectory(opts.FileRoot))
	r.Register(NewShell(opts.ShellDir))
	r.Register(NewHTTPRequest(opts.HTTPClient))
	r.Register(NewDNSLookup())
	r.Register(NewPortCheck())
	if opts.Memory != nil {
		r.Register(NewMemorySearch(opts.Memory))
	}
}
