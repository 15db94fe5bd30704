package builtin

import (
	"context"
	"fmt"
	"go-nexus/pkg/tools"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	httpTimeout     = 30 * time.Second
	maxResponseBody = 10 * 1024
)

type HTTPRequest struct {
	tools.Base
	client *http.Client
}

func NewHTTPRequest(client *http.Client) *HTTPRequest {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &HTTPRequest{client: client, Base: tools.NewBase(tools.Descriptor{
		Name:        "http_request",
		Description: "Send an HTTP request and return status, headers and body",
		Parameters: []tools.Parameter{
			{Name: "url", Type: "string", Description: "Absolute URL", Required: true},
			{Name: "method", Type: "string", Description: "HTTP method", Default: http.MethodGet},
			{Name: "body", Type: "string", Description: "Request body"},
			{Name: "headers", Type: "object", Description: "Request headers"},
		},
	})}
}

func (t *HTTPRequest) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	var body io.Reader
	if b := tools.String(args, "body"); b != "" {
		body = strings.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(tools.String(args, "method")), tools.String(args, "url"), body)
	if err != nil {
		return tools.Result{}, err
	}
	for k, v := range tools.StringMap(args, "headers") {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return tools.Result{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return tools.Result{}, err
	}
	truncated := len(b) > maxResponseBody
	if truncated {
		b = b[:maxResponseBody]
	}
	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	res := tools.Ok(map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        string(b),
	})
	res.Metadata["truncated"] = truncated
	return res, nil
}

type DNSLookup struct {
	tools.Base
	resolver *net.Resolver
}

func NewDNSLookup() *DNSLookup {
	return &DNSLookup{resolver: net.DefaultResolver, Base: tools.NewBase(tools.Descriptor{
		Name:        "dns_lookup",
		Description: "Resolve a host name to IP addresses",
		Parameters: []tools.Parameter{
			{Name: "host", Type: "string", Description: "Host name", Required: true},
		},
	})}
}

func (t *DNSLookup) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	host := tools.String(args, "host")
	addrs, err := t.resolver.LookupHost(ctx, host)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Ok(map[string]any{"host": host, "addresses": addrs}), nil
}

type PortCheck struct {
	tools.Base
}

func NewPortCheck() *PortCheck {
	return &PortCheck{Base: tools.NewBase(tools.Descriptor{
		Name:        "port_check",
		Description: "Check whether a TCP port accepts connections",
		Parameters: []tools.Parameter{
			{Name: "host", Type: "string", Description: "Host name or IP", Required: true},
			{Name: "port", Type: "integer", Description: "TCP port", Required: true},
			{Name: "timeout_seconds", Type: "integer", Description: "Dial timeout", Default: 3},
		},
	})}
}

func (t *PortCheck) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	host := tools.String(args, "host")
	port := tools.Int(args, "port", 0)
	if port <= 0 || port > 65535 {
		return tools.Fail("Invalid port: %d", port), nil
	}

	d := net.Dialer{Timeout: time.Duration(tools.Int(args, "timeout_seconds", 3)) * time.Second}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	open := err == nil
	if open {
		_ = conn.Close()
	}
	res := tools.Ok(map[string]any{"host": host, "port": port, "open": open})
	if err != nil {
		res.Metadata["reason"] = fmt.Sprint(err)
	}
	return res, nil
}
