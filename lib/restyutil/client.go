package restyutil

import (
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// tracer name used for the otel spans around each request,
	// defaults to "resty" when empty
	TracerName string
	// routes requests through the cloudflare bypass round tripper,
	// needed for the scraping gateways that sit behind bot protection
	BypassCloudflare bool
	// defaults to 30s when zero
	Timeout time.Duration
}

// NewClient builds a resty client the way every outbound API client in
// this repo uses one: browser user-agent, timeout, otel instrumentation
// and (in verbose mode) filesystem request/response dumps.
func NewClient(opts Options) *resty.Client {
	client := resty.New()
	client.SetHeader("user-agent", defaultUserAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	if opts.BypassCloudflare {
		client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))
	}

	InstrumentClient(client, opts.TracerName)
	return client
}
