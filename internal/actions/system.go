package actions

import "context"

// FlushDNS clears the resolver cache.
func FlushDNS() Action {
	return Func{Label: "flush-dns", Fn: func(ctx context.Context, req Request) Outcome {
		if !supported {
			return unsupported()
		}
		if req.DryRun {
			return done("would flush the DNS resolver cache")
		}
		if _, err := runCommand(ctx, "ipconfig", "/flushdns"); err != nil {
			return failed(err)
		}
		return done("flushed the DNS resolver cache")
	}}
}
