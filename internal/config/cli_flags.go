package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Emit logs as JSON lines")
	pf.Int("verbosity", DefaultVerbosity, "Detail level of crawl feedback (1-3)")
	pf.String("config", "", "Path to the scavenger file (targets, models, scripts)")
	pf.String("db", "", "Path to the SQLite database (default: XDG data dir)")
	pf.StringSlice("proxy", nil, "HTTP/SOCKS5 proxies to rotate through (comma separated)")
	pf.String("timeout", DefaultHTTPTimeout.String(), "Timeout for each request")
	pf.String("user-agent", "", "Custom user agent string")
	pf.StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")
	pf.String("render", "", "Render mode for page loads: static, dynamic or auto")
	pf.Int("retries", DefaultRetryAttempts, "Attempts per request (1 disables retries)")
	pf.Float64("rate", DefaultRateLimitRPS, "Requests per second allowed per host (0 disables)")
}
