package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/flagx"
)

// parseFlags overlays the flags it knows about; other arguments are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-t", "-k", "-r"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	iterations := fs.Uint("k", uint(cfg.KDFIterations), "PBKDF2 iterations for new salts")
	fs.IntVar(&cfg.RetryAttempts, "r", cfg.RetryAttempts, "password change rollback attempts")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.KDFIterations = uint32(*iterations)
	return nil
}
