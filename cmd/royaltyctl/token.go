package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"royaltyhub/cmd/internal/secret"
	"royaltyhub/config"
	"royaltyhub/crypto"
	"royaltyhub/gateway/middleware"
	"royaltyhub/native/royalty"
	"royaltyhub/storage"
)

// recordChecker reports whether an address belongs to a stored record.
type recordChecker interface {
	IsRecordAddress(ctx context.Context, addr [20]byte) (bool, error)
}

type tokenOptions struct {
	caller   string
	issuer   string
	audience string
	ttl      time.Duration
	records  recordChecker
}

func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(tokenCommand, flag.ContinueOnError)
	configPath := fs.String("config", "", "royaltyd configuration to read issuer, audience and secret from")
	secretEnv := fs.String("secret-env", defaultSecretEnv, "environment variable holding the HMAC signing secret")
	opts := tokenOptions{}
	fs.StringVar(&opts.caller, "caller", "", "caller address (roy1... or 0x...)")
	fs.StringVar(&opts.issuer, "issuer", "", "token issuer")
	fs.StringVar(&opts.audience, "audience", "", "token audience")
	fs.DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	skipCheck := fs.Bool("skip-record-check", false, "do not open -config storage to refuse record addresses")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var signingSecret string
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		signingSecret = cfg.Auth.HMACSecret
		if opts.issuer == "" {
			opts.issuer = cfg.Auth.Issuer
		}
		if opts.audience == "" {
			opts.audience = cfg.Auth.Audience
		}
		if !*skipCheck && cfg.Storage.Driver != "" && cfg.Storage.Driver != storage.DriverMemory {
			db, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer db.Close()
			engine := royalty.NewEngine()
			engine.SetStore(db)
			opts.records = engine
		}
	}
	if signingSecret == "" {
		value, err := secret.NewSource(*secretEnv, "HMAC signing secret").Get()
		if err != nil {
			return err
		}
		signingSecret = value
	}

	token, err := issueToken(context.Background(), signingSecret, opts, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func issueToken(ctx context.Context, signingSecret string, opts tokenOptions, now time.Time) (string, error) {
	if opts.caller == "" {
		return "", errors.New("-caller is required")
	}
	if opts.ttl <= 0 {
		return "", errors.New("-ttl must be positive")
	}
	caller, err := crypto.ParseAddress(opts.caller)
	if err != nil {
		return "", fmt.Errorf("caller: %w", err)
	}
	if opts.records != nil {
		record, err := opts.records.IsRecordAddress(ctx, caller)
		if err != nil {
			return "", fmt.Errorf("caller: %w", err)
		}
		if record {
			return "", fmt.Errorf("caller %s is a record address", crypto.Encode(caller))
		}
	}
	return middleware.IssueToken(signingSecret, opts.issuer, opts.audience, caller, opts.ttl, now)
}
