// Command mint-token prints a token signed with the service's configured
// signing material. It is meant for local development and testing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/udehnih/review-rating/config"
	"github.com/udehnih/review-rating/token"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "mint-token: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	subject string
	email   string
	roles   []string
	ttl     time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("mint-token", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.subject, "subject", "", "token subject (required)")
	fs.StringVar(&opts.email, "email", "", "email claim")
	fs.StringSliceVar(&opts.roles, "roles", []string{"STUDENT"}, "comma-separated roles")
	fs.DurationVar(&opts.ttl, "ttl", 0, "token lifetime (default JWT_TTL)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.subject == "" {
		return opts, fmt.Errorf("--subject is required")
	}
	if opts.ttl < 0 {
		return opts, fmt.Errorf("--ttl must be positive")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}
	if opts.ttl == 0 {
		opts.ttl = cfg.Auth.TokenTTL
	}

	material, err := cfg.Auth.SigningMaterial()
	if err != nil {
		return err
	}
	codec, err := token.NewCodec(material, token.CodecConfig{Issuer: cfg.Auth.Issuer})
	if err != nil {
		return err
	}

	tok, err := codec.EncodeWithOptions(opts.subject, opts.roles, opts.ttl, token.EncodeOptions{Email: opts.email})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, tok.Raw())
	return err
}
