package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/silky/icepeak/icepeak"
)

const icepeakTokenVersion = "0.1.0"

const usage = `Mint or inspect icepeak bearer tokens.

Usage:
    icepeak-token mint <path>... [--ttl=<seconds>] [--secret=<secret>]
    icepeak-token inspect <token>

Options:
    -h --help              Show this screen.
    --version               Show version.
    <path>...                One or more path prefixes to grant, e.g. "/users/42".
    --ttl=<seconds>          Expire the token after this many seconds [default: 0].
    --secret=<secret>        HMAC secret to sign with. Prompted on the terminal if omitted.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], icepeakTokenVersion)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	mint, _ := opts.Bool("mint")
	if mint {
		runMint(opts)
		return
	}
	runInspect(opts)
}

func runMint(opts docopt.Opts) {
	rawPaths, _ := opts["<path>"].([]string)
	paths := make([]icepeak.Path, len(rawPaths))
	for i, p := range rawPaths {
		paths[i] = icepeak.SplitPath(p)
	}

	ttlStr, _ := opts.String("--ttl")
	ttl, err := strconv.ParseInt(ttlStr, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "icepeak-token: invalid --ttl: %v\n", err)
		os.Exit(1)
	}

	secret, err := resolveSecret(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "icepeak-token: %v\n", err)
		os.Exit(1)
	}

	token, err := icepeak.MintHS256(secret, paths, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "icepeak-token: mint failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func runInspect(opts docopt.Opts) {
	token, _ := opts.String("<token>")
	claims, err := icepeak.ParseClaimsUnverified(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "icepeak-token: %v\n", err)
		os.Exit(1)
	}
	for _, path := range claims.Paths {
		fmt.Println(path.String())
	}
}

// resolveSecret returns the --secret flag's value, or, if omitted,
// reads one from the controlling terminal without echoing it.
func resolveSecret(opts docopt.Opts) ([]byte, error) {
	if secret, _ := opts.String("--secret"); secret != "" {
		return []byte(secret), nil
	}
	fmt.Fprint(os.Stderr, "secret: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(secret))), nil
}
