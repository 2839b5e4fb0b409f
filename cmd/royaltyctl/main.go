package main

import (
	"fmt"
	"io"
	"os"
)

const (
	tokenCommand  = "token"
	addrCommand   = "addr"
	exportCommand = "export"
	keygenCommand = "keygen"

	defaultSecretEnv = "ROYALTY_HMAC_SECRET"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case tokenCommand:
		err = runToken(os.Args[2:], os.Stdout)
	case addrCommand:
		err = runAddr(os.Args[2:], os.Stdout)
	case exportCommand:
		err = runExport(os.Args[2:], os.Stdout)
	case keygenCommand:
		err = runKeygen(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: royaltyctl <command> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  %-8s issue a bearer token for a caller address\n", tokenCommand)
	fmt.Fprintf(w, "  %-8s derive listing, resale, pool, claim or asset identifiers\n", addrCommand)
	fmt.Fprintf(w, "  %-8s export claims or sales as csv, jsonl or parquet\n", exportCommand)
	fmt.Fprintf(w, "  %-8s generate a participant key in an encrypted keystore\n", keygenCommand)
}
