package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"royaltyhub/cmd/internal/secret"
	"royaltyhub/crypto"
)

const defaultPassEnv = "ROYALTY_KEYSTORE_PASS"

// saveKeystore is swapped in tests for cheaper scrypt parameters.
var saveKeystore = crypto.SaveToKeystore

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(keygenCommand, flag.ContinueOnError)
	keystorePath := fs.String("keystore", "", "keystore file to create, or to inspect with -show")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	show := fs.Bool("show", false, "print the address of an existing keystore instead of generating one")
	force := fs.Bool("force", false, "overwrite an existing keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keystorePath == "" {
		return errors.New("-keystore is required")
	}
	if *show {
		addr, err := crypto.KeystoreAddress(*keystorePath)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatAddress(addr))
		return nil
	}
	return keygen(*keystorePath, secret.NewSource(*passEnv, "keystore passphrase"), *force, out)
}

func keygen(path string, passphrase *secret.Source, force bool, out io.Writer) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("keystore %s already exists (use -force to overwrite)", path)
		}
	}
	pass, err := passphrase.Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := saveKeystore(path, key, pass); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	addr := key.PubKey().Address().Bytes()
	fmt.Fprintf(out, "%s\nkeystore written to %s\n", formatAddress(addr), path)
	return nil
}
