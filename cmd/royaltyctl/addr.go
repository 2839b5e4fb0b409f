package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

type addrOptions struct {
	kind    string
	creator string
	asset   string
	listing string
	seller  string
	holder  string
	period  uint64
	seed    string
}

func runAddr(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(addrCommand, flag.ContinueOnError)
	opts := addrOptions{}
	fs.StringVar(&opts.kind, "kind", "listing", "identifier to derive: config, asset, listing, resale, pool or claim")
	fs.StringVar(&opts.creator, "creator", "", "creator address")
	fs.StringVar(&opts.asset, "asset", "", "asset id (32 byte hex)")
	fs.StringVar(&opts.listing, "listing", "", "royalty listing address")
	fs.StringVar(&opts.seller, "seller", "", "resale seller address")
	fs.StringVar(&opts.holder, "holder", "", "claim holder address")
	fs.Uint64Var(&opts.period, "period", 1, "payout period")
	fs.StringVar(&opts.seed, "seed", "", "uuid seed for -kind asset (random when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	line, err := derive(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, line)
	return nil
}

// derive returns the bech32 and hex forms of the requested identifier on one
// line. Asset ids have no bech32 form and print as hex only.
func derive(opts addrOptions) (string, error) {
	switch opts.kind {
	case "config":
		return formatAddress(royalty.PlatformConfigAddress()), nil
	case "asset":
		creator, err := parseFlagAddress("creator", opts.creator)
		if err != nil {
			return "", err
		}
		seed := uuid.New()
		if opts.seed != "" {
			if seed, err = uuid.Parse(opts.seed); err != nil {
				return "", fmt.Errorf("seed: %w", err)
			}
		}
		return crypto.HexAssetID(royalty.NewAssetID(creator, seed)), nil
	case "listing":
		creator, err := parseFlagAddress("creator", opts.creator)
		if err != nil {
			return "", err
		}
		if opts.asset == "" {
			return "", errors.New("-asset is required")
		}
		asset, err := crypto.ParseAssetID(opts.asset)
		if err != nil {
			return "", err
		}
		return formatAddress(royalty.ListingAddress(creator, asset)), nil
	case "resale":
		listing, err := parseFlagAddress("listing", opts.listing)
		if err != nil {
			return "", err
		}
		seller, err := parseFlagAddress("seller", opts.seller)
		if err != nil {
			return "", err
		}
		return formatAddress(royalty.ResaleAddress(listing, seller)), nil
	case "pool":
		listing, err := parseFlagAddress("listing", opts.listing)
		if err != nil {
			return "", err
		}
		return formatAddress(royalty.PoolAddress(listing)), nil
	case "claim":
		listing, err := parseFlagAddress("listing", opts.listing)
		if err != nil {
			return "", err
		}
		holder, err := parseFlagAddress("holder", opts.holder)
		if err != nil {
			return "", err
		}
		return formatAddress(royalty.ClaimAddress(royalty.PoolAddress(listing), holder, opts.period)), nil
	default:
		return "", fmt.Errorf("unknown -kind %q", opts.kind)
	}
}

func parseFlagAddress(name, raw string) ([20]byte, error) {
	if raw == "" {
		return [20]byte{}, fmt.Errorf("-%s is required", name)
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.Encode(addr) + " " + hexutil.Encode(addr[:])
}
