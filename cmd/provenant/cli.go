package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "verify":
		return runVerify(args[2:])
	case "proof":
		return runProof(args[2:])
	case "manifest":
		if len(args) >= 3 {
			switch args[2] {
			case "build":
				return runManifestBuild(args[3:])
			case "sign":
				return runManifestSign(args[3:])
			}
		}
	case "hash":
		return runHash(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "provenant"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s verify (--file <path>|--hash <0xhex>) --manifest <uri> [--registry <address>] [--rpc <url>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s proof (--file <path>|--hash <0xhex>) --manifest <uri> [--registry <address>] [--rpc <url>] [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s manifest build --content-hash <0xhex> --creator-did <did> [--content-uri <uri>] [--created-at <rfc3339>] [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s manifest sign --in <manifest.json> --key-hex <hex> [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s hash <file>\n", name)
	fmt.Fprintf(os.Stderr, "\nverify and proof fall back to RPC_URL, IPFS_GATEWAY_URL, and CHAIN_TARGETS from the environment.\n")
}

func writeOutput(path string, payload []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(payload, '\n'))
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
