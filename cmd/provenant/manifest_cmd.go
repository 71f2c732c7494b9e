package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"provenant/internal/domain"
	"provenant/pkg/manifest"
)

func runManifestBuild(args []string) int {
	fs := flag.NewFlagSet("manifest build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var version string
	var contentHash string
	var contentURI string
	var creatorDID string
	var createdAt string
	var outPath string

	fs.StringVar(&version, "version", manifest.DefaultVersion, "manifest version")
	fs.StringVar(&contentHash, "content-hash", "", "content hash (0x-prefixed sha256)")
	fs.StringVar(&contentURI, "content-uri", "", "content uri")
	fs.StringVar(&creatorDID, "creator-did", "", "creator did")
	fs.StringVar(&createdAt, "created-at", "", "created_at (RFC3339, default now)")
	fs.StringVar(&outPath, "out", "", "output manifest path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if contentHash == "" || creatorDID == "" {
		fmt.Fprintln(os.Stderr, "manifest build requires --content-hash and --creator-did")
		return 1
	}

	var created time.Time
	if createdAt != "" {
		parsed, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse created-at: %v\n", err)
			return 1
		}
		created = parsed
	}

	built, err := manifest.Build(manifest.BuildInput{
		Version:     version,
		ContentHash: contentHash,
		ContentURI:  contentURI,
		CreatorDID:  creatorDID,
		CreatedAt:   created,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build manifest: %v\n", err)
		return 1
	}

	payload, err := manifest.Marshal(built)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal manifest: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func runManifestSign(args []string) int {
	fs := flag.NewFlagSet("manifest sign", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var inPath string
	var outPath string
	var keyHex string

	fs.StringVar(&inPath, "in", "", "manifest JSON path")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")
	fs.StringVar(&keyHex, "key-hex", "", "secp256k1 private key hex")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" || keyHex == "" {
		fmt.Fprintln(os.Stderr, "manifest sign requires --in and --key-hex")
		return 1
	}

	payload, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		return 1
	}
	var doc domain.Manifest
	if err := json.Unmarshal(payload, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "decode manifest: %v\n", err)
		return 1
	}

	key, err := manifest.ParsePrivateKeyHex(keyHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse private key: %v\n", err)
		return 1
	}

	signed, err := manifest.Sign(doc, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign manifest: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "signer: %s\n", manifest.SignerAddress(key))

	out, err := manifest.Marshal(signed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal manifest: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, out); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
