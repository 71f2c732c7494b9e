package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"provenant/internal/config"
	"provenant/internal/domain"
	"provenant/internal/infra/chain"
	"provenant/internal/infra/hasher"
	manifestinfra "provenant/internal/infra/manifest"
	"provenant/internal/usecase"
)

type verifyFlags struct {
	filePath string
	hash     string
	manifest string
	registry string
	rpcURL   string
	outPath  string
}

func parseVerifyFlags(name string, args []string) (verifyFlags, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var flags verifyFlags
	fs.StringVar(&flags.filePath, "file", "", "content file to hash and verify")
	fs.StringVar(&flags.hash, "hash", "", "precomputed content hash (0x-prefixed sha256)")
	fs.StringVar(&flags.manifest, "manifest", "", "manifest URI (ipfs:// or http(s)://)")
	fs.StringVar(&flags.registry, "registry", "", "registry contract address (default: cross-chain via CHAIN_TARGETS)")
	fs.StringVar(&flags.rpcURL, "rpc", "", "RPC endpoint (default: RPC_URL)")
	fs.StringVar(&flags.outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return verifyFlags{}, false
	}
	if flags.manifest == "" {
		fmt.Fprintf(os.Stderr, "%s requires --manifest\n", name)
		return verifyFlags{}, false
	}
	if (flags.filePath == "" && flags.hash == "") || (flags.filePath != "" && flags.hash != "") {
		fmt.Fprintf(os.Stderr, "%s requires exactly one of --file or --hash\n", name)
		return verifyFlags{}, false
	}
	if flags.hash != "" && !domain.ValidDigest(flags.hash) {
		fmt.Fprintln(os.Stderr, "--hash must be a 0x-prefixed 32-byte hex digest")
		return verifyFlags{}, false
	}
	return flags, true
}

func buildVerifyRequest(cfg config.Config, flags verifyFlags) (usecase.VerifyRequest, *usecase.VerifyContent, bool) {
	req := usecase.VerifyRequest{ManifestURI: flags.manifest}
	if flags.filePath != "" {
		req.Content = usecase.ContentFromFile(flags.filePath)
	} else {
		req.Content = usecase.ContentFromHash(flags.hash)
	}

	chainClient := chain.NewClient(cfg.RPCURL, cfg.RPCTimeout())
	fetcher := manifestinfra.NewFetcher(cfg.IPFSGatewayURL, cfg.FetchTimeout())

	uc := &usecase.VerifyContent{
		Hasher:   hasher.Service{},
		Fetcher:  fetcher,
		Signer:   chain.Recoverer{},
		Registry: chainClient,
	}

	registry := flags.registry
	if registry == "" {
		registry = cfg.RegistryAddress
	}
	if registry != "" {
		req.Target = usecase.SingleChain(registry, flags.rpcURL)
		return req, uc, true
	}

	targets := cfg.ParseChainTargets()
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "no registry: pass --registry or set REGISTRY_ADDRESS or CHAIN_TARGETS")
		return usecase.VerifyRequest{}, nil, false
	}
	req.Target = usecase.CrossChain()
	uc.Resolver = &usecase.CrossChainResolver{
		Targets:  targets,
		Registry: chainClient,
	}
	return req, uc, true
}

func runVerify(args []string) int {
	flags, ok := parseVerifyFlags("verify", args)
	if !ok {
		return 1
	}
	cfg := config.FromEnv()
	req, uc, ok := buildVerifyRequest(cfg, flags)
	if !ok {
		return 1
	}

	outcome, err := uc.Execute(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	payload, err := json.MarshalIndent(outcome.Verdict, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal verdict: %v\n", err)
		return 1
	}
	if err := writeOutput(flags.outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	if outcome.Verdict.Status == domain.VerdictFail {
		return 1
	}
	return 0
}

func runProof(args []string) int {
	flags, ok := parseVerifyFlags("proof", args)
	if !ok {
		return 1
	}
	cfg := config.FromEnv()
	req, uc, ok := buildVerifyRequest(cfg, flags)
	if !ok {
		return 1
	}

	proofUC := &usecase.GenerateProof{
		Verify:   uc,
		Registry: uc.Registry,
	}
	proof, err := proofUC.Execute(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proof: %v\n", err)
		return 1
	}
	payload, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal proof: %v\n", err)
		return 1
	}
	if err := writeOutput(flags.outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func runHash(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "hash requires <file>")
		return 1
	}
	digest, err := hasher.Service{}.HashFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		return 1
	}
	fmt.Println(digest)
	return 0
}
