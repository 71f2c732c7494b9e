package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"provenant/internal/domain"
)

type stubHasher struct {
	digest string
	err    error
}

func (h stubHasher) HashFile(path string) (string, error) {
	return h.digest, h.err
}

func (h stubHasher) HashBytes(data []byte) string {
	return h.digest
}

type stubFetcher struct {
	manifest *domain.Manifest
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(ctx context.Context, uri string) (*domain.Manifest, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.manifest, nil
}

type stubSigner struct {
	address string
	err     error
}

func (s stubSigner) Recover(signature, contentHash string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.address, nil
}

// stubRegistry answers registry reads per rpc url, so cross-chain tests can
// model one table entry per endpoint.
type stubRegistry struct {
	entries  map[string]domain.RegistryEntry
	errs     map[string]error
	chainID  int64
	chainErr error
	txHash   string
	calls    []string
}

func (r *stubRegistry) GetEntry(ctx context.Context, rpcURL, registryAddress, contentHash string) (domain.RegistryEntry, error) {
	r.calls = append(r.calls, rpcURL)
	if err, ok := r.errs[rpcURL]; ok {
		return domain.RegistryEntry{}, err
	}
	return r.entries[rpcURL], nil
}

func (r *stubRegistry) GetBinding(ctx context.Context, rpcURL, registryAddress, platform, platformID string) (domain.RegistryEntry, error) {
	return r.GetEntry(ctx, rpcURL, registryAddress, platform+":"+platformID)
}

func (r *stubRegistry) FindRegistrationTx(ctx context.Context, rpcURL, registryAddress, contentHash string) (string, bool) {
	if r.txHash == "" {
		return "", false
	}
	return r.txHash, true
}

func (r *stubRegistry) ChainID(ctx context.Context, rpcURL string) (int64, error) {
	if r.chainErr != nil {
		return 0, r.chainErr
	}
	return r.chainID, nil
}

type recordingLedger struct {
	records []domain.VerificationRecord
	err     error
}

func (l *recordingLedger) Upsert(ctx context.Context, record domain.VerificationRecord) error {
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, record)
	return nil
}

func (l *recordingLedger) FindByContentHash(ctx context.Context, contentHash string) ([]domain.VerificationRecord, error) {
	return l.records, nil
}

func singleChainVerify(registry *stubRegistry, ledger Ledger) *VerifyContent {
	return &VerifyContent{
		Hasher:   stubHasher{digest: testHash},
		Fetcher:  &stubFetcher{manifest: testManifest(testHash)},
		Signer:   stubSigner{address: testSigner},
		Registry: registry,
		Ledger:   ledger,
		Clock:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestVerifyContent_SingleChainOK(t *testing.T) {
	registry := &stubRegistry{
		entries: map[string]domain.RegistryEntry{"rpc-a": registeredEntry()},
		chainID: 137,
	}
	ledger := &recordingLedger{}
	uc := singleChainVerify(registry, ledger)

	outcome, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromBytes([]byte("payload")),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Verdict.Status != domain.VerdictOK {
		t.Fatalf("status = %s, want OK", outcome.Verdict.Status)
	}
	if outcome.ChainID != 137 {
		t.Fatalf("chain id = %d, want 137", outcome.ChainID)
	}
	if outcome.RegistryAddress != "0xRegistry" {
		t.Fatalf("registry = %s", outcome.RegistryAddress)
	}
	if len(ledger.records) != 1 {
		t.Fatalf("ledger records = %d, want 1", len(ledger.records))
	}
	record := ledger.records[0]
	if record.ContentHash != testHash || record.Status != domain.VerdictOK || record.ChainID != 137 {
		t.Fatalf("unexpected ledger record: %+v", record)
	}
	if !record.VerifiedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("VerifiedAt = %v, want the injected clock", record.VerifiedAt)
	}
}

func TestVerifyContent_ProgressCheckpointsInOrder(t *testing.T) {
	registry := &stubRegistry{entries: map[string]domain.RegistryEntry{"rpc-a": registeredEntry()}}
	uc := singleChainVerify(registry, &recordingLedger{})

	var stages []int
	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
		Progress:    func(stage int) { stages = append(stages, stage) },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := []int{
		domain.ProgressAccepted,
		domain.ProgressHashed,
		domain.ProgressFetched,
		domain.ProgressRecovered,
		domain.ProgressLookedUp,
		domain.ProgressPersisted,
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage[%d] = %d, want %d", i, stages[i], want[i])
		}
	}
}

func TestVerifyContent_MissingManifestURI(t *testing.T) {
	uc := singleChainVerify(&stubRegistry{}, nil)

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content: ContentFromHash(testHash),
		Target:  SingleChain("0xRegistry", "rpc-a"),
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestVerifyContent_FetchErrorPropagates(t *testing.T) {
	uc := singleChainVerify(&stubRegistry{}, nil)
	uc.Fetcher = &stubFetcher{err: fmt.Errorf("%w: gateway timeout", domain.ErrFetch)}

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestVerifyContent_BadSignatureIsParseError(t *testing.T) {
	uc := singleChainVerify(&stubRegistry{}, nil)
	uc.Signer = stubSigner{err: errors.New("signature must be 65 bytes")}

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestVerifyContent_RPCErrorPropagates(t *testing.T) {
	registry := &stubRegistry{
		errs: map[string]error{"rpc-a": fmt.Errorf("%w: connection refused", domain.ErrRPC)},
	}
	uc := singleChainVerify(registry, nil)

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if !errors.Is(err, domain.ErrRPC) {
		t.Fatalf("err = %v, want ErrRPC", err)
	}
}

func TestVerifyContent_ChainIDFailureIsNotFatal(t *testing.T) {
	registry := &stubRegistry{
		entries:  map[string]domain.RegistryEntry{"rpc-a": registeredEntry()},
		chainErr: errors.New("eth_chainId unavailable"),
	}
	uc := singleChainVerify(registry, nil)

	outcome, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.ChainID != 0 {
		t.Fatalf("chain id = %d, want 0 when eth_chainId fails", outcome.ChainID)
	}
}

func TestVerifyContent_CrossChainNotFoundIsFailVerdict(t *testing.T) {
	registry := &stubRegistry{entries: map[string]domain.RegistryEntry{}}
	uc := singleChainVerify(registry, &recordingLedger{})
	uc.Resolver = &CrossChainResolver{
		Targets: []domain.ChainTarget{
			{ChainID: 1, RPCURL: "rpc-a", RegistryAddress: "0xA"},
		},
		Registry: registry,
	}

	outcome, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      CrossChain(),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Verdict.Status != domain.VerdictFail {
		t.Fatalf("status = %s, want FAIL", outcome.Verdict.Status)
	}
	if !outcome.Verdict.NoEntry {
		t.Fatal("NoEntry should be set when no chain holds the entry")
	}
}

func TestVerifyContent_CrossChainWithoutResolver(t *testing.T) {
	uc := singleChainVerify(&stubRegistry{}, nil)

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      CrossChain(),
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestVerifyContent_CrossChainAllUnreachable(t *testing.T) {
	registry := &stubRegistry{
		errs: map[string]error{
			"rpc-a": fmt.Errorf("%w: refused", domain.ErrRPC),
			"rpc-b": fmt.Errorf("%w: refused", domain.ErrRPC),
		},
	}
	uc := singleChainVerify(registry, nil)
	uc.Resolver = &CrossChainResolver{
		Targets: []domain.ChainTarget{
			{ChainID: 1, RPCURL: "rpc-a", RegistryAddress: "0xA"},
			{ChainID: 137, RPCURL: "rpc-b", RegistryAddress: "0xB"},
		},
		Registry: registry,
	}

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      CrossChain(),
	})
	if !errors.Is(err, domain.ErrAllChainsFailed) {
		t.Fatalf("err = %v, want ErrAllChainsFailed", err)
	}
}

func TestVerifyContent_CrossChainPartialFailureIsNotAVerdict(t *testing.T) {
	// rpc-a is down and rpc-b answers empty: the run must error out as
	// retryable instead of persisting a FAIL verdict the entry's real
	// chain might contradict.
	registry := &stubRegistry{
		errs:    map[string]error{"rpc-a": fmt.Errorf("%w: refused", domain.ErrRPC)},
		entries: map[string]domain.RegistryEntry{},
	}
	ledger := &recordingLedger{}
	uc := singleChainVerify(registry, ledger)
	uc.Resolver = &CrossChainResolver{
		Targets: []domain.ChainTarget{
			{ChainID: 1, RPCURL: "rpc-a", RegistryAddress: "0xA"},
			{ChainID: 137, RPCURL: "rpc-b", RegistryAddress: "0xB"},
		},
		Registry: registry,
	}

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      CrossChain(),
	})
	if !errors.Is(err, domain.ErrPartialResolution) {
		t.Fatalf("err = %v, want ErrPartialResolution", err)
	}
	if len(ledger.records) != 0 {
		t.Fatalf("ledger records = %d, want none persisted", len(ledger.records))
	}
}

func TestVerifyContent_LedgerFailureFailsTheRun(t *testing.T) {
	registry := &stubRegistry{entries: map[string]domain.RegistryEntry{"rpc-a": registeredEntry()}}
	uc := singleChainVerify(registry, &recordingLedger{err: errors.New("db down")})

	_, err := uc.Execute(context.Background(), VerifyRequest{
		Content:     ContentFromHash(testHash),
		ManifestURI: testURI,
		Target:      SingleChain("0xRegistry", "rpc-a"),
	})
	if err == nil {
		t.Fatal("expected error when ledger upsert fails")
	}
}
