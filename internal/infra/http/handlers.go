package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"provenant/internal/domain"
	"provenant/internal/infra/queue"
	"provenant/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type verifyRequest struct {
	ContentHash     string `json:"content_hash,omitempty"`
	FileBase64      string `json:"file_base64,omitempty"`
	ManifestURI     string `json:"manifest_uri"`
	RegistryAddress string `json:"registry_address,omitempty"`
	RPCURL          string `json:"rpc_url,omitempty"`
}

type syncResponse struct {
	Mode    string          `json:"mode"`
	Verdict *domain.Verdict `json:"verdict,omitempty"`
	Proof   *domain.Proof   `json:"proof,omitempty"`
}

type queuedResponse struct {
	Mode    string `json:"mode"`
	JobID   string `json:"jobId"`
	PollURL string `json:"pollUrl"`
	Status  string `json:"status"`
}

type jobResponse struct {
	JobID       string          `json:"jobId"`
	Type        string          `json:"type"`
	ContentHash string          `json:"contentHash,omitempty"`
	ManifestURI string          `json:"manifestUri"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	RetryCount  int             `json:"retryCount"`
	CreatedAt   string          `json:"createdAt"`
	StartedAt   string          `json:"startedAt,omitempty"`
	CompletedAt string          `json:"completedAt,omitempty"`
}

type bindingResponse struct {
	ChainID         int64  `json:"chainId"`
	RegistryAddress string `json:"registryAddress"`
	Creator         string `json:"creator"`
	ContentHash     string `json:"contentHash"`
	ManifestURI     string `json:"manifestURI"`
	Timestamp       uint64 `json:"timestamp"`
}

type historyEntry struct {
	ContentHash     string `json:"contentHash"`
	ManifestURI     string `json:"manifestUri"`
	RegistryAddress string `json:"registryAddress,omitempty"`
	ChainID         int64  `json:"chainId,omitempty"`
	Status          string `json:"status"`
	RecoveredSigner string `json:"recoveredSigner,omitempty"`
	OnchainCreator  string `json:"onchainCreator,omitempty"`
	VerifiedAt      string `json:"verifiedAt"`
}

func (s *Server) handleVerify(c *gin.Context) {
	s.handleSubmit(c, domain.JobVerify)
}

func (s *Server) handleProof(c *gin.Context) {
	s.handleSubmit(c, domain.JobProof)
}

func (s *Server) handleSubmit(c *gin.Context, jobType domain.JobType) {
	if !s.enforceRateLimit(c, "submit") {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request body")
		return
	}
	submit, ok := s.buildSubmit(c, jobType, req)
	if !ok {
		return
	}

	result, err := s.pipeline.Submit(c.Request.Context(), submit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if result.Queued {
		c.JSON(http.StatusAccepted, queuedResponse{
			Mode:    "queued",
			JobID:   result.Job.ID,
			PollURL: "/v1/jobs/" + result.Job.ID,
			Status:  string(result.Job.Status),
		})
		return
	}
	c.JSON(http.StatusOK, syncResponse{
		Mode:    "sync",
		Verdict: result.Verdict,
		Proof:   result.Proof,
	})
}

// buildSubmit validates the request into the tagged variants before
// anything is queued; malformed input never consumes a job slot.
func (s *Server) buildSubmit(c *gin.Context, jobType domain.JobType, req verifyRequest) (queue.SubmitRequest, bool) {
	if req.ManifestURI == "" {
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "manifest_uri is required")
		return queue.SubmitRequest{}, false
	}

	var content usecase.ContentSource
	switch {
	case req.FileBase64 != "":
		data, err := base64.StdEncoding.DecodeString(req.FileBase64)
		if err != nil || len(data) == 0 {
			writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "file_base64 is not valid base64")
			return queue.SubmitRequest{}, false
		}
		content = usecase.ContentFromBytes(data)
	case req.ContentHash != "":
		if !domain.ValidDigest(req.ContentHash) {
			writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "content_hash must be a 0x-prefixed 32-byte hex digest")
			return queue.SubmitRequest{}, false
		}
		content = usecase.ContentFromHash(req.ContentHash)
	default:
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "one of content_hash or file_base64 is required")
		return queue.SubmitRequest{}, false
	}

	target := usecase.CrossChain()
	if req.RegistryAddress != "" {
		target = usecase.SingleChain(req.RegistryAddress, req.RPCURL)
	} else if s.resolver == nil {
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "registry_address is required (no cross-chain table configured)")
		return queue.SubmitRequest{}, false
	}

	return queue.SubmitRequest{
		Type:        jobType,
		Content:     content,
		ManifestURI: req.ManifestURI,
		Target:      target,
	}, true
}

func (s *Server) handleJob(c *gin.Context) {
	job, err := s.pipeline.Job(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "job not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "failed to load job")
		return
	}

	resp := jobResponse{
		JobID:       job.ID,
		Type:        string(job.Type),
		ContentHash: job.ContentHash,
		ManifestURI: job.ManifestURI,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Error:       job.Error,
		RetryCount:  job.RetryCount,
		CreatedAt:   job.CreatedAt.UTC().Format(timeLayout),
	}
	if job.Status == domain.JobCompleted && len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.UTC().Format(timeLayout)
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.UTC().Format(timeLayout)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleResolveBinding(c *gin.Context) {
	if s.resolver == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "cross-chain resolution is not configured")
		return
	}
	found, err := s.resolver.ResolveBinding(c.Request.Context(), c.Param("platform"), c.Param("platform_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bindingResponse{
		ChainID:         found.ChainID,
		RegistryAddress: found.RegistryAddress,
		Creator:         found.Creator,
		ContentHash:     found.ContentHash,
		ManifestURI:     found.ManifestURI,
		Timestamp:       found.Timestamp,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.ledger == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "history requires a database")
		return
	}
	contentHash := c.Param("content_hash")
	if !domain.ValidDigest(contentHash) {
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", "content_hash must be a 0x-prefixed 32-byte hex digest")
		return
	}
	records, err := s.ledger.FindByContentHash(c.Request.Context(), contentHash)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	entries := make([]historyEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, historyEntry{
			ContentHash:     record.ContentHash,
			ManifestURI:     record.ManifestURI,
			RegistryAddress: record.RegistryAddress,
			ChainID:         record.ChainID,
			Status:          string(record.Status),
			RecoveredSigner: record.RecoveredSigner,
			OnchainCreator:  record.OnchainCreator,
			VerifiedAt:      record.VerifiedAt.UTC().Format(timeLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"verifications": entries})
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Code: code, Message: message})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, domain.ErrRead):
		writeErrorCode(c, http.StatusBadRequest, "READ_FAILED", err.Error())
	case errors.Is(err, domain.ErrParse):
		writeErrorCode(c, http.StatusUnprocessableEntity, "PARSE_FAILED", err.Error())
	case errors.Is(err, domain.ErrFetch):
		writeErrorCode(c, http.StatusBadGateway, "FETCH_FAILED", err.Error())
	case errors.Is(err, domain.ErrRPC), errors.Is(err, domain.ErrAllChainsFailed), errors.Is(err, domain.ErrPartialResolution):
		writeErrorCode(c, http.StatusBadGateway, "RPC_FAILED", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
