package domain

import "time"

type JobType string

const (
	JobVerify JobType = "verify"
	JobProof  JobType = "proof"
)

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Progress checkpoints reported as a job advances through its stages.
const (
	ProgressAccepted  = 5
	ProgressHashed    = 20
	ProgressFetched   = 45
	ProgressRecovered = 60
	ProgressLookedUp  = 80
	ProgressPersisted = 95
	ProgressDone      = 100
)

// VerificationJob is the queue-relative unit of work. The pipeline owns
// its lifecycle; no other component mutates it.
type VerificationJob struct {
	ID              string     `json:"jobId"`
	Type            JobType    `json:"type"`
	ContentHash     string     `json:"contentHash,omitempty"`
	ManifestURI     string     `json:"manifestUri"`
	RegistryAddress string     `json:"registryAddress,omitempty"`
	RPCURL          string     `json:"rpcUrl,omitempty"`
	Status          JobStatus  `json:"status"`
	Progress        int        `json:"progress"`
	Result          []byte     `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"`
	RetryCount      int        `json:"retryCount"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j VerificationJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
