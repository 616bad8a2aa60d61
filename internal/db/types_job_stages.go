package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names recorded in job_stages. Each stage's output is
// written before the next stage begins, so a crashed run leaves an
// inspectable trail.
const (
	StagePersona      = "persona"
	StageRouting      = "routing"
	StageGate         = "gate"
	StageRequirements = "requirements"
	StageScoring      = "scoring"
	StageProposal     = "proposal"
	StageCritique     = "critique"
)

// JobStage is one persisted pipeline stage output for a job.
type JobStage struct {
	ID        uuid.UUID       `json:"id"`
	JobID     uuid.UUID       `json:"jobId"`
	Stage     string          `json:"stage"`
	Output    json.RawMessage `json:"output"`
	CreatedAt time.Time       `json:"createdAt"`
}
