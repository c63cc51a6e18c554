package services

import (
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/metrics"
)

// StepStatus is the result of one best-effort write step.
type StepStatus string

const (
	StepSucceeded  StepStatus = "succeeded"
	StepSoftFailed StepStatus = "soft_failed"
)

// Best-effort step kinds.
const (
	StepLinkTag          = "link_tag"
	StepUploadAttachment = "upload_attachment"
	StepRecordAttachment = "record_attachment"
	StepCleanupUpload    = "cleanup_upload"
	StepDeleteObject     = "delete_object"
	StepSpawnRecurrence  = "spawn_recurrence"
	StepNotify           = "notify"
	StepResolveNames     = "resolve_names"
)

// StepOutcome records how a best-effort step ended. A hard failure is never
// an outcome; it is returned as an error and aborts the operation.
type StepOutcome struct {
	Step   string     `json:"step"`
	Target string     `json:"target,omitempty"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`

	Err error `json:"-"`
}

// SoftFailed reports whether the step failed and was swallowed.
func (o StepOutcome) SoftFailed() bool {
	return o.Status == StepSoftFailed
}

// Outcomes is the ordered list of steps a write went through.
type Outcomes []StepOutcome

// SoftFailures returns only the swallowed failures.
func (o Outcomes) SoftFailures() Outcomes {
	failed := Outcomes{}
	for _, outcome := range o {
		if outcome.SoftFailed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Find returns the first outcome of the given step kind.
func (o Outcomes) Find(step string) (StepOutcome, bool) {
	for _, outcome := range o {
		if outcome.Step == step {
			return outcome, true
		}
	}
	return StepOutcome{}, false
}

// stepRecorder collects outcomes and logs every swallowed failure.
type stepRecorder struct {
	log      logrus.FieldLogger
	taskID   uint64
	outcomes Outcomes
}

func newStepRecorder(log logrus.FieldLogger, taskID uint64) *stepRecorder {
	return &stepRecorder{log: log, taskID: taskID, outcomes: Outcomes{}}
}

func (r *stepRecorder) succeed(step, target string) {
	r.outcomes = append(r.outcomes, StepOutcome{Step: step, Target: target, Status: StepSucceeded})
}

func (r *stepRecorder) softFail(step, target string, err error) {
	r.log.WithFields(logrus.Fields{
		"step":    step,
		"target":  target,
		"task_id": r.taskID,
		"error":   err.Error(),
	}).Warn("Best-effort step failed")
	metrics.RecordSoftFailure(step)

	r.outcomes = append(r.outcomes, StepOutcome{
		Step:   step,
		Target: target,
		Status: StepSoftFailed,
		Error:  err.Error(),
		Err:    err,
	})
}

func (r *stepRecorder) record(step, target string, err error) {
	if err != nil {
		r.softFail(step, target, err)
		return
	}
	r.succeed(step, target)
}

func (r *stepRecorder) merge(other Outcomes) {
	r.outcomes = append(r.outcomes, other...)
}
