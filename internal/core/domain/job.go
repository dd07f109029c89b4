package domain

// RunCondition decides whether a job runs given the terminal states of its
// dependencies.
type RunCondition string

const (
	// RunOnSuccess runs the job only if every dependency completed or was cached.
	RunOnSuccess RunCondition = "success"
	// RunOnFailure runs the job only if at least one dependency failed.
	RunOnFailure RunCondition = "failure"
	// RunAlways runs the job regardless of dependency outcomes.
	RunAlways RunCondition = "always"
)

// Step is a single sequential command inside a job.
type Step struct {
	Name string
	Run  []string
	Env  map[string]string
}

// Job is one node of the pipeline DAG. A job builds (or restores) its units
// first, then runs its steps strictly in order.
type Job struct {
	Name  InternedString
	Needs []InternedString
	When  RunCondition

	// Units names the build units this job materializes, in order.
	Units []InternedString

	Steps []Step
	Env   map[string]string

	// RequireCache makes every unit restore mandatory: a cache miss fails
	// the job instead of falling back to a rebuild.
	RequireCache bool

	// Notify marks the job as a notification job: instead of units and
	// steps it posts the run summary to the configured webhook.
	Notify bool

	// SkipOnPullRequest suppresses the job when the triggering event is a
	// pull request.
	SkipOnPullRequest bool
}

// Condition returns the job's run condition, defaulting to RunOnSuccess.
func (j *Job) Condition() RunCondition {
	if j.When == "" {
		return RunOnSuccess
	}
	return j.When
}
