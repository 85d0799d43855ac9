// Package batch runs a queue of saved profiles one after another.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/apiclient"
	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/prompt"
)

const (
	msgMissingDefaults = "Profile defaults missing provider/model"
	msgMissingPrompt   = "Missing prompt/template"
)

// Job is one queued profile.
type Job struct {
	ModelKey   string `json:"modelKey"`
	ProfileKey string `json:"profileKey"`
}

func (j Job) ProfileID() string {
	return strings.Trim(j.ModelKey, "/") + "/" + strings.Trim(j.ProfileKey, "/")
}

// Parse splits provider/model/file.json into a job.
func Parse(id string) (Job, error) {
	p, err := profile.ParsePath(id)
	if err != nil {
		return Job{}, err
	}
	return Job{ModelKey: p.ModelKey(), ProfileKey: p.File}, nil
}

// Result is the outcome of one job.
type Result struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	ProfileID string        `json:"profileId"`
	OK        bool          `json:"ok"`
	Text      string        `json:"text,omitempty"`
	Message   string        `json:"message,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

type Summary struct {
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

// API is the subset of the gateway client a batch needs.
type API interface {
	FetchProfile(ctx context.Context, id string) (*profile.Profile, error)
	Generate(ctx context.Context, endpoint string, req apiclient.GenerateRequest) (string, error)
}

// Hooks observe progress. Both are optional.
type Hooks struct {
	OnStart  func(index, total int, job Job)
	OnResult func(index, total int, res Result)
}

type Runner struct {
	api   API
	hooks Hooks
}

func NewRunner(api API, hooks Hooks) *Runner {
	return &Runner{api: api, hooks: hooks}
}

// OrderJobs groups jobs by model key. Groups named in modelOrder come first in
// that order, the rest follow in first-seen order; jobs keep queue order
// within a group. Jobs without a model key are dropped.
func OrderJobs(jobs []Job, modelOrder []string) []Job {
	groups := make(map[string][]Job)
	var seen []string
	for _, j := range jobs {
		key := strings.TrimSpace(j.ModelKey)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			seen = append(seen, key)
		}
		groups[key] = append(groups[key], j)
	}

	out := make([]Job, 0, len(jobs))
	used := make(map[string]bool, len(groups))
	for _, key := range append(append([]string{}, modelOrder...), seen...) {
		key = strings.TrimSpace(key)
		if used[key] {
			continue
		}
		if g, ok := groups[key]; ok {
			out = append(out, g...)
			used[key] = true
		}
	}
	return out
}

// Run executes jobs strictly one at a time. Cancellation of ctx is checked
// before each job and also aborts the job in flight. Job failures are
// reported as results and never stop the batch.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, Summary) {
	sum := Summary{Total: len(jobs)}
	results := make([]Result, 0, len(jobs))

	for i, job := range jobs {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}
		if r.hooks.OnStart != nil {
			r.hooks.OnStart(i, len(jobs), job)
		}

		start := time.Now()
		res := r.execute(ctx, job)
		res.Elapsed = time.Since(start)

		if res.OK {
			sum.Completed++
		} else {
			sum.Failed++
			if ctx.Err() != nil {
				sum.Cancelled = true
			}
		}
		results = append(results, res)
		log.Info().
			Str("profile", res.ProfileID).
			Bool("ok", res.OK).
			Dur("elapsed", res.Elapsed).
			Msg("batch job done")
		if r.hooks.OnResult != nil {
			r.hooks.OnResult(i, len(jobs), res)
		}
	}
	return results, sum
}

func (r *Runner) execute(ctx context.Context, job Job) Result {
	res := Result{ProfileID: job.ProfileID()}

	p, err := r.api.FetchProfile(ctx, res.ProfileID)
	if err != nil {
		res.Message = errText(err)
		return res
	}

	res.Provider = strings.ToLower(strings.TrimSpace(p.Defaults.Provider))
	res.Model = strings.TrimSpace(p.Defaults.Model)
	if res.Provider == "" || res.Model == "" {
		res.Message = msgMissingDefaults
		return res
	}

	compiled := strings.TrimSpace(prompt.Compile(p, prompt.SourcesFromProfile(p)))
	if compiled == "" {
		res.Message = msgMissingPrompt
		return res
	}

	text, err := r.api.Generate(ctx, "/api/generate", apiclient.GenerateRequest{
		Provider: res.Provider,
		Model:    res.Model,
		Prompt:   compiled,
	})
	if err != nil {
		res.Message = errText(err)
		return res
	}
	res.OK = true
	res.Text = text
	return res
}

func errText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return fmt.Sprint(err)
}
