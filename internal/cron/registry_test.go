package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
	runs int
	err  error
}

func (j *namedJob) Name() string { return j.name }

func (j *namedJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	t.Parallel()

	first := &namedJob{name: "first"}
	second := &namedJob{name: "second"}

	registry := NewRegistry(first, nil, second)
	registry.Register(nil)
	registry.Register(&namedJob{name: "third"})

	jobs := registry.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if jobs[i].Name() != want {
			t.Fatalf("job %d: expected %q, got %q", i, want, jobs[i].Name())
		}
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(&namedJob{name: "only"})
	jobs := registry.Jobs()
	jobs[0] = &namedJob{name: "replaced"}

	if registry.Jobs()[0].Name() != "only" {
		t.Fatal("mutating the returned slice must not affect the registry")
	}
}
