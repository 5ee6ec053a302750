//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/cadre-oss/brains/internal/event"
	"github.com/cadre-oss/brains/internal/service"
	"github.com/cadre-oss/brains/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	types []event.EventType
}

func (r *recorder) hook() event.Hook {
	return event.NewFuncHook("recorder", event.AllTypes(), true, func(ev event.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.types = append(r.types, ev.Type)
		return nil
	})
}

func (r *recorder) count(t event.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.types {
		if got == t {
			n++
		}
	}
	return n
}

func TestFullPipelinePersistsProjectMemory(t *testing.T) {
	for name, cfg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := open(t, cfg, &testutil.MockProvider{})
			defer svc.Close()

			rec := &recorder{}
			svc.Bus().Register(rec.hook())

			res := svc.Orchestrate(ctx, service.OrchestrateInput{
				UserID:  "team",
				Message: "我需要优化推荐算法的准确率",
			})
			if res.FinalResponse.Failed() {
				t.Fatalf("pipeline failed: %s", res.FinalResponse.Error)
			}
			if res.Mode != "full" || len(res.SpecialistOutputs) == 0 {
				t.Fatalf("unexpected result: mode=%s specialists=%d", res.Mode, len(res.SpecialistOutputs))
			}
			if res.SelectedAgents[0] != "algo_scientist" {
				t.Errorf("first specialist = %s, want algo_scientist", res.SelectedAgents[0])
			}

			if n := rec.count(event.OrchestrationStarted); n != 1 {
				t.Errorf("orchestration.started emitted %d times", n)
			}
			if n := rec.count(event.SpecialistCompleted); n != len(res.SpecialistOutputs) {
				t.Errorf("specialist.completed = %d, want %d", n, len(res.SpecialistOutputs))
			}
			if n := rec.count(event.SynthesisCompleted); n != 1 {
				t.Errorf("synthesis.completed emitted %d times", n)
			}

			project, err := svc.Memories(ctx, service.MemoryQuery{UserID: "team", RoleID: "project_brain"})
			if err != nil {
				t.Fatal(err)
			}
			if len(project) == 0 {
				t.Error("expected the synthesis to land in project memory")
			}

			if got := len(svc.History("team")); got == 0 {
				t.Error("expected the synthesis turn in the conversation cache")
			}
			if m := svc.Metrics(); m.Orchestrations != 1 {
				t.Errorf("orchestrations = %d, want 1", m.Orchestrations)
			}
		})
	}
}
