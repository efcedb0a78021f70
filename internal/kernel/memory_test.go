package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/proofmesh/snarkgate/internal/bridge"
	"github.com/proofmesh/snarkgate/internal/noun"
	"github.com/proofmesh/snarkgate/internal/protocol"
	"go.uber.org/zap"
)

func bootedKernel(t *testing.T) *Memory {
	t.Helper()
	k := NewMemory(zap.NewNop())
	if _, err := k.Poke(context.Background(), protocol.InitCause()); err != nil {
		t.Fatalf("init poke: %v", err)
	}
	return k
}

func submitOne(t *testing.T, k *Memory, submitter string) uint64 {
	t.Helper()
	effects, err := k.Poke(context.Background(), protocol.SubmitCause(protocol.SubmitFields{
		Proof:           "cHJvb2Y=",
		PublicInputs:    []string{"1", "2"},
		VerificationKey: "dms=",
		ProofSystem:     "groth16",
		Submitter:       submitter,
	}))
	if err != nil {
		t.Fatalf("submit poke: %v", err)
	}
	out, ok := protocol.DecodeEffects(effects)
	if !ok || out.Kind != protocol.OutcomeAck {
		t.Fatalf("submit effects = %+v", out)
	}
	return out.ID
}

func TestPokeBeforeInit(t *testing.T) {
	k := NewMemory(zap.NewNop())
	if _, err := k.Poke(context.Background(), protocol.ListCause()); err == nil {
		t.Fatal("expected error when poked before init")
	}
}

func TestSubmitAssignsMonotonicIDs(t *testing.T) {
	k := bootedKernel(t)

	if id := submitOne(t, k, "alice"); id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	if id := submitOne(t, k, "bob"); id != 2 {
		t.Errorf("second id = %d, want 2", id)
	}
}

func TestGetRoundTrip(t *testing.T) {
	k := bootedKernel(t)
	id := submitOne(t, k, "alice")

	effects, err := k.Poke(context.Background(), protocol.GetCause(id))
	if err != nil {
		t.Fatalf("get poke: %v", err)
	}
	out, ok := protocol.DecodeEffects(effects)
	if !ok || out.Kind != protocol.OutcomeRecord {
		t.Fatalf("get effects = %+v", out)
	}

	rec := out.Record
	if rec.ID != id || rec.Proof != "cHJvb2Y=" || rec.Submitter != "alice" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Status != protocol.StatusPending {
		t.Errorf("status = %q, want pending", rec.Status)
	}
	if len(rec.PublicInputs) != 2 || rec.PublicInputs[0] != "1" || rec.PublicInputs[1] != "2" {
		t.Errorf("public inputs = %v", rec.PublicInputs)
	}
	if rec.Submitted == "" {
		t.Error("submitted timestamp is empty")
	}
}

func TestGetUnknownIDIsRejection(t *testing.T) {
	k := bootedKernel(t)

	_, err := k.Poke(context.Background(), protocol.GetCause(999999))
	if !errors.Is(err, bridge.ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
}

func TestListEmptyAndOrdered(t *testing.T) {
	k := bootedKernel(t)

	effects, err := k.Poke(context.Background(), protocol.ListCause())
	if err != nil {
		t.Fatalf("list poke: %v", err)
	}
	out, ok := protocol.DecodeEffects(effects)
	if !ok || out.Kind != protocol.OutcomeList || out.Total != 0 {
		t.Fatalf("empty list effects = %+v", out)
	}

	submitOne(t, k, "alice")
	submitOne(t, k, "bob")
	submitOne(t, k, "carol")

	effects, err = k.Poke(context.Background(), protocol.ListCause())
	if err != nil {
		t.Fatalf("list poke: %v", err)
	}
	out, ok = protocol.DecodeEffects(effects)
	if !ok || out.Total != 3 {
		t.Fatalf("list effects = %+v", out)
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if out.Summaries[i].Submitter != want {
			t.Errorf("summary %d submitter = %q, want %q", i, out.Summaries[i].Submitter, want)
		}
		if out.Summaries[i].ID != uint64(i+1) {
			t.Errorf("summary %d id = %d, want %d", i, out.Summaries[i].ID, i+1)
		}
	}
}

func TestDeleteThenGet(t *testing.T) {
	k := bootedKernel(t)
	id := submitOne(t, k, "alice")

	effects, err := k.Poke(context.Background(), protocol.DeleteCause(id))
	if err != nil {
		t.Fatalf("delete poke: %v", err)
	}
	out, ok := protocol.DecodeEffects(effects)
	if !ok || out.Kind != protocol.OutcomeGone || out.ID != id {
		t.Fatalf("delete effects = %+v", out)
	}

	if _, err := k.Poke(context.Background(), protocol.GetCause(id)); !errors.Is(err, bridge.ErrRejected) {
		t.Fatalf("get after delete = %v, want ErrRejected", err)
	}
}

func TestDeleteUnknownIDIsRejection(t *testing.T) {
	k := bootedKernel(t)
	if _, err := k.Poke(context.Background(), protocol.DeleteCause(4)); !errors.Is(err, bridge.ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
}

func TestUnknownCauseTagIsRejection(t *testing.T) {
	k := bootedKernel(t)
	if _, err := k.Poke(context.Background(), noun.FromText("reticulate-splines")); !errors.Is(err, bridge.ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
}
