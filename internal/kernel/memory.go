// Package kernel provides a reference implementation of the ledger kernel
// the gateway bridges to. Memory interprets cause nouns against in-process
// state and emits the effect shapes the protocol package decodes. It is
// primarily useful for testing and for single-process deployments; a real
// deployment swaps in an external kernel behind the same bridge.Kernel
// interface.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/proofmesh/snarkgate/internal/bridge"
	"github.com/proofmesh/snarkgate/internal/noun"
	"github.com/proofmesh/snarkgate/internal/protocol"
	"go.uber.org/zap"
)

// submitArity is the field count of a submit cause after the tag.
const submitArity = 6

// Memory is an in-memory, thread-safe ledger kernel.
type Memory struct {
	mu      sync.Mutex
	booted  bool
	nextID  uint64
	records map[uint64]*protocol.Record
	logger  *zap.Logger
}

// NewMemory creates an empty in-memory kernel. Ids are monotonic and start
// at 1.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		nextID:  1,
		records: make(map[uint64]*protocol.Record),
		logger:  logger,
	}
}

// Poke implements bridge.Kernel. It interprets a single cause noun and
// returns the resulting effects. Unknown ids and unintelligible causes are
// kernel rejections; they wrap bridge.ErrRejected.
func (k *Memory) Poke(ctx context.Context, cause noun.Noun) ([]noun.Noun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	tag, data, err := splitCause(cause)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrRejected, err)
	}

	if !k.booted && tag != protocol.TagInit {
		return nil, errors.New("kernel: poked before init")
	}

	switch tag {
	case protocol.TagInit:
		k.booted = true
		k.logger.Info("kernel booted")
		return nil, nil
	case protocol.TagSubmit:
		return k.submit(data)
	case protocol.TagGet:
		return k.get(data)
	case protocol.TagList:
		return k.list()
	case protocol.TagDelete:
		return k.delete(data)
	default:
		return nil, fmt.Errorf("%w: unknown cause tag %q", bridge.ErrRejected, tag)
	}
}

// splitCause separates a cause noun into its tag and data. Bare atom causes
// (%init, %list-snarks) have nil data.
func splitCause(cause noun.Noun) (string, noun.Noun, error) {
	switch v := cause.(type) {
	case noun.Atom:
		tag, err := noun.Text(v)
		if err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	case noun.Cell:
		tag, err := noun.Text(v.Head)
		if err != nil {
			return "", nil, err
		}
		return tag, v.Tail, nil
	default:
		return "", nil, fmt.Errorf("unknown noun type %T", cause)
	}
}

func (k *Memory) submit(data noun.Noun) ([]noun.Noun, error) {
	fields, err := noun.Untuple(data, submitArity)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed submit cause: %v", bridge.ErrRejected, err)
	}

	rec := &protocol.Record{
		Submitted: time.Now().UTC().Format(time.RFC3339),
		Status:    protocol.StatusPending,
	}
	if rec.Proof, err = noun.Text(fields[0]); err != nil {
		return nil, fmt.Errorf("%w: proof: %v", bridge.ErrRejected, err)
	}
	if rec.PublicInputs, err = noun.TextList(fields[1]); err != nil {
		return nil, fmt.Errorf("%w: public inputs: %v", bridge.ErrRejected, err)
	}
	if rec.VerificationKey, err = noun.Text(fields[2]); err != nil {
		return nil, fmt.Errorf("%w: verification key: %v", bridge.ErrRejected, err)
	}
	if rec.ProofSystem, err = noun.Text(fields[3]); err != nil {
		return nil, fmt.Errorf("%w: proof system: %v", bridge.ErrRejected, err)
	}
	if rec.Submitter, err = noun.Text(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: submitter: %v", bridge.ErrRejected, err)
	}
	if rec.Notes, err = noun.Text(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: notes: %v", bridge.ErrRejected, err)
	}

	rec.ID = k.nextID
	k.nextID++
	k.records[rec.ID] = rec

	k.logger.Info("snark submitted",
		zap.Uint64("id", rec.ID),
		zap.String("proof_system", rec.ProofSystem),
		zap.String("submitter", rec.Submitter),
	)
	return []noun.Noun{protocol.AckEffect(rec.ID)}, nil
}

func (k *Memory) get(data noun.Noun) ([]noun.Noun, error) {
	id, err := noun.Uint64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed get cause: %v", bridge.ErrRejected, err)
	}
	rec, ok := k.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: snark %d not found", bridge.ErrRejected, id)
	}
	return []noun.Noun{protocol.RecordEffect(rec)}, nil
}

func (k *Memory) list() ([]noun.Noun, error) {
	ids := make([]uint64, 0, len(k.records))
	for id := range k.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]protocol.Summary, len(ids))
	for i, id := range ids {
		rec := k.records[id]
		summaries[i] = protocol.Summary{
			ID:          rec.ID,
			ProofSystem: rec.ProofSystem,
			Submitter:   rec.Submitter,
			Submitted:   rec.Submitted,
			Status:      rec.Status,
			Notes:       rec.Notes,
		}
	}
	return []noun.Noun{protocol.ListEffect(summaries)}, nil
}

func (k *Memory) delete(data noun.Noun) ([]noun.Noun, error) {
	id, err := noun.Uint64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed delete cause: %v", bridge.ErrRejected, err)
	}
	if _, ok := k.records[id]; !ok {
		return nil, fmt.Errorf("%w: snark %d not found", bridge.ErrRejected, id)
	}
	delete(k.records, id)

	k.logger.Info("snark deleted", zap.Uint64("id", id))
	return []noun.Noun{protocol.GoneEffect(id)}, nil
}
