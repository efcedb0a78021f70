package protocol

import "github.com/proofmesh/snarkgate/internal/noun"

// Effect tags. Every recognized effect is a cell whose head is one of these
// text atoms.
const (
	EffectAck    = "snark-ack"
	EffectRecord = "snark"
	EffectList   = "snark-list"
	EffectGone   = "snark-gone"
	EffectErr    = "snark-err"
)

// OutcomeKind discriminates the typed outcomes decoded from effects.
type OutcomeKind int

const (
	// OutcomeAck — submission accepted, ID carries the assigned id.
	OutcomeAck OutcomeKind = iota
	// OutcomeRecord — full submission record in Record.
	OutcomeRecord
	// OutcomeList — summaries in Summaries, Total carries the count.
	OutcomeList
	// OutcomeGone — deletion acknowledged, ID carries the removed id.
	OutcomeGone
	// OutcomeErr — kernel-reported request error in Err.
	OutcomeErr
)

// Outcome is the typed result of decoding a kernel effect.
type Outcome struct {
	Kind      OutcomeKind
	ID        uint64
	Record    *Record
	Summaries []Summary
	Total     uint64
	Err       string
}

// Record is the full view of a submission as the kernel reports it.
type Record struct {
	ID              uint64
	Proof           string
	PublicInputs    []string
	VerificationKey string
	ProofSystem     string
	Submitter       string
	Submitted       string
	Status          string
	ErrorMessage    string
	Notes           string
}

// Summary is the abbreviated list-view of a submission.
type Summary struct {
	ID          uint64
	ProofSystem string
	Submitter   string
	Submitted   string
	Status      string
	Notes       string
}

// recordArity is the field count of a %snark record effect after the tag.
const recordArity = 10

// summaryArity is the field count of one list-view summary tuple.
const summaryArity = 6

// DecodeEffects scans the effect stream in order and returns the first
// effect matching a recognized shape. It returns (nil, false) when nothing
// matches, which callers must treat as "fall back to a generic response
// derived from the dispatch's own success". Decoding is total: malformed
// and unrecognized effects are skipped, never a panic.
func DecodeEffects(effects []noun.Noun) (*Outcome, bool) {
	for _, e := range effects {
		if out := decodeEffect(e); out != nil {
			return out, true
		}
	}
	return nil, false
}

// decodeEffect interprets one effect noun, or returns nil if its shape is
// not recognized.
func decodeEffect(n noun.Noun) *Outcome {
	c, ok := n.(noun.Cell)
	if !ok {
		return nil
	}
	tag, err := noun.Text(c.Head)
	if err != nil {
		return nil
	}

	switch tag {
	case EffectAck:
		id, err := noun.Uint64(c.Tail)
		if err != nil {
			return nil
		}
		return &Outcome{Kind: OutcomeAck, ID: id}

	case EffectGone:
		id, err := noun.Uint64(c.Tail)
		if err != nil {
			return nil
		}
		return &Outcome{Kind: OutcomeGone, ID: id}

	case EffectErr:
		msg, err := noun.Text(c.Tail)
		if err != nil {
			return nil
		}
		return &Outcome{Kind: OutcomeErr, Err: msg}

	case EffectRecord:
		rec, err := decodeRecord(c.Tail)
		if err != nil {
			return nil
		}
		return &Outcome{Kind: OutcomeRecord, ID: rec.ID, Record: rec}

	case EffectList:
		out, err := decodeList(c.Tail)
		if err != nil {
			return nil
		}
		return out

	default:
		return nil
	}
}

// decodeRecord decodes the tail of a %snark effect:
// [id proof inputs vk system submitter submitted status errmsg notes].
func decodeRecord(n noun.Noun) (*Record, error) {
	fields, err := noun.Untuple(n, recordArity)
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	if rec.ID, err = noun.Uint64(fields[0]); err != nil {
		return nil, err
	}
	if rec.Proof, err = noun.Text(fields[1]); err != nil {
		return nil, err
	}
	if rec.PublicInputs, err = noun.TextList(fields[2]); err != nil {
		return nil, err
	}
	if rec.VerificationKey, err = noun.Text(fields[3]); err != nil {
		return nil, err
	}
	if rec.ProofSystem, err = noun.Text(fields[4]); err != nil {
		return nil, err
	}
	if rec.Submitter, err = noun.Text(fields[5]); err != nil {
		return nil, err
	}
	if rec.Submitted, err = noun.Text(fields[6]); err != nil {
		return nil, err
	}
	if rec.Status, err = noun.Text(fields[7]); err != nil {
		return nil, err
	}
	if rec.ErrorMessage, err = noun.Text(fields[8]); err != nil {
		return nil, err
	}
	if rec.Notes, err = noun.Text(fields[9]); err != nil {
		return nil, err
	}
	return rec, nil
}

// decodeList decodes the tail of a %snark-list effect: [total summaries]
// where summaries is a zero-terminated list of summary tuples.
func decodeList(n noun.Noun) (*Outcome, error) {
	parts, err := noun.Untuple(n, 2)
	if err != nil {
		return nil, err
	}
	total, err := noun.Uint64(parts[0])
	if err != nil {
		return nil, err
	}
	elems, err := noun.Slice(parts[1])
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(elems))
	for _, e := range elems {
		s, err := decodeSummary(e)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	return &Outcome{Kind: OutcomeList, Summaries: summaries, Total: total}, nil
}

// decodeSummary decodes one [id system submitter submitted status notes] tuple.
func decodeSummary(n noun.Noun) (*Summary, error) {
	fields, err := noun.Untuple(n, summaryArity)
	if err != nil {
		return nil, err
	}

	s := &Summary{}
	if s.ID, err = noun.Uint64(fields[0]); err != nil {
		return nil, err
	}
	if s.ProofSystem, err = noun.Text(fields[1]); err != nil {
		return nil, err
	}
	if s.Submitter, err = noun.Text(fields[2]); err != nil {
		return nil, err
	}
	if s.Submitted, err = noun.Text(fields[3]); err != nil {
		return nil, err
	}
	if s.Status, err = noun.Text(fields[4]); err != nil {
		return nil, err
	}
	if s.Notes, err = noun.Text(fields[5]); err != nil {
		return nil, err
	}
	return s, nil
}

// AckEffect builds [%snark-ack id]. Effect constructors are used by kernel
// implementations; the gateway itself only decodes.
func AckEffect(id uint64) noun.Noun {
	return noun.Cell{Head: noun.FromText(EffectAck), Tail: noun.FromUint64(id)}
}

// GoneEffect builds [%snark-gone id].
func GoneEffect(id uint64) noun.Noun {
	return noun.Cell{Head: noun.FromText(EffectGone), Tail: noun.FromUint64(id)}
}

// ErrEffect builds [%snark-err msg].
func ErrEffect(msg string) noun.Noun {
	return noun.Cell{Head: noun.FromText(EffectErr), Tail: noun.FromText(msg)}
}

// RecordEffect builds the full %snark record effect for rec.
func RecordEffect(rec *Record) noun.Noun {
	return noun.Tuple(
		noun.FromText(EffectRecord),
		noun.FromUint64(rec.ID),
		noun.FromText(rec.Proof),
		noun.FromTextList(rec.PublicInputs),
		noun.FromText(rec.VerificationKey),
		noun.FromText(rec.ProofSystem),
		noun.FromText(rec.Submitter),
		noun.FromText(rec.Submitted),
		noun.FromText(rec.Status),
		noun.FromText(rec.ErrorMessage),
		noun.FromText(rec.Notes),
	)
}

// ListEffect builds [%snark-list total summaries].
func ListEffect(summaries []Summary) noun.Noun {
	elems := make([]noun.Noun, len(summaries))
	for i, s := range summaries {
		elems[i] = noun.Tuple(
			noun.FromUint64(s.ID),
			noun.FromText(s.ProofSystem),
			noun.FromText(s.Submitter),
			noun.FromText(s.Submitted),
			noun.FromText(s.Status),
			noun.FromText(s.Notes),
		)
	}
	return noun.Tuple(
		noun.FromText(EffectList),
		noun.FromUint64(uint64(len(summaries))),
		noun.List(elems...),
	)
}
