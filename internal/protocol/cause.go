// Package protocol defines the cause/effect contract between the gateway and
// the ledger kernel: the five causes the gateway issues, the effect shapes
// the kernel emits, and the decoding of an effect stream into a typed
// outcome.
package protocol

import "github.com/proofmesh/snarkgate/internal/noun"

// Cause tags. Each tag is a text atom and is the head of the cause noun.
const (
	TagInit   = "init"
	TagSubmit = "submit-snark"
	TagGet    = "get-snark"
	TagList   = "list-snarks"
	TagDelete = "delete-snark"
)

// Submission statuses assigned by the kernel.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// SubmitFields carries the validated submission fields in the kernel's fixed
// positional order. The layout of the submit cause is a by-construction
// contract: the kernel reads fields by position, not by name.
type SubmitFields struct {
	Proof           string
	PublicInputs    []string
	VerificationKey string
	ProofSystem     string
	Submitter       string
	Notes           string
}

// SubmitCause builds [%submit-snark proof inputs vk system submitter notes].
func SubmitCause(f SubmitFields) noun.Noun {
	return noun.Tuple(
		noun.FromText(TagSubmit),
		noun.FromText(f.Proof),
		noun.FromTextList(f.PublicInputs),
		noun.FromText(f.VerificationKey),
		noun.FromText(f.ProofSystem),
		noun.FromText(f.Submitter),
		noun.FromText(f.Notes),
	)
}

// GetCause builds [%get-snark id].
func GetCause(id uint64) noun.Noun {
	return noun.Tuple(noun.FromText(TagGet), noun.FromUint64(id))
}

// ListCause builds the bare %list-snarks cause.
func ListCause() noun.Noun {
	return noun.FromText(TagList)
}

// DeleteCause builds [%delete-snark id].
func DeleteCause(id uint64) noun.Noun {
	return noun.Tuple(noun.FromText(TagDelete), noun.FromUint64(id))
}

// InitCause builds the bare %init cause, dispatched exactly once at startup.
func InitCause() noun.Noun {
	return noun.FromText(TagInit)
}
