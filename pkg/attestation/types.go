package attestation

import (
	"context"
	"time"
)

// Attestation is a signed statement bound to one image digest. Attestations
// are produced externally (signing pipelines, transparency logs) and fetched
// by a Source collaborator.
type Attestation struct {
	// Digest is the image digest the attestation is bound to. For in-toto
	// attestations the binding inside the statement subject is
	// authoritative and must agree.
	Digest string `json:"digest"`

	// PredicateType names the in-toto predicate carried by the payload,
	// e.g. `https://slsa.dev/provenance/v1`. Empty for a plain image
	// signature.
	PredicateType string `json:"predicateType,omitempty"`

	// Payload is the signed content: an in-toto statement for predicate
	// attestations, a simple signing payload for plain signatures.
	Payload []byte `json:"payload"`

	// Signature is the raw signature over Payload.
	Signature []byte `json:"signature"`

	// CertPEM is the PEM encoded signing certificate for keyless
	// signatures. Empty for key-based signatures.
	CertPEM []byte `json:"certPEM,omitempty"`

	// SigningTime is when the signature was produced, as reported by the
	// source.
	SigningTime time.Time `json:"signingTime,omitempty"`
}

// Source fetches the candidate attestations for an image digest.
// Implementations are supplied by a registry or transparency-log client;
// they own retries and must honor the context deadline.
type Source interface {
	Fetch(ctx context.Context, digest string) ([]Attestation, error)
}
