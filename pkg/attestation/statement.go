package attestation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/pkg/errors"
)

// checkBinding validates that an attestation is bound to the given digest
// and carries the required predicate type. For in-toto payloads the
// statement subject is authoritative; a plain signature relies on the
// digest the source reported it for.
func checkBinding(att Attestation, digest, requiredPredicate string) error {
	if requiredPredicate == "" {
		if att.PredicateType != "" {
			return fmt.Errorf("expected a plain signature, got predicate %s", att.PredicateType)
		}
		if att.Digest != digest {
			return fmt.Errorf("attestation bound to digest %s, not %s", att.Digest, digest)
		}
		return nil
	}

	statement, err := decodeStatement(att.Payload)
	if err != nil {
		return err
	}
	if statement.PredicateType != requiredPredicate {
		return fmt.Errorf("predicate type mismatch: expected %s, got %s", requiredPredicate, statement.PredicateType)
	}
	if !statementMatchesDigest(statement, digest) {
		return fmt.Errorf("statement subject does not match digest %s", digest)
	}
	return nil
}

func decodeStatement(payload []byte) (*in_toto.Statement, error) {
	var statement in_toto.Statement
	if err := json.Unmarshal(payload, &statement); err != nil {
		return nil, errors.Wrap(err, "failed to decode in-toto statement")
	}
	return &statement, nil
}

func statementMatchesDigest(statement *in_toto.Statement, digest string) bool {
	algorithm, value, found := strings.Cut(digest, ":")
	if !found {
		return false
	}
	for _, subject := range statement.Subject {
		if subject.Digest[algorithm] == value {
			return true
		}
	}
	return false
}
