package attestation

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"strings"

	wildcard "github.com/IGLOU-EU/go-wildcard"
	"github.com/pkg/errors"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
)

// oidcIssuerOID is the Fulcio certificate extension carrying the OIDC
// issuer that vouched for the signing identity (1.3.6.1.4.1.57264.1.1).
var oidcIssuerOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 57264, 1, 1}

// verifySignatureWithKeys checks the attestation signature against each PEM
// encoded public key; any one key is sufficient.
func verifySignatureWithKeys(publicKeys string, att Attestation) error {
	keys := splitPEM(publicKeys)
	if len(keys) == 0 {
		return errors.New("no public keys in attestor")
	}
	var lastErr error
	for _, keyPEM := range keys {
		pub, err := cryptoutils.UnmarshalPEMToPublicKey([]byte(keyPEM))
		if err != nil {
			lastErr = errors.Wrap(err, "failed to parse public key")
			continue
		}
		verifier, err := signature.LoadVerifier(pub, crypto.SHA256)
		if err != nil {
			lastErr = errors.Wrap(err, "failed to load verifier")
			continue
		}
		if err := verifier.VerifySignature(bytes.NewReader(att.Signature), bytes.NewReader(att.Payload)); err != nil {
			lastErr = errors.Wrap(err, "signature mismatch")
			continue
		}
		return nil
	}
	return lastErr
}

// verifySignatureKeyless checks the attestation signature against the
// bundled certificate and matches the certificate identity against the
// attestor's subject and issuer.
func verifySignatureKeyless(keyless *v1alpha1.KeylessAttestor, att Attestation) error {
	if len(att.CertPEM) == 0 {
		return errors.New("no certificate in attestation")
	}
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM(att.CertPEM)
	if err != nil {
		return errors.Wrap(err, "failed to parse certificate")
	}
	if len(certs) == 0 {
		return errors.New("no certificate in attestation")
	}
	cert := certs[0]

	verifier, err := signature.LoadVerifier(cert.PublicKey, crypto.SHA256)
	if err != nil {
		return errors.Wrap(err, "failed to load verifier")
	}
	if err := verifier.VerifySignature(bytes.NewReader(att.Signature), bytes.NewReader(att.Payload)); err != nil {
		return errors.Wrap(err, "signature mismatch")
	}
	return matchSubjectAndIssuer(cert, keyless.Subject, keyless.Issuer)
}

func matchSubjectAndIssuer(cert *x509.Certificate, subject, issuer string) error {
	s := certSubject(cert)
	if !wildcard.Match(subject, s) {
		return fmt.Errorf("subject mismatch: expected %s, got %s", subject, s)
	}
	i := certIssuer(cert)
	if issuer != i {
		return fmt.Errorf("issuer mismatch: expected %s, got %s", issuer, i)
	}
	return nil
}

// certSubject returns the signing identity: the first subject alternative
// name present on the certificate.
func certSubject(cert *x509.Certificate) string {
	sans := cryptoutils.GetSubjectAlternateNames(cert)
	if len(sans) > 0 {
		return sans[0]
	}
	return ""
}

// certIssuer returns the OIDC issuer recorded in the Fulcio certificate
// extension.
func certIssuer(cert *x509.Certificate) string {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidcIssuerOID) {
			return string(ext.Value)
		}
	}
	return ""
}

// splitPEM splits a PEM block containing multiple keys into individual PEM
// encoded keys.
func splitPEM(pemBlock string) []string {
	var keys []string
	rest := []byte(strings.TrimSpace(pemBlock))
	for {
		block, remainder := pem.Decode(rest)
		if block == nil {
			break
		}
		keys = append(keys, string(pem.EncodeToMemory(block)))
		rest = remainder
	}
	return keys
}
