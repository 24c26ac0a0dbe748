package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConfig = "confgate/config/v1"
	DomainSchema = "confgate/schema/v1"
)

// configNamespace is the UUID namespace for configuration IDs.
var configNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/confgate/config"))

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content hash of a resolved configuration.
// Identical inputs always produce identical fingerprints.
func Fingerprint(cfg *EffectiveConfig) (string, error) {
	canonical, err := cfg.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// ConfigID returns a name-based (v5) UUID for a resolved configuration.
// Unlike random UUIDs it is stable across runs, so it can be embedded in
// generated artifacts without breaking reproducible builds.
func ConfigID(cfg *EffectiveConfig) (string, error) {
	canonical, err := cfg.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("ConfigID: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(configNamespace, canonical).String(), nil
}

// SchemaHash computes the content hash of a compiled schema's option names,
// predicates and rules (descriptions excluded).
func SchemaHash(s *Schema) (string, error) {
	opts := make(IRArray, len(s.Options))
	for i, o := range s.Options {
		defaults := make(IRArray, len(o.Defaults))
		for j, d := range o.Defaults {
			defaults[j] = IRObject{"when": IRString(PredicateString(d.When)), "value": d.Value.ToIRValue()}
		}
		constraints := make(IRArray, len(o.Constraints))
		for j, c := range o.Constraints {
			constraints[j] = IRObject{
				"when":   IRString(PredicateString(c.When)),
				"kind":   IRString(c.Validator.Kind),
				"values": Strings(c.Validator.Values),
				"min":    IRInt(c.Validator.Min),
				"max":    IRInt(c.Validator.Max),
			}
		}
		opts[i] = IRObject{
			"name":        IRString(o.Name),
			"stability":   IRString(o.Stability),
			"active":      IRString(PredicateString(o.Active)),
			"defaults":    defaults,
			"constraints": constraints,
		}
	}
	canonical, err := MarshalCanonical(IRObject{
		"crate":   IRString(s.Crate),
		"prefix":  IRString(s.Prefix),
		"options": opts,
	})
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(cfg *EffectiveConfig) string {
	fp, err := Fingerprint(cfg)
	if err != nil {
		panic(err)
	}
	return fp
}
