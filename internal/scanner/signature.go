package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/fingerprint"
)

// EICAR is the standard antivirus test file
const EICAR = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// Rule is a byte pattern that identifies a threat
type Rule struct {
	Pattern    []byte
	ThreatName string
	ThreatType string
	Severity   int
}

// DefaultRules detect the EICAR test string
var DefaultRules = []Rule{{
	Pattern:    []byte(EICAR[:36]),
	ThreatName: "Eicar-Test-Signature",
	ThreatType: "test",
	Severity:   8,
}}

// Signature searches content for byte patterns. It is deterministic: the same
// content always yields the same finding apart from its duration.
type Signature struct {
	rules   []Rule
	overlap int
	now     func() time.Time
}

// NewSignature builds a scanner over rules, DefaultRules when none are given
func NewSignature(rules ...Rule) *Signature {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	overlap := 0
	for _, r := range rules {
		if len(r.Pattern)-1 > overlap {
			overlap = len(r.Pattern) - 1
		}
	}
	return &Signature{rules: rules, overlap: overlap, now: time.Now}
}

func (s *Signature) Kind() string { return "signature" }

// Scan streams the target in fixed chunks, keeping a tail of the previous
// chunk so a pattern split across a chunk boundary is still found
func (s *Signature) Scan(ctx context.Context, target Target) (entities.ScanFinding, error) {
	start := s.now()

	rc, err := target.Open()
	if err != nil {
		return entities.ScanFinding{}, fmt.Errorf("signature: open %s: %w", target.Name, err)
	}
	defer rc.Close()

	matched := make([]bool, len(s.rules))
	buf := make([]byte, 0, fingerprint.ChunkSize+s.overlap)
	chunk := make([]byte, fingerprint.ChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return entities.ScanFinding{}, err
		}

		n, err := rc.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for i, r := range s.rules {
				if !matched[i] && bytes.Contains(buf, r.Pattern) {
					matched[i] = true
				}
			}
			if len(buf) > s.overlap {
				buf = append(buf[:0], buf[len(buf)-s.overlap:]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return entities.ScanFinding{}, fmt.Errorf("signature: read %s: %w", target.Name, err)
		}
	}

	finding := entities.ScanFinding{Detections: []entities.DetectionInput{}}
	for i, r := range s.rules {
		if !matched[i] {
			continue
		}
		finding.Detections = append(finding.Detections, entities.DetectionInput{
			ThreatName: r.ThreatName,
			ThreatType: r.ThreatType,
			Severity:   r.Severity,
			EngineName: s.Kind(),
			Confidence: 1,
		})
		if r.Severity > finding.ThreatLevel {
			finding.ThreatLevel = r.Severity
		}
	}
	finding.DurationSeconds = s.now().Sub(start).Seconds()
	return finding, nil
}
