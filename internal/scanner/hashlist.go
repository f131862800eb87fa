package scanner

import (
	"context"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/fingerprint"
)

// KnownThreat is a reputation entry for one exact content fingerprint
type KnownThreat struct {
	ThreatName string
	ThreatType string
	Severity   int
}

// EICARFingerprint is the SHA-256 of the 68-byte EICAR test file
const EICARFingerprint fingerprint.Fingerprint = "275a021bbfb6489e54d471899f7db9d1663fc695ec2fe2a2c4538aabf651fd0f"

// DefaultKnownThreats flags the EICAR test file by hash
var DefaultKnownThreats = map[fingerprint.Fingerprint]KnownThreat{
	EICARFingerprint: {ThreatName: "EICAR-Test-File", ThreatType: "test", Severity: 8},
}

// Hashlist is a reputation lookup keyed by content fingerprint. It never
// reads the content.
type Hashlist struct {
	known map[fingerprint.Fingerprint]KnownThreat
}

func NewHashlist(known map[fingerprint.Fingerprint]KnownThreat) *Hashlist {
	if known == nil {
		known = DefaultKnownThreats
	}
	return &Hashlist{known: known}
}

func (h *Hashlist) Kind() string { return "hashlist" }

func (h *Hashlist) Scan(ctx context.Context, target Target) (entities.ScanFinding, error) {
	start := time.Now()
	finding := entities.ScanFinding{Detections: []entities.DetectionInput{}}

	if t, ok := h.known[target.Fingerprint]; ok {
		finding.ThreatLevel = t.Severity
		finding.Detections = append(finding.Detections, entities.DetectionInput{
			ThreatName: t.ThreatName,
			ThreatType: t.ThreatType,
			Severity:   t.Severity,
			EngineName: h.Kind(),
			Confidence: 1,
			Details:    "exact fingerprint match",
		})
	}

	finding.DurationSeconds = time.Since(start).Seconds()
	return finding, ctx.Err()
}
