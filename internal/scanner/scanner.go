// Package scanner defines the detection-engine collaborators that turn file
// content into a ScanFinding.
package scanner

import (
	"context"
	"io"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/fingerprint"
)

// Target is the content handed to a scanner. Open may be called more than
// once; each call returns an independent reader.
type Target struct {
	Name        string
	Fingerprint fingerprint.Fingerprint
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Scanner produces a finding for one file. Kind is stored as the scan type.
type Scanner interface {
	Kind() string
	Scan(ctx context.Context, target Target) (entities.ScanFinding, error)
}
