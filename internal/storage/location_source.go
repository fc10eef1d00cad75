package storage

import (
	"context"
	"time"

	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/retry"
)

// LocationLister is the query LocationSource needs; *LocationStore
// implements it.
type LocationLister interface {
	ListEnabled(ctx context.Context) ([]LocationRow, error)
}

// LocationSource reads external roots from the storage_locations table.
type LocationSource struct {
	Internal string
	Store    LocationLister
	// FS answers existence checks; nil means the OS.
	FS hostfs.FS
	// Timeout bounds one enumeration; 0 means 5s.
	Timeout time.Duration
	// Retry applies to failed queries; zero value means retry.DefaultPolicy.
	Retry retry.Policy
}

func (l *LocationSource) host() hostfs.FS {
	if l.FS == nil {
		return hostfs.NewOS()
	}
	return l.FS
}

func (l *LocationSource) InternalRoot() string {
	return l.Internal
}

// ExternalRoots lists enabled locations. Rows whose path is not a directory
// are reported unavailable; a failed query reports no externals.
func (l *LocationSource) ExternalRoots() []string {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	policy := l.Retry
	if policy.MaxAttempts == 0 && policy.InitialWait == 0 {
		policy = retry.DefaultPolicy()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rows, err := retry.DoValue(ctx, policy, func() ([]LocationRow, error) {
		rows, err := l.Store.ListEnabled(ctx)
		if err != nil && !isUndefinedTable(err) {
			return nil, retry.Transient(err)
		}
		return rows, err
	})
	if err != nil {
		if isUndefinedTable(err) {
			logging.Warn("storage_locations table missing; no external roots")
		} else {
			logging.Error("listing storage locations failed", logging.Err(err))
		}
		return nil
	}

	host := l.host()
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if !hostfs.IsDir(host, row.Path) {
			logging.Debug("storage location unavailable",
				logging.String("name", row.Name), logging.Path(row.Path))
			out = append(out, "")
			continue
		}
		out = append(out, row.Path)
	}
	return out
}
