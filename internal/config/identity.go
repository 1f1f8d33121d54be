package config

import (
	"github.com/google/uuid"

	"github.com/danmuck/probectl/internal/logging"
)

// EnsureIdentity guarantees the document carries a persisted identity token.
// A missing token is generated once and the document is written back so the
// identity survives restarts. The token is immutable for the process
// lifetime.
func EnsureIdentity(path string, doc *Document) error {
	if doc.Identification.Token != "" {
		return nil
	}
	doc.Identification.Token = uuid.NewString()
	logging.Infof("config.EnsureIdentity generated identity token=%s", doc.Identification.Token)
	return Save(path, *doc)
}
