package rest

import (
	"crypto/x509"
	"testing"
)

// ReplaceSystemCertPool makes clients built in t see pool as system roots.
func ReplaceSystemCertPool(t *testing.T, pool func() (*x509.CertPool, error)) {
	orig := systemCertPool
	systemCertPool = pool
	t.Cleanup(func() { systemCertPool = orig })
}
