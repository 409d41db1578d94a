// Package rest is the client of the job API.
package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	kprof "github.com/opst/jobtracker/cmd/jobctl/config/profiles"
	"github.com/opst/jobtracker/pkg/tracker"
)

// JobClient talks with the job API.
//
// It is what tracker.Tracker needs as its client.
type JobClient interface {
	tracker.Client
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

var _ JobClient = &client{}

// NewClient creates a client for the profile.
//
// It returns an error when the profile is invalid, or its token has been expired.
func NewClient(prof *kprof.JobProfile) (JobClient, error) {
	httpclient, err := HTTPClient(prof)
	if err != nil {
		return nil, err
	}

	return &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
	}, nil
}

// HTTPClient creates http.Client trusting the CA certificate of the profile.
//
// It returns an error when the profile is invalid, or its token has been expired.
func HTTPClient(prof *kprof.JobProfile) (*http.Client, error) {
	if err := prof.Verify(time.Now()); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)
	if prof.Cert.CA == "" {
		return httpclient, nil
	}
	return trustCa(httpclient, []string{prof.Cert.CA})
}

// build URL with path. Each element is escaped as a path segment.
func (c *client) apipath(path ...string) string {
	segments := []string{c.api}
	for _, p := range path {
		segments = append(segments, url.PathEscape(strings.Trim(p, "/")))
	}
	return strings.Join(segments, "/")
}

// get sends GET request to the path under the api root, with the Authorization header.
func (c *client) get(ctx context.Context, accept string, path ...string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath(path...), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpclient.Do(req)
}

var systemCertPool = x509.SystemCertPool

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		// the profile's CA is trusted in addition to system roots.
		if sys, err := systemCertPool(); err == nil && sys != nil {
			rootcas = sys
		} else {
			rootcas = x509.NewCertPool()
		}
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
