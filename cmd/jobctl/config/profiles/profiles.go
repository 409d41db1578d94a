// Package profiles is the store of connection settings for the job API.
package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/jobtracker/cmd/jobctl/config/open"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrProfileInvalid = errors.New("job profile is invalid")
var ErrTokenExpired = errors.New("token is expired")

// ProfileStore maps profile names to profiles.
type ProfileStore map[string]*JobProfile

type Cert struct {
	// base64 encoded CA certificate (PEM)
	CA string `yaml:"ca,omitempty"`
}

// JobProfile tells how to reach the job API.
type JobProfile struct {
	// root URL of the job API, like https://console.example.com/api
	ApiRoot string `yaml:"apiRoot"`

	Cert Cert `yaml:"cert,omitempty"`

	// bearer token. Empty for API without authentication.
	Token string `yaml:"token,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Hostname() != ""
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// TokenExpiry returns the expiry ("exp" claim) of the token, if it is a JWT having that.
//
// The signature is not verified; that is the job of the job API.
// Tokens which are not JWT are opaque, and reported as having no expiry.
func (p *JobProfile) TokenExpiry() (time.Time, bool) {
	if p.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Verify JobProfile.
//
// It returns ErrProfileInvalid when it is broken,
// or ErrTokenExpired when the token has been expired at now.
func (p *JobProfile) Verify(now time.Time) error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	if exp, ok := p.TokenExpiry(); ok && !now.Before(exp) {
		return fmt.Errorf("%w at %s. Ask your admin for a new one", ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}

// LoadProfileStore loads profile store from the file.
func LoadProfileStore(path string) (ProfileStore, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, path)
		}
		return nil, err
	}
	return Unmarshall(buf)
}

// Unmarshall profile store from yaml.
func Unmarshall(buf []byte) (ProfileStore, error) {
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to the file.
//
// The file before saving, if any, is kept as path + ".backup" .
// Both files are readable only for the current user.
func (ps ProfileStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	if current, err := os.Open(path); err == nil {
		defer current.Close()
		bk, err := open.NewSafeFile(path + ".backup")
		if err != nil {
			return err
		}
		defer bk.Close()
		if _, err := io.Copy(bk, current); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	return open.Replace(path, buf)
}
