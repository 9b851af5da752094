package util

import (
	"crypto/x509"
	"net/http"

	"github.com/gwatts/rootcerts"
	"github.com/gwatts/rootcerts/certparse"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// certDownloadURL is overridable for tests.
var certDownloadURL = "https://github.com/mozilla/gecko-dev/blob/master/security/nss/lib/ckfw/builtins/certdata.txt?raw=true"

// LoadCACerts loads the certdata from Mozilla and parses it into a CertPool.
// When the download fails the embedded bundle is used instead, so startup
// never depends on github being reachable.
func LoadCACerts() (*x509.CertPool, error) {
	pool, err := downloadCACerts()

	if err != nil {
		log.WithError(err).Warning("Unable to download certdata, using embedded bundle")

		return rootcerts.ServerCertPool(), nil
	}

	return pool, nil
}

func downloadCACerts() (*x509.CertPool, error) {
	res, err := http.Get(certDownloadURL)

	if err != nil {
		return nil, errors.Wrap(err, "Unable to download certdata")
	}

	defer res.Body.Close()

	certs, err := certparse.ReadTrustedCerts(res.Body)

	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse certdata")
	}

	pool := x509.NewCertPool()

	for _, cert := range certs {
		if cert.Trust&certparse.ServerTrustedDelegator != 0 {
			pool.AddCert(cert.Cert)
		}
	}

	return pool, nil
}
