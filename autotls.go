package ember

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/indigo-web/ember/transport"
)

// AutoHTTPS attaches a TLS listener with automatically managed certificates:
// ACME-issued ones for real domains, a long-lived self-signed one for local
// addresses.
func (a *App) AutoHTTPS(addr string, domains ...string) *App {
	if isLocalAddr(addr) {
		certificate, err := selfSignedCert()
		if err != nil {
			a.fail(err)
			return a
		}

		return a.TLS(addr, certificate)
	}

	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
	}

	if len(domains) > 0 {
		m.HostPolicy = autocert.HostWhitelist(domains...)
	}

	if cache, err := certCacheDir(); err == nil {
		m.Cache = autocert.DirCache(cache)
	} else {
		log.Printf("WARNING: auto HTTPS: proceeding without a certificate cache: %s", err)
	}

	return a.Listen(addr, transport.NewTLSConfig(&tls.Config{
		GetCertificate: m.GetCertificate,
	}))
}

func isLocalAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	switch host {
	case "", "localhost", "0.0.0.0":
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

func certCacheDir() (string, error) {
	const base = "ember-autocert"

	dir := os.Getenv("XDG_CACHE_HOME")
	if len(dir) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		switch runtime.GOOS {
		case "darwin":
			dir = filepath.Join(home, "Library", "Caches")
		case "windows":
			dir = os.Getenv("APPDATA")
			if len(dir) == 0 {
				dir = home
			}
		default:
			dir = filepath.Join(home, ".cache")
		}
	}

	dir = filepath.Join(dir, base)

	return dir, os.MkdirAll(dir, 0o700)
}

// selfSignedCert issues an in-memory certificate for local development. No
// browser will trust it, which is fine for the purpose.
func selfSignedCert() (tls.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"ember self-signed"}},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	)
}
