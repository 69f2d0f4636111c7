package tlsutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/errors"
)

// writeTestCert writes a self-signed localhost certificate and its key.
func writeTestCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"LiveWeave Test"}, CommonName: "localhost"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0o644))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}), 0o600))
	return certFile, keyFile
}

func TestLoadClientConfig(t *testing.T) {
	certFile, keyFile := writeTestCert(t)
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not pem"), 0o644))

	tests := []struct {
		name    string
		cfg     ClientConfig
		wantNil bool
		wantErr error
		check   func(*testing.T, *tls.Config)
	}{
		{name: "zero keeps defaults", cfg: ClientConfig{}, wantNil: true},
		{
			name: "additional CA",
			cfg:  ClientConfig{CAFiles: []string{certFile}},
			check: func(t *testing.T, c *tls.Config) {
				assert.NotNil(t, c.RootCAs)
				assert.Equal(t, uint16(tls.VersionTLS12), c.MinVersion)
				assert.False(t, c.InsecureSkipVerify)
			},
		},
		{
			name: "TLS 1.3",
			cfg:  ClientConfig{MinVersion: "1.3"},
			check: func(t *testing.T, c *tls.Config) {
				assert.Equal(t, uint16(tls.VersionTLS13), c.MinVersion)
			},
		},
		{
			name: "insecure",
			cfg:  ClientConfig{InsecureSkipVerify: true},
			check: func(t *testing.T, c *tls.Config) {
				assert.True(t, c.InsecureSkipVerify)
			},
		},
		{
			name: "client certificate",
			cfg:  ClientConfig{CertFile: certFile, KeyFile: keyFile},
			check: func(t *testing.T, c *tls.Config) {
				assert.Len(t, c.Certificates, 1)
			},
		},
		{name: "missing CA", cfg: ClientConfig{CAFiles: []string{"/nonexistent/ca.pem"}}},
		{name: "bad PEM", cfg: ClientConfig{CAFiles: []string{garbage}}},
		{name: "bad version", cfg: ClientConfig{MinVersion: "1.0"}, wantErr: errors.ErrInvalidConfig},
		{name: "cert without key", cfg: ClientConfig{CertFile: certFile}, wantErr: errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadClientConfig(tt.cfg)
			switch {
			case tt.wantNil:
				require.NoError(t, err)
				assert.Nil(t, got)
			case tt.check != nil:
				require.NoError(t, err)
				require.NotNil(t, got)
				tt.check(t, got)
			default:
				require.Error(t, err)
				assert.Nil(t, got)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			}
		})
	}
}

func TestLoadClientConfig_TrustsAdditionalCA(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	caFile := filepath.Join(t.TempDir(), "server.pem")
	require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: ts.Certificate().Raw,
	}), 0o644))

	untrusted, err := LoadClientConfig(ClientConfig{MinVersion: "1.2"})
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: untrusted}}
	_, err = client.Get(ts.URL)
	assert.Error(t, err, "test server certificate is not in the system pool")

	trusted, err := LoadClientConfig(ClientConfig{CAFiles: []string{caFile}})
	require.NoError(t, err)
	client = &http.Client{Transport: &http.Transport{TLSClientConfig: trusted}}
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClientConfig_IsZero(t *testing.T) {
	assert.True(t, ClientConfig{}.IsZero())
	assert.False(t, ClientConfig{MinVersion: "1.3"}.IsZero())
	assert.False(t, ClientConfig{CAFiles: []string{"a"}}.IsZero())
}
