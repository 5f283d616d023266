/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package grpc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	devCertValidity = 24 * time.Hour
	certFilePerms   = 0600
)

// Files written by GenerateDevCertificates.
const (
	DevCAFile         = "root.pem"
	DevServerCertFile = "server.pem"
	DevServerKeyFile  = "server-key.pem"
	DevClientCertFile = "client.pem"
	DevClientKeyFile  = "client-key.pem"
)

type issued struct {
	key  *ecdsa.PrivateKey
	cert *x509.Certificate
	der  []byte
}

// GenerateDevCertificates writes a throwaway CA plus server and client pairs
// into dir for exercising mTLS mode. The server certificate covers localhost
// and any extra hosts.
func GenerateDevCertificates(dir string, hosts ...string) error {
	ca, err := issue(&x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"discovery-handler dev CA"}},
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}, nil)
	if err != nil {
		return err
	}

	server := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "discovery-handler"},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			server.IPAddresses = append(server.IPAddresses, ip)
		} else {
			server.DNSNames = append(server.DNSNames, h)
		}
	}

	srv, err := issue(server, ca)
	if err != nil {
		return err
	}

	cli, err := issue(&x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "akri-agent"},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, ca)
	if err != nil {
		return err
	}

	if err := writePEM(filepath.Join(dir, DevCAFile), "CERTIFICATE", ca.der); err != nil {
		return err
	}

	for _, pair := range []struct {
		certFile, keyFile string
		cert              *issued
	}{
		{DevServerCertFile, DevServerKeyFile, srv},
		{DevClientCertFile, DevClientKeyFile, cli},
	} {
		if err := writePEM(filepath.Join(dir, pair.certFile), "CERTIFICATE", pair.cert.der); err != nil {
			return err
		}

		keyDER, err := x509.MarshalECPrivateKey(pair.cert.key)
		if err != nil {
			return err
		}

		if err := writePEM(filepath.Join(dir, pair.keyFile), "EC PRIVATE KEY", keyDER); err != nil {
			return err
		}
	}

	return nil
}

// issue signs template with parent, or self-signs when parent is nil.
func issue(template *x509.Certificate, parent *issued) (*issued, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	template.NotBefore = time.Now().Add(-time.Minute)
	template.NotAfter = time.Now().Add(devCertValidity)

	signer, signerCert := key, template
	if parent != nil {
		signer, signerCert = parent.key, parent.cert
	}

	der, err := x509.CreateCertificate(rand.Reader, template, signerCert, &key.PublicKey, signer)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}

	return &issued{key: key, cert: cert, der: der}, nil
}

func writePEM(path, blockType string, der []byte) error {
	return os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), certFilePerms)
}
