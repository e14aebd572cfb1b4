// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Command auxctl is a demonstration CLI wiring the auxiliary attestation
// core together: it provisions and inspects a single device's credential
// lifecycle against a configurable keystore/measurement-store backend, and
// drives the signature-verification capability against either a software
// key or an HSM reached over PKCS#11.
package main

import (
	"crypto/rsa"
	"crypto/x509"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lowRISC/aux-attestation-core/src/credential"
	"github.com/lowRISC/aux-attestation-core/src/keystore"
	"github.com/lowRISC/aux-attestation-core/src/logger"
	"github.com/lowRISC/aux-attestation-core/src/measurement"
	"github.com/lowRISC/aux-attestation-core/src/sigverify"
	"github.com/lowRISC/aux-attestation-core/src/utils"
)

var (
	configDir        = flag.String("config_dir", ".", "Directory containing the YAML configuration file")
	configFile       = flag.String("config_file", "", "YAML configuration filename, relative to -config_dir; selects backends")
	keystorePath     = flag.String("keystore", "", "Path to the sqlite keystore database, used when no -config_file selects a backend")
	logLevel         = flag.String("log_level", "info", "Logging verbosity: fatal|error|warn|info|debug|trace")
	certFile         = flag.String("cert", "", "Certificate filename for set-cert, resolved under -config_dir")
	outFile          = flag.String("out", "", "Destination file for get-cert; prints to stdout if empty")
	pemOut           = flag.Bool("pem", false, "Print/write the certificate as PEM instead of base64 DER")
	operatorPassword = flag.String("operator_password", "", "Operator password required for destructive operations when a config hash is set")
	version          = flag.Bool("version", false, "Print version information and exit")
)

const buildVersion = "aux-attestation-core/auxctl (development build)"

// Config selects the backends auxctl wires the credential and measurement
// capabilities against, and the operator-password hash gating destructive
// commands. The zero value is a valid configuration: a sqlite keystore at the
// -keystore path, no measurement backend, and no PKCS#11 or password gate.
type Config struct {
	Keystore struct {
		// Backend is "sqlite" or "memory".
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"keystore"`

	Measurement struct {
		// Backend is "etcd" or "memory".
		Backend       string   `yaml:"backend"`
		EtcdEndpoints []string `yaml:"etcd_endpoints"`
	} `yaml:"measurement"`

	PKCS11 struct {
		Enabled    bool   `yaml:"enabled"`
		ModulePath string `yaml:"module_path"`
		SlotID     int    `yaml:"slot_id"`
		KeyLabel   string `yaml:"key_label"`
	} `yaml:"pkcs11"`

	// OperatorPasswordHash is a bcrypt hash; when non-empty, erase and
	// verify-sig require a matching -operator_password.
	OperatorPasswordHash string `yaml:"operator_password_hash"`
}

func parseLogLevel(s string) (logger.LogLevel, error) {
	switch s {
	case "fatal":
		return logger.LogLevelFatal, nil
	case "error":
		return logger.LogLevelError, nil
	case "warn":
		return logger.LogLevelWarn, nil
	case "info":
		return logger.LogLevelInfo, nil
	case "debug":
		return logger.LogLevelDebug, nil
	case "trace":
		return logger.LogLevelTrace, nil
	default:
		return 0, fmt.Errorf("unrecognized log level %q", s)
	}
}

// loadConfig reads the YAML backend-selection config if -config_file was
// given; otherwise it returns the zero Config (sqlite keystore at -keystore,
// no measurement backend, no PKCS#11, no password gate).
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if *configFile == "" {
		return cfg, nil
	}
	if err := utils.LoadConfig(*configDir, *configFile, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openKeystore builds the keystore.Store the config selects, falling back to
// the legacy -keystore flag when no config file was given.
func openKeystore(cfg *Config) (keystore.Store, func() error, error) {
	switch cfg.Keystore.Backend {
	case "memory":
		return keystore.NewFake(), func() error { return nil }, nil
	case "sqlite", "":
		path := cfg.Keystore.Path
		if path == "" {
			path = *keystorePath
		}
		if path == "" {
			return nil, nil, fmt.Errorf("-keystore or config keystore.path is required for the sqlite backend")
		}
		store, err := keystore.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown keystore backend %q", cfg.Keystore.Backend)
	}
}

// openMeasurementStore builds the measurement.Store the config selects. A
// backend of "" or "memory" means no durable measurement backend is
// configured, and check-policy runs against an empty in-memory store.
func openMeasurementStore(cfg *Config) (measurement.Store, error) {
	switch cfg.Measurement.Backend {
	case "", "memory":
		return measurement.NewFake(nil), nil
	case "etcd":
		if len(cfg.Measurement.EtcdEndpoints) == 0 {
			return nil, fmt.Errorf("measurement.etcd_endpoints must be set for the etcd backend")
		}
		client, err := clientv3.New(clientv3.Config{Endpoints: cfg.Measurement.EtcdEndpoints})
		if err != nil {
			return nil, fmt.Errorf("connect to etcd: %w", err)
		}
		return measurement.NewEtcdStore(client.KV), nil
	default:
		return nil, fmt.Errorf("unknown measurement backend %q", cfg.Measurement.Backend)
	}
}

// requireOperatorPassword gates a destructive or HSM-touching command behind
// the configured bcrypt operator-password hash. If no hash is configured,
// the gate is open (demo/dev mode).
func requireOperatorPassword(cfg *Config) error {
	if cfg.OperatorPasswordHash == "" {
		return nil
	}
	if *operatorPassword == "" {
		return fmt.Errorf("-operator_password is required by this configuration")
	}
	if err := utils.CompareHashAndPassword(cfg.OperatorPasswordHash, *operatorPassword); err != nil {
		return fmt.Errorf("operator password rejected: %w", err)
	}
	return nil
}

// newSigVerifier builds the configured signature verifier: an HSM-backed
// PKCS#11 verifier when cfg.PKCS11.Enabled, otherwise a software RSA
// verifier over the credential manager's own installed certificate.
func newSigVerifier(cfg *Config, m *credential.Manager) (sigverify.Verifier, func() error, error) {
	if cfg.PKCS11.Enabled {
		v, err := sigverify.NewPKCS11Verifier(sigverify.PKCS11Config{
			SOPath:   cfg.PKCS11.ModulePath,
			SlotID:   cfg.PKCS11.SlotID,
			KeyLabel: cfg.PKCS11.KeyLabel,
		})
		if err != nil {
			return nil, nil, err
		}
		return v, v.Close, nil
	}

	cert := m.GetCertificate()
	if cert.None() {
		return nil, nil, fmt.Errorf("no certificate installed to verify against; run set-cert first")
	}
	parsed, err := x509.ParseCertificate(cert.DER())
	if err != nil {
		return nil, nil, fmt.Errorf("parse installed certificate: %w", err)
	}
	rsaPub, ok := parsed.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("installed certificate does not carry an RSA public key")
	}
	v := sigverify.NewRSAVerifier(rsaPub, 0 /* crypto.Hash; caller supplies a pre-hashed digest */)
	return v, func() error { return nil }, nil
}

func run(args []string, cfg *Config, store keystore.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand: generate-key|set-cert|get-cert|erase|check-policy|verify-sig|hash-operator-password")
	}

	m := credential.NewManager(store)

	switch args[0] {
	case "generate-key":
		if err := m.GenerateKey(); err != nil {
			return err
		}
		fmt.Println("key generated")

	case "set-cert":
		if *certFile == "" {
			return fmt.Errorf("-cert is required for set-cert")
		}
		parsed, err := utils.LoadCertFromFile(*configDir, *certFile)
		if err != nil {
			return fmt.Errorf("validate certificate before install: %w", err)
		}
		if err := m.SetCertificate(parsed.Raw); err != nil {
			return err
		}
		fmt.Println("certificate installed")

	case "get-cert":
		cert := m.GetCertificate()
		if cert.None() {
			fmt.Println("no certificate installed")
			return nil
		}
		out := utils.Base64Encode(cert.DER())
		if *pemOut {
			out = utils.BlobToPEMString(cert.DER())
		}
		if *outFile == "" {
			fmt.Println(out)
			return nil
		}
		return utils.WriteFileToDir(filepath.Dir(*outFile), filepath.Base(*outFile), []byte(out))

	case "erase":
		if err := requireOperatorPassword(cfg); err != nil {
			return err
		}
		if err := m.EraseKey(); err != nil {
			return err
		}
		fmt.Println("credential erased")

	case "check-policy":
		if len(args) < 2 {
			return fmt.Errorf("check-policy requires a policy file argument")
		}
		wire, err := utils.ReadFile(args[1])
		if err != nil {
			return err
		}
		policy, err := measurement.ParsePolicy(wire)
		if err != nil {
			return fmt.Errorf("parse sealing policy: %w", err)
		}
		store, err := openMeasurementStore(cfg)
		if err != nil {
			return err
		}
		if err := measurement.Evaluate(store, policy); err != nil {
			return err
		}
		fmt.Println("policy satisfied")

	case "verify-sig":
		if len(args) < 3 {
			return fmt.Errorf("verify-sig requires base64 digest and signature arguments")
		}
		if err := requireOperatorPassword(cfg); err != nil {
			return err
		}
		digest, err := utils.Base64Decode(args[1])
		if err != nil {
			return fmt.Errorf("decode digest: %w", err)
		}
		sig, err := utils.Base64Decode(args[2])
		if err != nil {
			return fmt.Errorf("decode signature: %w", err)
		}
		verifier, closeVerifier, err := newSigVerifier(cfg, m)
		if err != nil {
			return err
		}
		defer closeVerifier()
		if err := verifier.Verify(digest, sig); err != nil {
			return err
		}
		fmt.Println("signature verified")

	case "hash-operator-password":
		if len(args) < 2 {
			return fmt.Errorf("hash-operator-password requires a password argument")
		}
		hash, err := utils.GenerateHashFromPassword([]byte(args[1]))
		if err != nil {
			return err
		}
		fmt.Println(string(hash))

	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
	return nil
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println(buildVersion)
		os.Exit(0)
	}

	lvl, err := parseLogLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid -log_level: %v", err)
	}
	auxLog, err := logger.New("auxctl", "", lvl)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, closeStore, err := openKeystore(cfg)
	if err != nil {
		log.Fatalf("failed to open keystore: %v", err)
	}
	defer closeStore()

	if err := run(flag.Args(), cfg, store); err != nil {
		auxLog.Error(err, "command failed")
		log.Fatalf("auxctl: %v", err)
	}
}
