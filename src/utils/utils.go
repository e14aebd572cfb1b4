// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package utils collects the small helpers shared across the attestation
// core: file and YAML config loading, password hashing, base64 framing and
// buffer zeroization.
package utils

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

// Zeroize overwrites every byte of buf with zero. Call it on every exit path
// (success, error, or cancellation) of any function that materializes seed,
// key, or derived-key bytes in a local buffer.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// ReadFile reads data from file.
// If succeed, ReadFile returns the data of the file as byte array;
// otherwise ReadFile returns an error.
func ReadFile(filename string) ([]byte, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %q, error: %v",
			filename, err)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func ReadFileFromDir(configDir, filename string) ([]byte, error) {
	absPath := filepath.Join(configDir, filename)
	data, err := ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %q, error: %v", absPath, err)
	}
	return data, nil
}

// WriteFile writes data to the named file, creating it if necessary.
// If the file does not exist, WriteFile creates it with permissions perm (before umask);
// otherwise WriteFile appends it before writing, without changing permissions.
func WriteFile(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, perm)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if err1 := f.Close(); err1 != nil && err == nil {
		err = err1
	}
	return err
}

func WriteFileToDir(configDir, filename string, data []byte) error {
	absPath := filepath.Join(configDir, filename)
	log.Printf("Debug: write data record to path %q", absPath)
	if err := WriteFile(absPath, data, 0777); err != nil {
		return fmt.Errorf("failed to write data to path %q: %v", absPath, err)
	}
	return nil
}

func setDefaults(config interface{}) {
	t := reflect.TypeOf(config).Elem()
	v := reflect.ValueOf(config).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		defaultTag := field.Tag.Get("default")
		if defaultTag != "" && value.Interface() == reflect.Zero(value.Type()).Interface() {
			value.Set(reflect.ValueOf(defaultTag))
		}
	}
}

// LoadConfig reads a Yaml configuration file from the specified path with
// filename and unmarshals it into the provided struct (v).
//
// Parameters:
//   - configDir:  The directory path of the Yaml configuration file.
//   - configFile: The file path of the Yaml configuration file.
//   - v:          A pointer to the struct where the configuration will be unmarshaled.
//
// Returns:
//   - An error if there was an issue reading or unmarshaling the configuration file.
func LoadConfig(configDir, configFile string, v interface{}) error {
	yamlData, err := ReadFileFromDir(configDir, configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration file: %v", err)
	}

	if err := yaml.Unmarshal(yamlData, v); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}

	setDefaults(v)

	return nil
}

// LoadCertFromFile reads a DER-encoded certificate file from the specified
// directory and parses it into an x509.Certificate.
func LoadCertFromFile(configDir, filename string) (*x509.Certificate, error) {
	cert, err := ReadFileFromDir(configDir, filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read certificate file, error: %v", err)
	}

	certObj, err := x509.ParseCertificate(cert)
	if err != nil {
		return nil, fmt.Errorf("unable to parse certificate, error: %v", err)
	}
	return certObj, nil
}

// GenerateHashFromPassword hashes data with bcrypt, used to produce the
// operator-password hash that gates destructive CLI operations.
func GenerateHashFromPassword(data []byte) ([]byte, error) {
	hashData, err := bcrypt.GenerateFromPassword(data, bcrypt.DefaultCost)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "generate hash fail: %q", err)
	}
	return hashData, nil
}

func CompareHashAndPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		log.Printf("compare hash fail: %q", err)
		return status.Errorf(codes.Internal, "compare hash fail: %q", err)
	}
	return nil
}

func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func Base64Decode(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}

func BlobToPEMString(blob []byte) string {
	block := &pem.Block{
		Type:  "CERTIFICATE",
		Bytes: blob,
	}
	return string(pem.EncodeToMemory(block))
}
