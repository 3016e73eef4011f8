package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testKey(seed byte) []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	b, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	msg := "contraseña ✓ secreta"
	ct, err := b.Seal(msg)
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	if strings.Contains(ct, msg) {
		t.Fatalf("sealed value leaks plaintext")
	}
	pt, err := b.Open(ct)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestOpen_DetectsTamper(t *testing.T) {
	b, err := New(testKey(200))
	if err != nil {
		t.Fatal(err)
	}
	ct, err := b.Seal("top secret")
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("unexpected ct format")
	}
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0x01 // flip
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	if _, err := b.Open(corrupted); err == nil {
		t.Fatalf("expected auth error, got nil")
	}
	if _, err := b.Open("sin-separador"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	if _, err := FromEnv(); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}

	t.Setenv(EnvVar, hex.EncodeToString(testKey(7)))
	hb, err := FromEnv()
	if err != nil {
		t.Fatalf("hex key: %v", err)
	}

	t.Setenv(EnvVar, base64.StdEncoding.EncodeToString(testKey(7)))
	bb, err := FromEnv()
	if err != nil {
		t.Fatalf("base64 key: %v", err)
	}

	// misma clave en ambos formatos
	ct, err := hb.Seal("x")
	if err != nil {
		t.Fatal(err)
	}
	if pt, err := bb.Open(ct); err != nil || pt != "x" {
		t.Fatalf("open with same key: %q %v", pt, err)
	}

	t.Setenv(EnvVar, "corta")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestGenerateKey(t *testing.T) {
	k, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw, err := ParseKey(k)
	if err != nil || len(raw) != 32 {
		t.Fatalf("parse generated key: len=%d err=%v", len(raw), err)
	}
	if other, _ := GenerateKey(); other == k {
		t.Fatal("two generated keys are equal")
	}
}
