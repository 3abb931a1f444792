package exchange_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"casewire/internal/domain"
	"casewire/internal/protocol/exchange"
)

func TestCompleteBothSidesAgree(t *testing.T) {
	aPriv, aPub, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	bPriv, bPub, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	sid := domain.SessionID("session-1")
	aKey, err := exchange.Complete(aPriv, bPub.Slice(), sid, 0)
	if err != nil {
		t.Fatalf("Complete (a): %v", err)
	}
	bKey, err := exchange.Complete(bPriv, aPub.Slice(), sid, 0)
	if err != nil {
		t.Fatalf("Complete (b): %v", err)
	}
	if !bytes.Equal(aKey.Slice(), bKey.Slice()) {
		t.Fatal("both sides should derive the same session key")
	}
}

func TestCompleteBindsSessionID(t *testing.T) {
	// Same key pairs on both sides; only the session ID differs.
	aPriv, _, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	_, bPub, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	key1, err := exchange.Complete(aPriv, bPub.Slice(), "session-1", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	key2, err := exchange.Complete(aPriv, bPub.Slice(), "session-2", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if bytes.Equal(key1.Slice(), key2.Slice()) {
		t.Fatal("different session IDs must derive different keys")
	}
}

func TestCompleteRejectsWrongLength(t *testing.T) {
	aPriv, _, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	_, err = exchange.Complete(aPriv, make([]byte, 16), "session-1", 0)
	if !errors.Is(err, domain.ErrMalformedPublicKey) {
		t.Fatalf("want ErrMalformedPublicKey, got %v", err)
	}
}

func TestCompleteRejectsLowOrderPoint(t *testing.T) {
	aPriv, _, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	// The all-zero point is low order; X25519 refuses it.
	_, err = exchange.Complete(aPriv, make([]byte, 32), "session-1", 0)
	if !errors.Is(err, domain.ErrMalformedPublicKey) {
		t.Fatalf("want ErrMalformedPublicKey, got %v", err)
	}
}
