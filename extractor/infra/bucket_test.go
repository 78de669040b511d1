package infra

import (
	"testing"
	"time"
)

func TestTokenBucket_BurstPassesThenDelays(t *testing.T) {
	b := NewTokenBucket(1, 2)

	if d := b.Admit(); d != 0 {
		t.Fatalf("expected first admission free, got %s", d)
	}
	if d := b.Admit(); d != 0 {
		t.Fatalf("expected second admission free (burst=2), got %s", d)
	}
	if d := b.Admit(); d <= 0 {
		t.Fatalf("expected third admission to wait, got %s", d)
	}
}

func TestTokenBucket_PenalizeOverridesBucket(t *testing.T) {
	b := NewTokenBucket(1000, 1000)

	b.Penalize(5 * time.Second)

	// o bucket tem tokens de sobra, mas o cooldown do servidor manda
	if d := b.Admit(); d < 4*time.Second {
		t.Fatalf("expected cooldown-driven wait, got %s", d)
	}
}

func TestTokenBucket_PenalizeIgnoresNonPositive(t *testing.T) {
	b := NewTokenBucket(1000, 1000)

	b.Penalize(0)
	b.Penalize(-time.Second)

	if d := b.Admit(); d != 0 {
		t.Fatalf("expected free admission, got %s", d)
	}
}
