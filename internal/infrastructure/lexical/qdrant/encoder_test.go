package qdrant

import (
	"testing"
)

func TestEncodeQueryDeterministic(t *testing.T) {
	first := encodeQuery("diabetes treatment guidelines", []string{"diabetes mellitus"})
	second := encodeQuery("diabetes treatment guidelines", []string{"diabetes mellitus"})

	if len(first.Indices) != len(second.Indices) {
		t.Fatalf("index count diverged: %d vs %d", len(first.Indices), len(second.Indices))
	}
	for i := range first.Indices {
		if first.Indices[i] != second.Indices[i] || first.Values[i] != second.Values[i] {
			t.Fatalf("encoding diverged at %d", i)
		}
	}
}

func TestEncodeQueryExpandedTermsCarryReducedWeight(t *testing.T) {
	plain := encodeQuery("metformin", nil)
	expanded := encodeQuery("", []string{"metformin"})

	if len(plain.Indices) != 1 || len(expanded.Indices) != 1 {
		t.Fatalf("expected single-term vectors, got %d and %d", len(plain.Indices), len(expanded.Indices))
	}
	if plain.Indices[0] != expanded.Indices[0] {
		t.Fatalf("same token must hash to the same index")
	}
	if expanded.Values[0] >= plain.Values[0] {
		t.Fatalf("expanded term weight %v must be below query term weight %v", expanded.Values[0], plain.Values[0])
	}
}

func TestEncodeQueryTermFrequencySaturates(t *testing.T) {
	once := encodeQuery("insulin", nil)
	many := encodeQuery("insulin insulin insulin insulin insulin insulin", nil)

	if len(once.Indices) != 1 || len(many.Indices) != 1 {
		t.Fatalf("expected single-term vectors")
	}
	if many.Values[0] <= once.Values[0] {
		t.Fatalf("repeated term should weigh more: %v vs %v", many.Values[0], once.Values[0])
	}
	// BM25 saturation: the weight approaches k1+1, it never grows linearly.
	if float64(many.Values[0]) >= bm25K1+1.0 {
		t.Fatalf("weight %v exceeded the saturation ceiling %v", many.Values[0], bm25K1+1.0)
	}
}

func TestEncodeQueryEmptyInput(t *testing.T) {
	got := encodeQuery("", nil)
	if len(got.Indices) != 0 || len(got.Values) != 0 {
		t.Fatalf("empty input must produce an empty vector, got %v", got)
	}
}

func TestTokenizeSplitsOnNonAlphanumerics(t *testing.T) {
	got := tokenize("Type-2 Diabetes, HbA1c>7%")
	want := []string{"type", "2", "diabetes", "hba1c", "7"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHashTokenNeverZero(t *testing.T) {
	for _, token := range []string{"a", "diabetes", "2", "hba1c"} {
		if hashToken(token) == 0 {
			t.Fatalf("token %q hashed to reserved index 0", token)
		}
	}
}
