package engine

import (
	"reflect"
	"testing"
)

func TestKeywordsFiltersStopWordsAndShortTokens(t *testing.T) {
	got := Keywords("I have a severe headache and some pain", DefaultMinKeywordLength)
	want := []string{"severe", "headache", "pain"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywordsLowercasesAndSplitsPunctuation(t *testing.T) {
	got := Keywords("Headache, DIZZINESS; headache!", DefaultMinKeywordLength)
	want := []string{"headache", "dizziness", "headache"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywordsEmptyAndAllStopWords(t *testing.T) {
	if got := Keywords("", DefaultMinKeywordLength); len(got) != 0 {
		t.Fatalf("Keywords(empty) = %v, want none", got)
	}
	if got := Keywords("I am very much not so", DefaultMinKeywordLength); len(got) != 0 {
		t.Fatalf("Keywords(stop words) = %v, want none", got)
	}
}

func TestKeywordsRespectsMinLength(t *testing.T) {
	got := Keywords("leg arm stomach", 4)
	want := []string{"stomach"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
	got = Keywords("leg arm stomach", 3)
	want = []string{"leg", "arm", "stomach"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords(minLen=3) = %v, want %v", got, want)
	}
}
