package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRewriteConfig(maxVariants int) Config {
	return Config{
		MaxVariants:     maxVariants,
		RewriteTimeout:  time.Second,
		GenerationModel: "test-model",
	}
}

func TestRewriteVariantZeroIsVerbatim(t *testing.T) {
	provider := &fakeProvider{responses: []string{"alternative one\nalternative two"}}
	r := newRewriter(provider, testRewriteConfig(4))
	tr, _ := newTestTrace(context.Background())

	variants := r.Rewrite(context.Background(), Query{Text: "  What is the notice period?  "}, tr)

	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	if variants[0].Index != 0 || variants[0].Text != "  What is the notice period?  " {
		t.Errorf("variant 0 = %+v, want the verbatim query at index 0", variants[0])
	}
	if !variants[0].Original() {
		t.Error("variant 0 must report Original()")
	}
	for i, v := range variants {
		if v.Index != i {
			t.Errorf("variant %d has index %d", i, v.Index)
		}
	}
}

func TestRewriteCapsVariantCount(t *testing.T) {
	provider := &fakeProvider{responses: []string{"a\nb\nc\nd\ne\nf"}}
	r := newRewriter(provider, testRewriteConfig(3))
	tr, _ := newTestTrace(context.Background())

	variants := r.Rewrite(context.Background(), Query{Text: "q"}, tr)
	if len(variants) != 3 {
		t.Errorf("got %d variants, want cap of 3", len(variants))
	}
}

func TestRewriteProviderErrorDegradesToOriginal(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model down")}
	r := newRewriter(provider, testRewriteConfig(4))
	tr, drain := newTestTrace(context.Background())

	variants := r.Rewrite(context.Background(), Query{Text: "the question"}, tr)

	if len(variants) != 1 || variants[0].Text != "the question" {
		t.Fatalf("variants = %+v, want only the original", variants)
	}
	if !containsMessage(drain(), "degraded") {
		t.Error("expected a degradation trace event")
	}
}

func TestRewriteUnusableOutputDegradesToOriginal(t *testing.T) {
	provider := &fakeProvider{responses: []string{"\n\n\n"}}
	r := newRewriter(provider, testRewriteConfig(4))
	tr, drain := newTestTrace(context.Background())

	variants := r.Rewrite(context.Background(), Query{Text: "q"}, tr)
	if len(variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(variants))
	}
	if !containsMessage(drain(), "no usable variants") {
		t.Error("expected a no-usable-variants trace event")
	}
}

func TestRewriteSingleVariantSkipsModel(t *testing.T) {
	provider := &fakeProvider{responses: []string{"unused"}}
	r := newRewriter(provider, testRewriteConfig(1))
	tr, _ := newTestTrace(context.Background())

	variants := r.Rewrite(context.Background(), Query{Text: "q"}, tr)
	if len(variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(variants))
	}
	if provider.callCount() != 0 {
		t.Errorf("provider called %d times, want 0", provider.callCount())
	}
}
