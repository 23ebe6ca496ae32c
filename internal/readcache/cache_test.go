package readcache

import (
	"testing"
	"time"
)

func TestCache_SetGetFlush(t *testing.T) {
	c := New(0)

	if _, ok := c.Get("books"); ok {
		t.Fatal("Get() on empty cache returned a value")
	}

	c.Set("books", []string{"Livro 1"})
	v, ok := c.Get("books")
	if !ok {
		t.Fatal("Get() after Set() found nothing")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "Livro 1" {
		t.Errorf("Get() = %v, want [Livro 1]", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Flush()
	if _, ok := c.Get("books"); ok {
		t.Error("Get() after Flush() returned a value")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("k", 1)
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned an expired entry")
	}
}
