package stage

import (
	"context"
	"testing"
	"time"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"github.com/ridgeline-systems/dtable/internal/transport"
)

func TestIssueWaitNonStraddlingChunk(t *testing.T) {
	geom := addr.NewGeometry(2, 16)
	tr := transport.NewLocalTransport(geom, 0, nil)
	p := New(tr, geom, 4, 8)
	defer p.Close()

	ctx := context.Background()
	if err := p.Issue(ctx, 0, 0); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := p.Wait(ctx, 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	chunk := p.Chunk(0)
	if len(chunk) != 4 {
		t.Fatalf("Chunk(0) len = %d, want 4", len(chunk))
	}
	for _, word := range chunk {
		if word != 0 { // an empty bucket is the all-zero word
			t.Fatalf("expected empty bucket word, got %#x", word)
		}
	}
}

func TestIssueStraddlingChunkSplitsAcrossShards(t *testing.T) {
	geom := addr.NewGeometry(2, 8) // capacity 16
	tr := transport.NewLocalTransport(geom, 0, nil)
	p := New(tr, geom, 4, 4)
	defer p.Close()

	ctx := context.Background()
	h := uint64(6) // offset 6, chunk of 4 overruns shard 0's block of 8 by 2
	if err := p.Issue(ctx, h, 0); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := p.Wait(ctx, 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(p.Chunk(0)) != 4 {
		t.Fatalf("Chunk(0) len = %d, want 4", len(p.Chunk(0)))
	}
}

// TestDrainWaitsOutstandingHandles exercises the drain-on-return design:
// issuing several chunks without waiting on all of them, then Drain must
// still clear every outstanding handle slot before Close is safe.
func TestDrainWaitsOutstandingHandles(t *testing.T) {
	geom := addr.NewGeometry(2, 32)
	tr := transport.NewLocalTransport(geom, 2*time.Millisecond, nil)
	p := New(tr, geom, 4, 4)
	defer p.Close()

	ctx := context.Background()
	for n := uint64(0); n < 4; n++ {
		if err := p.Issue(ctx, 0, n); err != nil {
			t.Fatalf("Issue(%d): %v", n, err)
		}
	}
	if err := p.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	for _, h := range p.handles {
		if h != nil {
			t.Fatalf("handle slot not cleared after Drain")
		}
	}
}
