package dtable

import (
	"context"
	"errors"
	"testing"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"github.com/ridgeline-systems/dtable/internal/transport"
)

func newTestTable(t *testing.T, shards uint64, opts ...Option) *Table {
	t.Helper()
	geom := addr.NewGeometry(shards, 64)
	tr := transport.NewLocalTransport(geom, 0, nil)
	tbl, err := New(tr, shards, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func TestNewRejectsZeroShardCount(t *testing.T) {
	geom := addr.NewGeometry(1, 64)
	tr := transport.NewLocalTransport(geom, 0, nil)
	if _, err := New(tr, 0); !errors.Is(err, ErrInvalidShardCount) {
		t.Fatalf("New(t=0) error = %v, want ErrInvalidShardCount", err)
	}
}

func TestNewRejectsChunkLargerThanBlock(t *testing.T) {
	geom := addr.NewGeometry(1, 8)
	tr := transport.NewLocalTransport(geom, 0, nil)
	_, err := New(tr, 1, WithBlockSize(8), WithChunkSize(16))
	if !errors.Is(err, ErrChunkTooLarge) {
		t.Fatalf("New with S>B error = %v, want ErrChunkTooLarge", err)
	}
}

func TestNewRejectsZeroTuning(t *testing.T) {
	geom := addr.NewGeometry(1, 8)
	tr := transport.NewLocalTransport(geom, 0, nil)
	if _, err := New(tr, 1, WithChunkSize(0)); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("New with S=0 error = %v, want ErrInvalidCapacity", err)
	}
}

func TestFindOrPutInsertThenFind(t *testing.T) {
	tbl := newTestTable(t, 2, WithBlockSize(32), WithChunkSize(4), WithMaxChunks(4))
	ctx := context.Background()

	res, err := tbl.FindOrPut(ctx, 7)
	if err != nil {
		t.Fatalf("FindOrPut: %v", err)
	}
	if res != Inserted {
		t.Fatalf("first FindOrPut = %v, want Inserted", res)
	}

	res, err = tbl.FindOrPut(ctx, 7)
	if err != nil {
		t.Fatalf("FindOrPut: %v", err)
	}
	if res != Found {
		t.Fatalf("second FindOrPut = %v, want Found", res)
	}

	snap := tbl.Snapshot()
	if snap.Inserted != 1 || snap.Found != 1 {
		t.Fatalf("Snapshot = %+v, want Inserted=1 Found=1", snap)
	}

	if err := tbl.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBucketEncodingExposedBitExact(t *testing.T) {
	word := Encode(5)
	if !IsOccupied(word) {
		t.Fatalf("Encode(5) not occupied")
	}
	if Payload(word) != 5 {
		t.Fatalf("Payload(Encode(5)) = %d, want 5", Payload(word))
	}
	if Mask(uint64(1)<<63|5) != 5 {
		t.Fatalf("Mask did not scrub bit 63")
	}
}
