package spiralfile

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// checksumSuffix names the sidecar recording a part's seahash checksum.
// Streamed parts (CreatePart) don't get one: the writer doesn't see the
// whole part at once and a reader that cares can checksum the bytes itself.
const checksumSuffix = ".seahash"

func writeChecksum(ctx context.Context, path string, contents []byte) error {
	sum := seahash.Sum64(contents)
	f, err := file.Create(ctx, path+checksumSuffix)
	if err != nil {
		return errors.E(err, "spiralfile: creating checksum sidecar for", path)
	}
	if _, err := fmt.Fprintf(f.Writer(ctx), "%x", sum); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.E(err, "spiralfile: writing checksum sidecar for", path)
	}
	return f.Close(ctx)
}

// verifyChecksum compares contents against path's checksum sidecar, if one
// exists. A missing sidecar is not an error: streamed parts never have one.
func verifyChecksum(ctx context.Context, path string, contents []byte) error {
	f, err := file.Open(ctx, path+checksumSuffix)
	if err != nil {
		return nil
	}
	defer f.Close(ctx) // nolint: errcheck
	data, err := io.ReadAll(f.Reader(ctx))
	if err != nil {
		return errors.E(err, "spiralfile: reading checksum sidecar for", path)
	}
	var want uint64
	if _, err := fmt.Sscanf(string(bytes.TrimSpace(data)), "%x", &want); err != nil {
		return errors.E(err, "spiralfile: malformed checksum sidecar for", path)
	}
	if got := seahash.Sum64(contents); got != want {
		return fmt.Errorf("spiralfile: checksum mismatch reading %s: got %x, want %x", path, got, want)
	}
	return nil
}
