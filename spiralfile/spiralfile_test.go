package spiralfile

import (
	"io"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
)

func TestCreateThenOpenRoundTripsAPartAndItsVersion(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, cs.CreatePartContents("data", []byte("hello seqset")))
	require.NoError(t, cs.SetVersion("seqset", Version{1, 0, 0}))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, opened.EnforceMaxVersion("seqset", Version{1, 0, 0}))
	data, err := opened.GetPartContents("data")
	require.NoError(t, err)
	require.Equal(t, "hello seqset", string(data))
}

func TestEnforceMaxVersionRejectsANewerStoredVersion(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, cs.CreatePartContents("data", []byte("x")))
	require.NoError(t, cs.SetVersion("seqset", Version{2, 0, 0}))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	require.Error(t, opened.EnforceMaxVersion("seqset", Version{1, 5, 0}), "expected an error opening a part newer than the reader's max supported version")
}

func TestEnforceMaxVersionRejectsAWrongPartType(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, cs.CreatePartContents("data", []byte("x")))
	require.NoError(t, cs.SetVersion("readmap", Version{1, 0, 0}))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	require.Error(t, opened.EnforceMaxVersion("seqset", Version{1, 0, 0}), "expected an error opening a part with a mismatched type")
}

func TestSubpartsNestAndVersionIndependently(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	sub := cs.CreateSubpart("mate_loop_table")
	require.NoError(t, sub.CreatePartContents("data", []byte("loop")))
	require.NoError(t, sub.SetVersion("mate_loop_table", Version{1, 0, 0}))
	require.NoError(t, cs.SetVersion("readmap", Version{3, 0, 0}))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	require.True(t, opened.SubpartPresent("mate_loop_table"), "expected the mate_loop_table subpart to be present")
	subOpen := opened.OpenSubpart("mate_loop_table")
	require.NoError(t, subOpen.EnforceMaxVersion("mate_loop_table", Version{1, 0, 0}))
	data, err := subOpen.GetPartContents("data")
	require.NoError(t, err)
	require.Equal(t, "loop", string(data))
}

func TestCreatePartStreamsWithoutAChecksumSidecar(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	w, err := cs.CreatePart("stream")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, cs.SetEphemeralVersion("stream"))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, opened.EnforceEphemeralVersion("stream"))
	r, err := opened.OpenPart("stream")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "streamed bytes", string(data))
}

func TestTamperedPartFailsChecksumVerification(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	cs, err := Create(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, cs.CreatePartContents("data", []byte("original")))
	require.NoError(t, cs.SetVersion("seqset", Version{1, 0, 0}))

	// Overwrite the part's raw contents directly, bypassing
	// CreatePartContents, so its checksum sidecar is left stale.
	f, err := file.Create(ctx, dir+"/data")
	require.NoError(t, err)
	_, err = f.Writer(ctx).Write([]byte("tampered!"))
	require.NoError(t, err)
	require.NoError(t, f.Close(ctx))

	opened, err := Open(ctx, dir)
	require.NoError(t, err)
	_, err = opened.GetPartContents("data")
	require.Error(t, err, "expected a checksum mismatch after tampering with a part's raw contents")
}
