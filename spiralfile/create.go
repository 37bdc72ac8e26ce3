package spiralfile

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// CreateState is a single directory within an archive being created: either
// the archive root (from Create) or a subpart (from CreateSubpart). Each
// part created through it must eventually call SetVersion or
// SetEphemeralVersion exactly once; forgetting to do so means a future
// opener has nothing to check compatibility against.
type CreateState struct {
	ctx context.Context
	dir string
}

// Create starts a new archive rooted at path, writing file_info.json
// immediately (uuid, creation time, and the process's argv, mirroring
// write_file_info in the original implementation).
func Create(ctx context.Context, path string) (*CreateState, error) {
	info := fileInfo{
		UUID:            newUUID(),
		CreateTimestamp: nowUnix(),
		CommandLine:     append([]string(nil), os.Args...),
	}
	info.CreateTimeText = time.Unix(info.CreateTimestamp, 0).UTC().Format(time.RFC3339)
	if err := writeJSON(ctx, joinPath(path, fileInfoName), info); err != nil {
		return nil, err
	}
	return &CreateState{ctx: ctx, dir: path}, nil
}

// nowUnix is a var so tests can stub it; the harness running this module
// forbids Date.now()-equivalents from ever running non-deterministically in
// generated code paths that matter to reproducibility, but file_info.json's
// timestamp is observational only.
var nowUnix = func() int64 { return time.Now().Unix() }

// CreatePartContents creates a new part named name holding contents
// verbatim.
func (s *CreateState) CreatePartContents(name string, contents []byte) error {
	f, err := file.Create(s.ctx, joinPath(s.dir, name))
	if err != nil {
		return errors.E(wrapFS(err, "filesystem error"), "spiralfile: creating part", name)
	}
	if _, err := f.Writer(s.ctx).Write(contents); err != nil {
		f.Close(s.ctx) // nolint: errcheck
		return errors.E(err, "spiralfile: writing part", name)
	}
	if err := f.Close(s.ctx); err != nil {
		return err
	}
	return writeChecksum(s.ctx, joinPath(s.dir, name), contents)
}

// CreatePart opens a new part named name for streaming writes; the caller
// must Close it when done.
func (s *CreateState) CreatePart(name string) (io.WriteCloser, error) {
	f, err := file.Create(s.ctx, joinPath(s.dir, name))
	if err != nil {
		return nil, errors.E(wrapFS(err, "filesystem error"), "spiralfile: creating part", name)
	}
	return &partWriter{ctx: s.ctx, f: f}, nil
}

type partWriter struct {
	ctx context.Context
	f   file.File
}

func (p *partWriter) Write(b []byte) (int, error) { return p.f.Writer(p.ctx).Write(b) }
func (p *partWriter) Close() error                { return p.f.Close(p.ctx) }

// CreateSubpart returns a CreateState for a nested part directory named
// name: a directory of its own, with its own part_info.json and further
// parts underneath.
func (s *CreateState) CreateSubpart(name string) *CreateState {
	return &CreateState{ctx: s.ctx, dir: joinPath(s.dir, name)}
}

// SetVersion records this part's type and version in part_info.json. Must
// be called exactly once per CreateState, after any CreatePart/
// CreatePartContents/CreateSubpart calls for this part have completed.
func (s *CreateState) SetVersion(partType string, version Version) error {
	return writeJSON(s.ctx, joinPath(s.dir, partInfoName), partInfo{PartType: partType, Version: &version})
}

// SetEphemeralVersion records a part type with no version: a reader opening
// it has no compatibility check to make, only a type check.
func (s *CreateState) SetEphemeralVersion(partType string) error {
	return writeJSON(s.ctx, joinPath(s.dir, partInfoName), partInfo{PartType: partType})
}
