package spiralfile

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// OpenState is a single directory within an archive being read: either the
// archive root (from Open) or a subpart (from OpenSubpart). Every part
// opened through it must have its version checked, via EnforceMaxVersion or
// EnforceEphemeralVersion, before its contents are read.
type OpenState struct {
	ctx context.Context
	dir string
}

// Open opens an existing archive rooted at path.
func Open(ctx context.Context, path string) (*OpenState, error) {
	return &OpenState{ctx: ctx, dir: path}, nil
}

// FileInfo reads the archive's file_info.json.
func (s *OpenState) FileInfo() (uuid string, createTimestamp int64, commandLine []string, err error) {
	var info fileInfo
	if err := readJSON(s.ctx, joinPath(s.dir, fileInfoName), &info); err != nil {
		return "", 0, nil, err
	}
	return info.UUID, info.CreateTimestamp, info.CommandLine, nil
}

// PartPresent reports whether a plain (non-subpart) part named name exists.
func (s *OpenState) PartPresent(name string) bool {
	_, err := file.Stat(s.ctx, joinPath(s.dir, name))
	return err == nil
}

// SubpartPresent reports whether a subpart directory named name exists.
func (s *OpenState) SubpartPresent(name string) bool {
	_, err := file.Stat(s.ctx, joinPath(joinPath(s.dir, name), partInfoName))
	return err == nil
}

// OpenPart opens part name for streaming reads; the caller must Close it.
func (s *OpenState) OpenPart(name string) (io.ReadCloser, error) {
	f, err := file.Open(s.ctx, joinPath(s.dir, name))
	if err != nil {
		return nil, errors.E(wrapFS(err, "filesystem error"), "spiralfile: opening part", name)
	}
	return &partReader{ctx: s.ctx, f: f}, nil
}

// GetPartContents reads part name in full, verifying its checksum sidecar
// if CreatePartContents wrote one.
func (s *OpenState) GetPartContents(name string) ([]byte, error) {
	r, err := s.OpenPart(name)
	if err != nil {
		return nil, err
	}
	defer r.Close() // nolint: errcheck
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.E(err, "spiralfile: reading part", name)
	}
	if err := verifyChecksum(s.ctx, joinPath(s.dir, name), data); err != nil {
		return nil, err
	}
	return data, nil
}

type partReader struct {
	ctx context.Context
	f   file.File
}

func (p *partReader) Read(b []byte) (int, error) { return p.f.Reader(p.ctx).Read(b) }
func (p *partReader) Close() error                { return p.f.Close(p.ctx) }

// OpenSubpart returns an OpenState for a nested part directory named name.
func (s *OpenState) OpenSubpart(name string) *OpenState {
	return &OpenState{ctx: s.ctx, dir: joinPath(s.dir, name)}
}

// partInfo reads and parses this part's part_info.json.
func (s *OpenState) partInfo() (partInfo, error) {
	var pi partInfo
	if err := readJSON(s.ctx, joinPath(s.dir, partInfoName), &pi); err != nil {
		return partInfo{}, err
	}
	return pi, nil
}

// EnforceMaxVersion checks this part's stored type against partType and its
// stored version against maxVersion, per Version.CanRead. Returns an error
// if the type doesn't match or the stored version is too new to read.
func (s *OpenState) EnforceMaxVersion(partType string, maxVersion Version) error {
	pi, err := s.partInfo()
	if err != nil {
		return err
	}
	if pi.PartType != partType {
		return fmt.Errorf("spiralfile: expecting part type %q, got %q", partType, pi.PartType)
	}
	if pi.Version == nil {
		return fmt.Errorf("spiralfile: part %q has no version but a version check was requested", partType)
	}
	if !maxVersion.CanRead(*pi.Version) {
		return fmt.Errorf("spiralfile: part %q version %s is newer than supported version %s", partType, pi.Version, maxVersion)
	}
	return nil
}

// EnforceEphemeralVersion checks this part's stored type against partType,
// for a part that was created with SetEphemeralVersion.
func (s *OpenState) EnforceEphemeralVersion(partType string) error {
	pi, err := s.partInfo()
	if err != nil {
		return err
	}
	if pi.PartType != partType {
		return fmt.Errorf("spiralfile: expecting part type %q, got %q", partType, pi.PartType)
	}
	return nil
}
