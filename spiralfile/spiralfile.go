// Package spiralfile implements the biograph on-disk container format
// (spec.md §6.1): a directory of named "parts", each described by a
// part_info.json sidecar carrying a part type and a semver-ish version, plus
// a single top-level file_info.json describing the archive as a whole.
//
// Parts nest: a part can itself be a subpart directory, holding its own
// part_info.json and further parts underneath it. seqset/readmap/refmap
// store their packed data this way so that, e.g., readmap's mate_loop_table
// subpart can be opened, versioned, and upgraded independently of its
// parent.
package spiralfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// partInfoName and fileInfoName mirror the C++ implementation's sidecar
// filenames exactly: other tools (and biograph binaries built from an
// earlier checkout) rely on them.
const (
	partInfoName = "part_info.json"
	fileInfoName = "file_info.json"
)

// Version is a three-component version, compared the way a part's stored
// version is checked against a reader's maximum supported version: an
// older-or-equal version can always be read.
type Version struct {
	Major, Minor, Patch int
}

// String renders "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CanRead reports whether a part stored at version other can be read by a
// reader that supports up to v. Reading is allowed iff other <= v
// component-wise in major, then minor, then patch precedence.
func (v Version) CanRead(other Version) bool {
	if other.Major != v.Major {
		return other.Major < v.Major
	}
	if other.Minor != v.Minor {
		return other.Minor < v.Minor
	}
	return other.Patch <= v.Patch
}

// ParseVersion parses "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	fields := strings.Split(s, ".")
	if len(fields) != 3 {
		return Version{}, fmt.Errorf("spiralfile: malformed version %q", s)
	}
	var nums [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Version{}, fmt.Errorf("spiralfile: malformed version %q: %v", s, err)
		}
		nums[i] = n
	}
	return Version{nums[0], nums[1], nums[2]}, nil
}

// partInfo is part_info.json's contract. Version is omitted (and the part
// is "ephemeral") when a part's contents have no compatibility story: a
// reader that opens it never needs to check a version.
type partInfo struct {
	PartType string   `json:"part_type"`
	Version  *Version `json:"version,omitempty"`
}

// fileInfo is file_info.json's contract: archive-wide metadata recorded once
// at creation time, independent of any single part's version.
type fileInfo struct {
	UUID             string   `json:"uuid"`
	CreateTimestamp  int64    `json:"create_timestamp"`
	CreateTimeText   string   `json:"create_timestamp_text"`
	CommandLine      []string `json:"command_line"`
	BuildRevision    string   `json:"build_revision,omitempty"`
}

// wrapFS attaches a pkg/errors stack trace to a raw filesystem error before
// it is wrapped again by base/errors at this package's boundary: pkg/errors
// captures where the failure actually happened, base/errors carries the
// structured Kind the rest of the CLI dispatches on at §7's error→exit-code
// boundary. Returns nil unchanged so callers can wrapFS(err, ...) directly
// inline.
func wrapFS(err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, msg)
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func readJSON(ctx context.Context, path string, v interface{}) error {
	f, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "spiralfile: opening", path)
	}
	defer f.Close(ctx) // nolint: errcheck
	r := f.Reader(ctx)
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.E(err, "spiralfile: reading", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.E(err, "spiralfile: parsing", path)
	}
	return nil
}

func writeJSON(ctx context.Context, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.E(err, "spiralfile: encoding", path)
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "spiralfile: creating", path)
	}
	if _, err := f.Writer(ctx).Write(data); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.E(err, "spiralfile: writing", path)
	}
	return f.Close(ctx)
}

// newUUID is a var so tests can stub it; production code always uses a
// freshly generated UUID per archive.
var newUUID = func() string { return uuid.New().String() }
