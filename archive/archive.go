// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package archive is the bulk-archive collaborator referenced by spec §6:
// it fetches a remote TSV plus its SHA-256, decompresses on the fly, and
// replays records into a local block index. Refresh policy and freshness
// check are grounded on the original cold-start path
// (archive/mod.rs download_stacks_dataset_if_required).
package archive

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ErrFetch wraps any network failure reaching the remote TSV or its digest.
var ErrFetch = errors.New("archive: fetch failed")

// Source describes where the remote archive and its digest live.
type Source struct {
	TSVURL string
	SHAURL string
}

// IsFresh reports whether localSHA (the digest recorded next to the last
// replay) is still current, per spec §6: "the file is considered up to
// date iff the local SHA (32-char prefix) is a case-insensitive prefix of
// the remote SHA bytes".
func IsFresh(localSHA string, remoteSHA []byte) bool {
	if len(localSHA) < 32 {
		return false
	}
	prefix := strings.ToLower(localSHA[:32])
	remote := strings.ToLower(string(remoteSHA))
	return strings.HasPrefix(remote, prefix)
}

// FetchRemoteSHA downloads the digest file at src.SHAURL.
func FetchRemoteSHA(ctx context.Context, client *http.Client, src Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.SHAURL, nil)
	if err != nil {
		return nil, errors.Wrap(ErrFetch, err.Error())
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrFetch, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrFetch, "sha fetch: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Download streams src.TSVURL through a snappy reader straight to
// destPath, so the whole archive is never held in memory at once.
func Download(ctx context.Context, client *http.Client, src Source, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.TSVURL, nil)
	if err != nil {
		return errors.Wrap(ErrFetch, err.Error())
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(ErrFetch, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrFetch, "tsv fetch: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "archive: create destination")
	}
	defer out.Close()

	if _, err := io.Copy(out, snappy.NewReader(resp.Body)); err != nil {
		return errors.Wrap(err, "archive: decompress")
	}
	return nil
}

// Record is one parsed row of the TSV replay stream. The column layout is
// deliberately minimal: height + raw block JSON, the two fields the
// replay path actually needs to seed the local index.
type Record struct {
	Height uint64
	Raw    []byte
}

// Replay scans a decompressed TSV file at path and calls fn for each
// record in file order, stopping early on the first error from fn. Empty
// lines, lines without a tab and lines whose height is not a decimal
// number are skipped.
func Replay(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "archive: open tsv")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, '\t')
		if idx < 0 {
			continue
		}
		height, raw := line[:idx], line[idx+1:]
		h, err := parseUint(height)
		if err != nil {
			continue
		}
		if err := fn(Record{Height: h, Raw: []byte(raw)}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseUint(s string) (uint64, error) {
	var v uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("archive: malformed height %q", s)
		}
		v = v*10 + uint64(c-'0')
	}
	return v, nil
}
